package service

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"lazyframe/pkg/engine"
	"lazyframe/pkg/metadata"
	"lazyframe/pkg/tomy_file"
)

type TableSchema struct {
	Name    string               `json:"name"`
	Columns []metadata.ColumnDef `json:"columns"`
}

type ShallowTable struct {
	TableId string `json:"tableId"`
	Name    string `json:"name"`
	Files   int    `json:"files"`
}

// TablesAPIService manages the table catalog and table data.
type TablesAPIService struct {
	Metastore *metadata.Metastore
	Session   *engine.Session
}

func NewTablesAPIService(m *metadata.Metastore, s *engine.Session) *TablesAPIService {
	return &TablesAPIService{Metastore: m, Session: s}
}

// GetTables - List tables
func (s *TablesAPIService) GetTables(ctx context.Context) (ImplResponse, error) {
	summaries := s.Metastore.GetTables()
	tables := make([]ShallowTable, len(summaries))
	for i, t := range summaries {
		tables[i] = ShallowTable{TableId: t.Id, Name: t.Name, Files: t.NumFiles}
	}
	return Response(http.StatusOK, tables), nil
}

// CreateTable - Create new table in database
func (s *TablesAPIService) CreateTable(ctx context.Context, schema TableSchema) (ImplResponse, error) {
	vErr := &ValidationError{}
	if schema.Name == "" {
		vErr.Add("Table name must be set", "name")
	}
	if len(schema.Columns) == 0 {
		vErr.Add("Table must have at least one column", "columns")
	}
	seenColumns := make(map[string]bool)
	for _, c := range schema.Columns {
		if !c.Type.IsValid() {
			vErr.Add("Invalid column type: "+string(c.Type), c.Name)
		}
		if seenColumns[c.Name] {
			vErr.Add("Duplicate column name: "+c.Name, c.Name)
		}
		seenColumns[c.Name] = true
	}
	if vErr.HasProblems() {
		return errorResponse(vErr), nil
	}

	tableId, err := s.Metastore.CreateTable(schema.Name, schema.Columns)
	if err != nil {
		return errorResponse(err), nil
	}
	return Response(http.StatusOK, tableId), nil
}

// DeleteTable - Delete selected table from database
func (s *TablesAPIService) DeleteTable(ctx context.Context, name string) (ImplResponse, error) {
	if err := s.Metastore.DeleteTable(name); err != nil {
		return errorResponse(err), nil
	}
	return Response(http.StatusOK, nil), nil
}

// InsertData - Store a columnar payload as a new file of the table
func (s *TablesAPIService) InsertData(ctx context.Context, name string, data engine.ColumnarResult) (ImplResponse, error) {
	def, ok := s.Metastore.GetTableByName(name)
	if !ok {
		return errorResponse(errors.Wrapf(metadata.ErrTableNotFound, "table %q", name)), nil
	}

	names := make([]string, len(def.Columns))
	types := make([]tomy_file.ColumnType, len(def.Columns))
	for i, c := range def.Columns {
		names[i] = c.Name
		typ, ok := tomy_file.ColumnTypeFromString(string(c.Type))
		if !ok {
			return errorResponse(errors.Errorf("table %s: catalog column %s has unsupported type %q", name, c.Name, c.Type)), nil
		}
		types[i] = typ
	}
	table, err := engine.FromColumnarResult(names, types, &data)
	if err != nil {
		return errorResponse(NewVErr(err.Error(), name)), nil
	}

	path, err := s.Session.Insert(name, table)
	if err != nil {
		return errorResponse(err), nil
	}
	return Response(http.StatusOK, map[string]string{"path": path}), nil
}
