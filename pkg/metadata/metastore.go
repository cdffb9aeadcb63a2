package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrTableNotFound = errors.New("table does not exist")
	ErrTableExists   = errors.New("table already exists")
)

// Metastore is the catalog of tables and their data files, persisted as
// JSON under <baseDir>/ms_data.
type Metastore struct {
	Schema   Schema            `json:"schema"`
	NameToId map[string]string `json:"name_to_id"`
	FilePath string            `json:"-"`
	Mu       sync.RWMutex      `json:"-"`
}

// MetastoreSnapshot pins the files of a table until Release is called.
type MetastoreSnapshot struct {
	Files   []*FileEntry `json:"files"`
	Columns []ColumnDef  `json:"columns"`
}

func (s *MetastoreSnapshot) Release() error {
	var firstErr error
	for _, f := range s.Files {
		if err := f.DecRef(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.Files = nil
	return firstErr
}

func NewMetastore(baseDir string) (*Metastore, error) {
	metastoreDir := filepath.Join(baseDir, "ms_data")
	if err := os.MkdirAll(metastoreDir, 0755); err != nil {
		return nil, errors.Wrap(err, "creating metastore directory")
	}

	ms := &Metastore{
		Schema: Schema{
			Tables: make(map[string]*TableDef),
		},
		NameToId: make(map[string]string),
		FilePath: filepath.Join(metastoreDir, "metastore.json"),
	}

	if err := ms.Load(); err != nil {
		return nil, errors.Wrap(err, "initializing metastore")
	}
	return ms, nil
}

func (m *Metastore) Load() error {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	data, err := os.ReadFile(m.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "reading metastore")
	}
	return errors.Wrapf(json.Unmarshal(data, m), "decoding %s", m.FilePath)
}

// Save writes the catalog to disk through a temporary file.
func (m *Metastore) Save() error {
	m.Mu.RLock()
	defer m.Mu.RUnlock()
	return m.save()
}

// Assumes lock is held
func (m *Metastore) save() error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding metastore")
	}
	tmp := m.FilePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, "writing metastore")
	}
	return errors.Wrap(os.Rename(tmp, m.FilePath), "replacing metastore")
}

func (m *Metastore) CreateTable(name string, columns []ColumnDef) (string, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if _, exists := m.NameToId[name]; exists {
		return "", errors.Wrapf(ErrTableExists, "table %s", name)
	}

	id := uuid.NewString()
	m.NameToId[name] = id
	m.Schema.Tables[id] = &TableDef{
		Id:      id,
		Name:    name,
		Columns: columns,
		Files:   make([]*FileEntry, 0),
	}
	return id, m.save()
}

func (m *Metastore) GetTableByName(name string) (*TableDef, bool) {
	m.Mu.RLock()
	defer m.Mu.RUnlock()
	return m.getTableByNameUnlocked(name)
}

func (m *Metastore) getTableByNameUnlocked(name string) (*TableDef, bool) {
	id, ok := m.NameToId[name]
	if !ok {
		return nil, false
	}
	t, ok := m.Schema.Tables[id]
	return t, ok
}

func (m *Metastore) GetTableById(id string) (*TableDef, bool) {
	m.Mu.RLock()
	defer m.Mu.RUnlock()
	t, ok := m.Schema.Tables[id]
	return t, ok
}

// DeleteTable drops the table. Its files go away once every snapshot that
// still reads them is released.
func (m *Metastore) DeleteTable(name string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	table, exists := m.getTableByNameUnlocked(name)
	if !exists {
		return errors.Wrapf(ErrTableNotFound, "table %s", name)
	}

	var firstErr error
	for _, f := range table.Files {
		if err := f.MarkDeleted(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	delete(m.Schema.Tables, table.Id)
	delete(m.NameToId, table.Name)
	if err := m.save(); err != nil {
		return err
	}
	return firstErr
}

func (m *Metastore) AddFile(tableName string, filePath string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	table, exists := m.getTableByNameUnlocked(tableName)
	if !exists {
		return errors.Wrapf(ErrTableNotFound, "table %s", tableName)
	}

	table.Files = append(table.Files, &FileEntry{Path: filePath})
	if err := m.save(); err != nil {
		table.Files = table.Files[:len(table.Files)-1]
		return err
	}
	return nil
}

func (m *Metastore) GetTableSnapshot(tableName string) (*MetastoreSnapshot, error) {
	m.Mu.RLock()
	defer m.Mu.RUnlock()

	table, exists := m.getTableByNameUnlocked(tableName)
	if !exists {
		return nil, errors.Wrapf(ErrTableNotFound, "table %s", tableName)
	}

	filesSnapshot := make([]*FileEntry, 0, len(table.Files))
	for _, f := range table.Files {
		f.IncRef()
		filesSnapshot = append(filesSnapshot, f)
	}

	return &MetastoreSnapshot{
		Files:   filesSnapshot,
		Columns: table.Columns,
	}, nil
}

// TableSummary is a copy of a table definition taken under the lock.
type TableSummary struct {
	Id       string
	Name     string
	Columns  []ColumnDef
	NumFiles int
}

// GetTables lists the tables sorted by name.
func (m *Metastore) GetTables() []TableSummary {
	m.Mu.RLock()
	defer m.Mu.RUnlock()

	res := make([]TableSummary, 0, len(m.Schema.Tables))
	for _, table := range m.Schema.Tables {
		res = append(res, TableSummary{
			Id:       table.Id,
			Name:     table.Name,
			Columns:  slices.Clone(table.Columns),
			NumFiles: len(table.Files),
		})
	}
	slices.SortFunc(res, func(a, b TableSummary) int { return strings.Compare(a.Name, b.Name) })
	return res
}
