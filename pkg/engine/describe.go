package engine

import (
	"github.com/pkg/errors"

	"lazyframe/pkg/engine/frame"
	"lazyframe/pkg/tomy_file"
)

type ColumnInfo struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Synthetic bool   `json:"synthetic,omitempty"`
}

type FrameInfo struct {
	Name         string       `json:"name"`
	Materialized bool         `json:"materialized"`
	Exclusive    bool         `json:"exclusive"`
	RowCount     uint64       `json:"rowCount"`
	Columns      []ColumnInfo `json:"columns"`
	LogSize      int          `json:"logSize,omitempty"`
	Pending      []string     `json:"pending,omitempty"`
}

// Describe reports the shape of a frame without touching its data.
func (s *Session) Describe(name string) (*FrameInfo, error) {
	f, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	return DescribeFrame(name, f), nil
}

// DescribeFrame is Describe for a frame the caller already holds.
func DescribeFrame(name string, f *frame.Frame) *FrameInfo {
	info := &FrameInfo{
		Name:         name,
		Materialized: f.IsMaterialized(),
		Exclusive:    f.IsExclusive(),
		RowCount:     f.NumRows(),
		Columns:      make([]ColumnInfo, f.NumCols()),
		LogSize:      f.LogSize(),
	}
	for i := range info.Columns {
		info.Columns[i] = ColumnInfo{Name: f.ColumnName(i), Type: f.Type(i).String()}
		if col := f.Column(i); col != nil {
			info.Columns[i].Synthetic = col.IsSynthetic()
		}
	}
	for _, op := range f.Transforms() {
		info.Pending = append(info.Pending, op.String())
	}
	return info
}

type ColumnarResult struct {
	RowCount uint64 `json:"rowCount"`
	Columns  []any  `json:"columns"`
}

// Preview returns up to rowLimit rows of a materialized frame. A rowLimit of
// zero returns everything.
func (s *Session) Preview(name string, rowLimit uint64) (*ColumnarResult, error) {
	f, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	t, err := f.Unwrap()
	if err != nil {
		return nil, errors.Wrapf(err, "frame %s", name)
	}
	table, ok := t.(*tomy_file.ColumnarTable)
	if !ok {
		return nil, errors.Errorf("frame %s wraps a %T, which cannot be previewed", name, t)
	}

	if rowLimit == 0 {
		rowLimit = table.NumRows
	}
	head, err := table.Head(rowLimit)
	if err != nil {
		return nil, err
	}
	return ToColumnarResult(head)
}

func ToColumnarResult(table *tomy_file.ColumnarTable) (*ColumnarResult, error) {
	res := &ColumnarResult{
		RowCount: table.NumRows,
		Columns:  make([]any, len(table.Columns)),
	}
	for i, col := range table.Columns {
		switch c := col.(type) {
		case *tomy_file.Int64Column:
			res.Columns[i] = c.Values
		case *tomy_file.VarcharColumn:
			res.Columns[i] = c.ValuesAsStrings()
		default:
			return nil, errors.Errorf("unsupported column type: %T", col)
		}
	}
	return res, nil
}

// FromColumnarResult builds a table from JSON-decoded columns. Numbers
// arrive as float64 from encoding/json.
func FromColumnarResult(names []string, types []tomy_file.ColumnType, res *ColumnarResult) (*tomy_file.ColumnarTable, error) {
	if len(res.Columns) != len(names) {
		return nil, errors.Errorf("expected %d columns, got %d", len(names), len(res.Columns))
	}
	table := &tomy_file.ColumnarTable{
		NumRows: res.RowCount,
		Columns: make([]tomy_file.AnyColumn, len(names)),
	}
	for i, raw := range res.Columns {
		values, ok := raw.([]any)
		if !ok {
			return nil, errors.Errorf("column %s: expected a list, got %T", names[i], raw)
		}
		switch types[i] {
		case tomy_file.TypeInt64:
			ints := make([]int64, len(values))
			for j, v := range values {
				n, ok := v.(float64)
				if !ok || n != float64(int64(n)) {
					return nil, errors.Errorf("column %s row %d: %v is not an integer", names[i], j, v)
				}
				ints[j] = int64(n)
			}
			table.Columns[i] = &tomy_file.Int64Column{Name: names[i], Values: ints}
		case tomy_file.TypeVarchar:
			strs := make([]string, len(values))
			for j, v := range values {
				str, ok := v.(string)
				if !ok {
					return nil, errors.Errorf("column %s row %d: %v is not a string", names[i], j, v)
				}
				strs[j] = str
			}
			table.Columns[i] = tomy_file.VarcharColumnFromStrings(names[i], strs)
		default:
			return nil, errors.Errorf("column %s: unsupported type %v", names[i], types[i])
		}
	}
	return table, table.Validate()
}
