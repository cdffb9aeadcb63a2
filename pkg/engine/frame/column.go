package frame

import "lazyframe/pkg/tomy_file"

// ColumnType is the storage engine's type tag.
type ColumnType = tomy_file.ColumnType

// Column describes one column of a frame. Name and type are fixed at
// construction. Columns extracted from a table remember where they came
// from; that link is for provenance only and says nothing about ownership.
type Column struct {
	name    string
	typ     ColumnType
	source  Table
	storage tomy_file.AnyColumn
}

// NewColumnFromTable extracts column i of t.
func NewColumnFromTable(t Table, i int) *Column {
	return &Column{
		name:    t.ColumnName(i),
		typ:     t.ColumnType(i),
		source:  t,
		storage: t.ColumnStorage(i),
	}
}

// NewColumn declares a column whose data does not exist yet.
func NewColumn(name string, typ ColumnType) *Column {
	return &Column{name: name, typ: typ}
}

func (c *Column) Name() string { return c.name }

func (c *Column) Type() ColumnType { return c.typ }

// Source is the table the column was extracted from, nil for declared columns.
func (c *Column) Source() Table { return c.source }

func (c *Column) Storage() tomy_file.AnyColumn { return c.storage }

func (c *Column) IsSynthetic() bool { return c.storage == nil }
