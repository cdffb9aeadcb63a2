package tomy_file

import "io"

// In memory data structures

type AnyColumn interface {
	GetName() string
	GetType() ColumnType
	GetNumRows() int
	SerializeData(w io.Writer, level EncoderLevel) (compressedSize int64, err error) // implemented in serialize.go
}

// ColumnarTable is a fully loaded table. It is the materialized side of a
// frame: every accessor in table.go reads straight from Columns.
type ColumnarTable struct {
	NumRows uint64
	Columns []AnyColumn
}

type Int64Column struct {
	Name   string
	Values []int64
}

func (c Int64Column) GetName() string {
	return c.Name
}

func (c Int64Column) GetType() ColumnType {
	return TypeInt64
}

func (c Int64Column) GetNumRows() int {
	return len(c.Values)
}

type VarcharColumn struct {
	Name    string
	Offsets []uint64
	Data    []byte
}

func (c VarcharColumn) GetName() string {
	return c.Name
}

func (c VarcharColumn) GetType() ColumnType {
	return TypeVarchar
}

func (c VarcharColumn) GetNumRows() int {
	return len(c.Offsets)
}

// NextOffset returns the end of the value at idx in Data.
func (c VarcharColumn) NextOffset(idx int) uint64 {
	if idx == len(c.Offsets)-1 {
		return uint64(len(c.Data))
	}
	return c.Offsets[idx+1]
}

func (c VarcharColumn) ValuesAsStrings() []string {
	res := make([]string, len(c.Offsets))
	for i := range c.Offsets {
		res[i] = string(c.Data[c.Offsets[i]:c.NextOffset(i)])
	}
	return res
}

func VarcharColumnFromStrings(name string, values []string) *VarcharColumn {
	totalSize := 0
	for _, str := range values {
		totalSize += len(str)
	}
	data := make([]byte, 0, totalSize)
	offsets := make([]uint64, len(values))
	for i, str := range values {
		offsets[i] = uint64(len(data))
		data = append(data, str...)
	}
	return &VarcharColumn{Name: name, Offsets: offsets, Data: data}
}

// File format constants and structures

const (
	BeginMagic = "Tomy" // 4B
	EndMagic   = "EndT" // 4B
)

type ColumnType byte

const (
	TypeInt64   ColumnType = 0x01
	TypeVarchar ColumnType = 0x02
)

func (t ColumnType) String() string {
	switch t {
	case TypeInt64:
		return "INT64"
	case TypeVarchar:
		return "VARCHAR"
	default:
		return "UNKNOWN"
	}
}

// ColumnTypeFromString is the inverse of ColumnType.String.
func ColumnTypeFromString(s string) (ColumnType, bool) {
	switch s {
	case "INT64":
		return TypeInt64, true
	case "VARCHAR":
		return TypeVarchar, true
	default:
		return 0, false
	}
}

type ColumnMetaData struct {
	Name           string
	Type           ColumnType
	DataOffset     int64
	CompressedSize int64
}

type FileMetaData struct {
	NumRows    uint64
	NumColumns uint64
	Columns    []ColumnMetaData
}
