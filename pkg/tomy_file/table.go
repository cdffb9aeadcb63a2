package tomy_file

import (
	"github.com/pkg/errors"
)

// Accessors used by frames wrapping a loaded table.

func (t *ColumnarTable) NumColumns() int { return len(t.Columns) }

func (t *ColumnarTable) RowCount() uint64 { return t.NumRows }

func (t *ColumnarTable) ColumnName(i int) string { return t.Columns[i].GetName() }

func (t *ColumnarTable) ColumnType(i int) ColumnType { return t.Columns[i].GetType() }

func (t *ColumnarTable) ColumnStorage(i int) AnyColumn { return t.Columns[i] }

// FindColumn returns the position of the first column called name, or -1.
func (t *ColumnarTable) FindColumn(name string) int {
	for i, c := range t.Columns {
		if c.GetName() == name {
			return i
		}
	}
	return -1
}

// Validate checks that every column holds exactly NumRows values and that
// varchar offsets stay inside their data.
func (t ColumnarTable) Validate() error {
	for _, col := range t.Columns {
		if uint64(col.GetNumRows()) != t.NumRows {
			return errors.Errorf("column %s has %d rows, table has %d", col.GetName(), col.GetNumRows(), t.NumRows)
		}
		var vc VarcharColumn
		switch c := col.(type) {
		case *VarcharColumn:
			vc = *c
		case VarcharColumn:
			vc = c
		default:
			continue
		}
		var prev uint64
		for i, off := range vc.Offsets {
			if off < prev || off > uint64(len(vc.Data)) {
				return errors.Errorf("column %s: invalid offset %d at row %d", vc.Name, off, i)
			}
			prev = off
		}
	}
	return nil
}

// Head returns a copy of the first n rows (all of them if n exceeds NumRows).
func (t *ColumnarTable) Head(n uint64) (*ColumnarTable, error) {
	if n > t.NumRows {
		n = t.NumRows
	}
	res := &ColumnarTable{
		NumRows: n,
		Columns: make([]AnyColumn, len(t.Columns)),
	}
	for i, col := range t.Columns {
		sliced, err := sliceColumn(col, 0, n)
		if err != nil {
			return nil, err
		}
		res.Columns[i] = sliced
	}
	return res, nil
}

// Concat merges tables sharing one schema into a single table.
func Concat(tables []*ColumnarTable) (*ColumnarTable, error) {
	if len(tables) == 0 {
		return nil, errors.New("nothing to concatenate")
	}
	if len(tables) == 1 {
		return tables[0], nil
	}

	first := tables[0]
	numCols := len(first.Columns)
	var totalRows uint64
	totalDataSizes := make([]int, numCols)

	for ti, t := range tables {
		if len(t.Columns) != numCols {
			return nil, errors.Errorf("table %d has %d columns, expected %d", ti, len(t.Columns), numCols)
		}
		totalRows += t.NumRows
		for i, col := range t.Columns {
			if col.GetName() != first.Columns[i].GetName() || col.GetType() != first.Columns[i].GetType() {
				return nil, errors.Errorf("table %d: column %d is %s %v, expected %s %v", ti, i,
					col.GetName(), col.GetType(), first.Columns[i].GetName(), first.Columns[i].GetType())
			}
			if vc, ok := asVarchar(col); ok {
				totalDataSizes[i] += len(vc.Data)
			}
		}
	}

	merged := &ColumnarTable{
		NumRows: totalRows,
		Columns: make([]AnyColumn, numCols),
	}
	for i := range numCols {
		name := first.Columns[i].GetName()
		switch first.Columns[i].GetType() {
		case TypeInt64:
			values := make([]int64, 0, totalRows)
			for _, t := range tables {
				ic, _ := asInt64(t.Columns[i])
				values = append(values, ic.Values...)
			}
			merged.Columns[i] = &Int64Column{Name: name, Values: values}
		case TypeVarchar:
			offsets := make([]uint64, 0, totalRows)
			data := make([]byte, 0, totalDataSizes[i])
			for _, t := range tables {
				vc, _ := asVarchar(t.Columns[i])
				base := uint64(len(data))
				for _, off := range vc.Offsets {
					offsets = append(offsets, off+base)
				}
				data = append(data, vc.Data...)
			}
			merged.Columns[i] = &VarcharColumn{Name: name, Offsets: offsets, Data: data}
		default:
			return nil, errors.Errorf("unsupported column type %v", first.Columns[i].GetType())
		}
	}
	return merged, nil
}

func asInt64(col AnyColumn) (Int64Column, bool) {
	switch c := col.(type) {
	case *Int64Column:
		return *c, true
	case Int64Column:
		return c, true
	}
	return Int64Column{}, false
}

func asVarchar(col AnyColumn) (VarcharColumn, bool) {
	switch c := col.(type) {
	case *VarcharColumn:
		return *c, true
	case VarcharColumn:
		return c, true
	}
	return VarcharColumn{}, false
}

func sliceColumn(col AnyColumn, start, count uint64) (AnyColumn, error) {
	if ic, ok := asInt64(col); ok {
		if start+count > uint64(len(ic.Values)) {
			return nil, errors.New("slice out of bounds for Int64Column")
		}
		newValues := make([]int64, count)
		copy(newValues, ic.Values[start:start+count])
		return &Int64Column{Name: ic.Name, Values: newValues}, nil
	}

	vc, ok := asVarchar(col)
	if !ok {
		return nil, errors.Errorf("unknown column type: %T", col)
	}
	if start+count > uint64(len(vc.Offsets)) {
		return nil, errors.New("slice out of bounds for VarcharColumn")
	}
	if count == 0 {
		return &VarcharColumn{Name: vc.Name, Offsets: []uint64{}, Data: []byte{}}, nil
	}

	dataStart := vc.Offsets[start]
	dataEnd := vc.NextOffset(int(start + count - 1))

	newData := make([]byte, dataEnd-dataStart)
	copy(newData, vc.Data[dataStart:dataEnd])

	newOffsets := make([]uint64, count)
	for i := range count {
		newOffsets[i] = vc.Offsets[start+i] - dataStart
	}

	return &VarcharColumn{Name: vc.Name, Offsets: newOffsets, Data: newData}, nil
}
