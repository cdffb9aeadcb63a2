package frame

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"lazyframe/pkg/tomy_file"
)

// Table is the materialized data a frame can wrap. *tomy_file.ColumnarTable
// implements it.
type Table interface {
	NumColumns() int
	RowCount() uint64
	ColumnName(i int) string
	ColumnType(i int) ColumnType
	ColumnStorage(i int) tomy_file.AnyColumn
	// FindColumn returns the index of the first column called name, or -1.
	FindColumn(name string) int
}

// Frame is a column view that is either materialized, a thin wrapper around
// a Table, or a blueprint: a log of column descriptors plus the transforms
// that would produce their data.
//
// A frame starts out exclusive: whoever holds it may let operations mutate
// it in place. Once MarkShared is called, operations leave it untouched and
// return a new frame instead.
type Frame struct {
	state     frameState
	nrows     uint64
	exclusive bool
}

// frameState is implemented by *stoneState and *blueprintState only.
type frameState interface {
	numCols() int
	clone() frameState
}

type stoneState struct {
	table Table
}

func (s *stoneState) numCols() int      { return s.table.NumColumns() }
func (s *stoneState) clone() frameState { return &stoneState{table: s.table} }

type blueprintState struct {
	window columnWindow
	ops    []Transform
}

func (s *blueprintState) numCols() int { return s.window.width }

func (s *blueprintState) clone() frameState {
	return &blueprintState{window: s.window.clone(), ops: slices.Clone(s.ops)}
}

// New wraps t without looking at its data.
func New(t Table) *Frame {
	return &Frame{
		state:     &stoneState{table: t},
		nrows:     t.RowCount(),
		exclusive: true,
	}
}

func (f *Frame) IsMaterialized() bool {
	_, ok := f.state.(*stoneState)
	return ok
}

// NumCols counts output columns only, never the ancestors kept in the log.
func (f *Frame) NumCols() int { return f.state.numCols() }

func (f *Frame) NumRows() uint64 { return f.nrows }

func (f *Frame) IsExclusive() bool { return f.exclusive }

// MarkShared records that more than one holder references f. It cannot be
// undone.
func (f *Frame) MarkShared() { f.exclusive = false }

// Column returns the descriptor of logical column i of a blueprint frame, or
// nil for a materialized frame, which has no descriptors.
func (f *Frame) Column(i int) *Column {
	bp, ok := f.state.(*blueprintState)
	if !ok {
		return nil
	}
	return bp.window.at(i)
}

// Type returns the type of column i. It never changes the frame's mode.
func (f *Frame) Type(i int) ColumnType {
	switch s := f.state.(type) {
	case *stoneState:
		return s.table.ColumnType(i)
	case *blueprintState:
		return s.window.at(i).Type()
	}
	panic("unreachable")
}

// ColumnName returns the name of column i in either mode.
func (f *Frame) ColumnName(i int) string {
	switch s := f.state.(type) {
	case *stoneState:
		return s.table.ColumnName(i)
	case *blueprintState:
		return s.window.at(i).Name()
	}
	panic("unreachable")
}

// FindColumn returns the index of the first column called name, or -1.
//
// On a blueprint frame this is a linear scan over the columns; callers
// resolving many names should build their own map.
func (f *Frame) FindColumn(name string) int {
	switch s := f.state.(type) {
	case *stoneState:
		return s.table.FindColumn(name)
	case *blueprintState:
		for i := 0; i < s.window.width; i++ {
			if s.window.at(i).Name() == name {
				return i
			}
		}
	}
	return -1
}

// Unwrap returns the table behind a materialized frame.
func (f *Frame) Unwrap() (Table, error) {
	s, ok := f.state.(*stoneState)
	if !ok {
		return nil, errors.WithStack(ErrInvalidUnwrap)
	}
	return s.table, nil
}

// KeepColumns returns a frame made of the listed columns of f, in order.
//
// If f is exclusive it is reused and returned; otherwise f is left as is and
// a new frame is returned. On error f is never modified.
func (f *Frame) KeepColumns(indices *SliceList) (*Frame, error) {
	target := f
	if !f.exclusive {
		target = f.clone()
	}
	return target.KeepColumnsInPlace(indices)
}

// KeepColumnsInPlace is KeepColumns for callers that know they hold the only
// reference to f. It fails with ErrOwnershipViolation on a shared frame.
func (f *Frame) KeepColumnsInPlace(indices *SliceList) (*Frame, error) {
	if !f.exclusive {
		return nil, errors.WithStack(ErrOwnershipViolation)
	}
	if err := checkBounds(indices, f.NumCols()); err != nil {
		return nil, err
	}

	switch s := f.state.(type) {
	case *stoneState:
		// The selection may reorder or repeat columns, so the result can no
		// longer be the table itself.
		cols := make([]*Column, 0, indices.Size())
		for idx := range indices.All() {
			cols = append(cols, NewColumnFromTable(s.table, int(idx)))
		}
		f.state = &blueprintState{window: newColumnWindow(cols)}

	case *blueprintState:
		s.keep(indices)
	}
	return f, nil
}

func (s *blueprintState) keep(indices *SliceList) {
	size := int(indices.Size())

	// A trailing run is already the suffix of the log.
	if size == 0 || (indices.IsDense() && indices.First() >= 0 && int(indices.First())+size == s.window.width) {
		s.window.resize(size)
		return
	}

	offset := s.window.offset()
	cols := make([]*Column, 0, size)
	for idx := range indices.All() {
		src := s.window.log[offset+int(idx)]
		cols = append(cols, NewColumn(src.Name(), src.Type()))
	}
	s.window.push(cols...)
	s.window.resize(size)

	if size == 1 {
		s.ops = append(s.ops, CopySingleColumn{Source: int(indices.First()), WindowOffset: offset})
	} else {
		s.ops = append(s.ops, CopyColumnSlice{Indices: indices.Clone(), WindowOffset: offset})
	}
}

func checkBounds(indices *SliceList, ncols int) error {
	for idx := range indices.All() {
		if idx < 0 || idx >= int64(ncols) {
			return errors.Wrapf(ErrIndexOutOfRange, "column index %d is out of bounds [0, %d)", idx, ncols)
		}
	}
	return nil
}

func (f *Frame) clone() *Frame {
	return &Frame{
		state:     f.state.clone(),
		nrows:     f.nrows,
		exclusive: true,
	}
}

// Transforms returns the pending transforms of a blueprint frame, oldest
// first.
func (f *Frame) Transforms() []Transform {
	if bp, ok := f.state.(*blueprintState); ok {
		return slices.Clone(bp.ops)
	}
	return nil
}

// LogSize is the number of descriptors in the column log, including columns
// no longer visible. Zero for materialized frames.
func (f *Frame) LogSize() int {
	if bp, ok := f.state.(*blueprintState); ok {
		return len(bp.window.log)
	}
	return 0
}

// Columns returns the visible descriptors of a blueprint frame.
func (f *Frame) Columns() []*Column {
	if bp, ok := f.state.(*blueprintState); ok {
		return bp.window.columns()
	}
	return nil
}

func (f *Frame) String() string {
	var sb strings.Builder
	mode := "blueprint"
	if f.IsMaterialized() {
		mode = "materialized"
	}
	fmt.Fprintf(&sb, "Frame(%s, %d cols x %d rows", mode, f.NumCols(), f.nrows)
	if !f.exclusive {
		sb.WriteString(", shared")
	}
	if ops := f.Transforms(); len(ops) > 0 {
		fmt.Fprintf(&sb, ", %d pending:", len(ops))
		for _, op := range ops {
			sb.WriteString(" ")
			sb.WriteString(op.String())
		}
	}
	sb.WriteString(")")
	return sb.String()
}
