package frame

import (
	"fmt"
	"slices"
)

// columnWindow is an append-only column log exposing its last width entries
// as the logical columns 0..width-1.
type columnWindow struct {
	log   []*Column
	width int
}

func newColumnWindow(cols []*Column) columnWindow {
	return columnWindow{log: cols, width: len(cols)}
}

// offset is the log position of logical column 0.
func (w *columnWindow) offset() int {
	return len(w.log) - w.width
}

func (w *columnWindow) at(i int) *Column {
	if i < 0 || i >= w.width {
		panic(fmt.Sprintf("column %d outside window of width %d", i, w.width))
	}
	return w.log[w.offset()+i]
}

// push appends entries to the log. The caller sets the new width.
func (w *columnWindow) push(cols ...*Column) {
	w.log = append(w.log, cols...)
}

// resize shrinks or grows the window; it must stay within the log.
func (w *columnWindow) resize(width int) {
	if width < 0 || width > len(w.log) {
		panic("column window larger than its log")
	}
	w.width = width
}

func (w *columnWindow) columns() []*Column {
	return slices.Clone(w.log[w.offset():])
}

// clone copies the log into a fresh backing array so that pushes on either
// copy never show through the other.
func (w *columnWindow) clone() columnWindow {
	return columnWindow{log: slices.Clone(w.log), width: w.width}
}
