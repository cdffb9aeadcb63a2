package frame

import "fmt"

// Transform is a column selection recorded on a blueprint frame instead of
// being applied. The set of implementations is closed.
//
// WindowOffset is the position in the column log of logical column 0 at the
// time the transform was recorded; source indices are relative to it. The
// transform's outputs are the NumOutputs log entries that directly precede
// the next transform's outputs (or the end of the log).
type Transform interface {
	NumOutputs() int
	fmt.Stringer
	isTransform()
}

// CopySingleColumn copies one logical column.
type CopySingleColumn struct {
	Source       int
	WindowOffset int
}

func (CopySingleColumn) NumOutputs() int { return 1 }
func (CopySingleColumn) isTransform()    {}

func (t CopySingleColumn) String() string {
	return fmt.Sprintf("copy_column(%d @%d)", t.Source, t.WindowOffset)
}

// CopyColumnSlice copies the listed logical columns, in order.
type CopyColumnSlice struct {
	Indices      *SliceList
	WindowOffset int
}

func (t CopyColumnSlice) NumOutputs() int { return int(t.Indices.Size()) }
func (CopyColumnSlice) isTransform()      {}

func (t CopyColumnSlice) String() string {
	return fmt.Sprintf("copy_slice(%s @%d)", t.Indices, t.WindowOffset)
}
