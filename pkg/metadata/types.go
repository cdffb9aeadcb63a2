package metadata

import (
	"os"
	"sync"

	"github.com/pkg/errors"
)

// FileEntry is one data file of a table. Snapshots hold references to it;
// the file is removed once the table dropped it and nobody reads it anymore.
type FileEntry struct {
	Path     string     `json:"path"`
	refCount int        `json:"-"`
	deleted  bool       `json:"-"` // no longer in the Metastore
	mu       sync.Mutex `json:"-"`
}

func (f *FileEntry) IncRef() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refCount++
}

func (f *FileEntry) DecRef() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refCount--
	return f.tryCleanup()
}

func (f *FileEntry) MarkDeleted() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = true
	return f.tryCleanup()
}

// must be called with the mutex held
func (f *FileEntry) tryCleanup() error {
	if f.deleted && f.refCount == 0 {
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "deleting file %s", f.Path)
		}
	}
	return nil
}

func FileNames(files []*FileEntry) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Path
	}
	return names
}

type ColumnType string

const (
	Int64Type   ColumnType = "INT64"
	VarcharType ColumnType = "VARCHAR"
)

func (t ColumnType) IsValid() bool {
	return t == Int64Type || t == VarcharType
}

type ColumnDef struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

type TableDef struct {
	Id      string       `json:"id"`
	Name    string       `json:"name"`
	Columns []ColumnDef  `json:"columns"`
	Files   []*FileEntry `json:"files"`
}

type Schema struct {
	Tables map[string]*TableDef `json:"tables"`
}
