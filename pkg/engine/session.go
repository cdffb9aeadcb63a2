package engine

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"lazyframe/pkg/engine/frame"
	"lazyframe/pkg/metadata"
	"lazyframe/pkg/tomy_file"
)

var ErrFrameNotFound = errors.New("frame does not exist")

// Session binds frames to variable names. A bound frame is reachable from
// the session and from whoever asked for the binding, so it is always marked
// shared; operations on it produce new frames.
type Session struct {
	Metastore *metadata.Metastore
	Frames    map[string]*frame.Frame
	Mu        sync.RWMutex

	tablesDir string
	level     tomy_file.EncoderLevel
}

func NewSession(m *metadata.Metastore, baseDir string, level tomy_file.EncoderLevel) (*Session, error) {
	tablesDir := filepath.Join(baseDir, "tables")
	if err := os.MkdirAll(tablesDir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create tables directory")
	}

	return &Session{
		Metastore: m,
		Frames:    make(map[string]*frame.Frame),
		tablesDir: tablesDir,
		level:     level,
	}, nil
}

// Load reads every file of the table and binds the result to name. An empty
// name gets a generated one.
func (s *Session) Load(tableName, name string) (string, *frame.Frame, error) {
	table, err := s.readTable(tableName)
	if err != nil {
		return "", nil, err
	}
	if name == "" {
		name = "frame_" + uuid.NewString()
	}

	f := frame.New(table)

	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.bind(name, f)
	return name, f, nil
}

func (s *Session) readTable(tableName string) (*tomy_file.ColumnarTable, error) {
	snapshot, err := s.Metastore.GetTableSnapshot(tableName)
	if err != nil {
		return nil, err
	}
	defer snapshot.Release()

	if len(snapshot.Files) == 0 {
		return emptyTable(snapshot.Columns)
	}

	names := make([]string, len(snapshot.Columns))
	for i, c := range snapshot.Columns {
		names[i] = c.Name
	}

	parts := make([]*tomy_file.ColumnarTable, 0, len(snapshot.Files))
	for _, path := range metadata.FileNames(snapshot.Files) {
		part, err := tomy_file.DeserializeColumns(path, names)
		if err != nil {
			return nil, errors.Wrapf(err, "loading table %s", tableName)
		}
		parts = append(parts, part)
	}
	return tomy_file.Concat(parts)
}

func emptyTable(defs []metadata.ColumnDef) (*tomy_file.ColumnarTable, error) {
	table := &tomy_file.ColumnarTable{Columns: make([]tomy_file.AnyColumn, len(defs))}
	for i, def := range defs {
		switch def.Type {
		case metadata.Int64Type:
			table.Columns[i] = &tomy_file.Int64Column{Name: def.Name, Values: []int64{}}
		case metadata.VarcharType:
			table.Columns[i] = &tomy_file.VarcharColumn{Name: def.Name, Offsets: []uint64{}, Data: []byte{}}
		default:
			return nil, errors.Errorf("unsupported column type %s", def.Type)
		}
	}
	return table, nil
}

// Bind makes f reachable as name, replacing any previous binding.
func (s *Session) Bind(name string, f *frame.Frame) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.bind(name, f)
}

// Assumes write lock is held
func (s *Session) bind(name string, f *frame.Frame) {
	f.MarkShared()
	s.Frames[name] = f
}

func (s *Session) Get(name string) (*frame.Frame, error) {
	s.Mu.RLock()
	defer s.Mu.RUnlock()
	return s.get(name)
}

// Assumes lock is held
func (s *Session) get(name string) (*frame.Frame, error) {
	f, ok := s.Frames[name]
	if !ok {
		return nil, errors.Wrapf(ErrFrameNotFound, "frame %s", name)
	}
	return f, nil
}

// Keep selects columns of the frame bound to src and binds the result to
// dst. The source frame is left unchanged.
func (s *Session) Keep(src string, indices *frame.SliceList, dst string) (*frame.Frame, error) {
	return s.Pipeline(src, []*frame.SliceList{indices}, dst)
}

// Pipeline applies several selections in a row. Only the first one copies
// the source frame; the following ones work on the intermediate result in
// place since nothing else can see it.
func (s *Session) Pipeline(src string, steps []*frame.SliceList, dst string) (*frame.Frame, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	f, err := s.get(src)
	if err != nil {
		return nil, err
	}

	for i, indices := range steps {
		if i == 0 {
			f, err = f.KeepColumns(indices)
		} else {
			f, err = f.KeepColumnsInPlace(indices)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "step %d", i)
		}
	}

	s.bind(dst, f)
	return f, nil
}

// Find returns the index of the named column in the frame, or -1.
func (s *Session) Find(name, column string) (int, error) {
	f, err := s.Get(name)
	if err != nil {
		return -1, err
	}
	return f.FindColumn(column), nil
}

func (s *Session) Drop(name string) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if _, err := s.get(name); err != nil {
		return err
	}
	delete(s.Frames, name)
	return nil
}

// List returns the bound names in order.
func (s *Session) List() []string {
	s.Mu.RLock()
	defer s.Mu.RUnlock()

	names := make([]string, 0, len(s.Frames))
	for name := range s.Frames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Save writes the table behind a materialized frame as a new file of
// tableName, creating the table if needed. Blueprint frames cannot be saved.
func (s *Session) Save(name, tableName string) (string, error) {
	f, err := s.Get(name)
	if err != nil {
		return "", err
	}

	t, err := f.Unwrap()
	if err != nil {
		return "", errors.Wrapf(err, "frame %s", name)
	}
	table, ok := t.(*tomy_file.ColumnarTable)
	if !ok {
		return "", errors.Errorf("frame %s wraps a %T, which cannot be saved", name, t)
	}

	if _, exists := s.Metastore.GetTableByName(tableName); !exists {
		if _, err := s.Metastore.CreateTable(tableName, columnDefs(table)); err != nil {
			return "", err
		}
	}
	return s.Insert(tableName, table)
}

// Insert stores table as a new data file of tableName.
func (s *Session) Insert(tableName string, table *tomy_file.ColumnarTable) (string, error) {
	def, exists := s.Metastore.GetTableByName(tableName)
	if !exists {
		return "", errors.Wrapf(metadata.ErrTableNotFound, "table %s", tableName)
	}
	if err := checkSchema(def.Columns, table); err != nil {
		return "", errors.Wrapf(err, "table %s", tableName)
	}

	path := filepath.Join(s.tablesDir, tableName+"_"+uuid.NewString()+".tomy")
	if err := table.SerializeLevel(path, s.level); err != nil {
		return "", err
	}
	if err := s.Metastore.AddFile(tableName, path); err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			return "", errors.Wrapf(err, "registering %s (file left behind: %v)", path, rmErr)
		}
		return "", errors.Wrapf(err, "registering %s", path)
	}
	return path, nil
}

func columnDefs(table *tomy_file.ColumnarTable) []metadata.ColumnDef {
	defs := make([]metadata.ColumnDef, table.NumColumns())
	for i := range defs {
		defs[i] = metadata.ColumnDef{
			Name: table.ColumnName(i),
			Type: metadata.ColumnType(table.ColumnType(i).String()),
		}
	}
	return defs
}

func checkSchema(defs []metadata.ColumnDef, table *tomy_file.ColumnarTable) error {
	if len(defs) != table.NumColumns() {
		return errors.Errorf("expected %d columns, got %d", len(defs), table.NumColumns())
	}
	for i, def := range defs {
		if def.Name != table.ColumnName(i) || string(def.Type) != table.ColumnType(i).String() {
			return errors.Errorf("column %d: expected %s %s, got %s %s", i,
				def.Name, def.Type, table.ColumnName(i), table.ColumnType(i))
		}
	}
	return nil
}
