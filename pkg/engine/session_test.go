package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lazyframe/pkg/engine/frame"
	"lazyframe/pkg/metadata"
	"lazyframe/pkg/tomy_file"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	dir := t.TempDir()
	m, err := metadata.NewMetastore(dir)
	require.NoError(t, err)
	s, err := NewSession(m, dir, tomy_file.DefaultEncoderLevel)
	require.NoError(t, err)
	return s
}

func peopleTable(start int64, names ...string) *tomy_file.ColumnarTable {
	ids := make([]int64, len(names))
	ages := make([]int64, len(names))
	for i := range names {
		ids[i] = start + int64(i)
		ages[i] = 20 + start + int64(i)
	}
	return &tomy_file.ColumnarTable{
		NumRows: uint64(len(names)),
		Columns: []tomy_file.AnyColumn{
			&tomy_file.Int64Column{Name: "id", Values: ids},
			tomy_file.VarcharColumnFromStrings("name", names),
			&tomy_file.Int64Column{Name: "age", Values: ages},
		},
	}
}

// withPeople registers a "people" table made of two files.
func withPeople(t *testing.T, s *Session) {
	t.Helper()
	_, err := s.Metastore.CreateTable("people", []metadata.ColumnDef{
		{Name: "id", Type: metadata.Int64Type},
		{Name: "name", Type: metadata.VarcharType},
		{Name: "age", Type: metadata.Int64Type},
	})
	require.NoError(t, err)
	_, err = s.Insert("people", peopleTable(0, "Jacek", "Wrona"))
	require.NoError(t, err)
	_, err = s.Insert("people", peopleTable(2, "foo"))
	require.NoError(t, err)
}

func TestSession_Load(t *testing.T) {
	s := newTestSession(t)
	withPeople(t, s)

	name, f, err := s.Load("people", "p")
	require.NoError(t, err)
	assert.Equal(t, "p", name)
	assert.True(t, f.IsMaterialized())
	assert.False(t, f.IsExclusive(), "bound frames are shared")
	assert.Equal(t, uint64(3), f.NumRows())
	assert.Equal(t, 3, f.NumCols())

	preview, err := s.Preview("p", 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), preview.RowCount)
	assert.Equal(t, []string{"Jacek", "Wrona"}, preview.Columns[1])

	anon, _, err := s.Load("people", "")
	require.NoError(t, err)
	assert.Contains(t, s.List(), anon)

	_, _, err = s.Load("nope", "x")
	assert.True(t, errors.Is(err, metadata.ErrTableNotFound))
}

func TestSession_LoadEmptyTable(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Metastore.CreateTable("empty", []metadata.ColumnDef{{Name: "a", Type: metadata.VarcharType}})
	require.NoError(t, err)

	_, f, err := s.Load("empty", "e")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), f.NumRows())
	assert.Equal(t, tomy_file.TypeVarchar, f.Type(0))
}

func TestSession_Keep(t *testing.T) {
	s := newTestSession(t)
	withPeople(t, s)
	_, src, err := s.Load("people", "p")
	require.NoError(t, err)

	res, err := s.Keep("p", frame.NewSliceList(2, 0), "q")
	require.NoError(t, err)
	assert.NotSame(t, src, res)
	assert.True(t, src.IsMaterialized(), "source binding is untouched")
	assert.False(t, res.IsExclusive())

	info, err := s.Describe("q")
	require.NoError(t, err)
	assert.False(t, info.Materialized)
	assert.Equal(t, []ColumnInfo{{Name: "age", Type: "INT64"}, {Name: "id", Type: "INT64"}}, info.Columns)

	// a blueprint bound frame is copied, not mutated
	_, err = s.Keep("q", frame.NewSliceList(1, 0), "r")
	require.NoError(t, err)
	q, err := s.Get("q")
	require.NoError(t, err)
	assert.Equal(t, 2, q.LogSize())
	assert.Empty(t, q.Transforms())

	r, err := s.Describe("r")
	require.NoError(t, err)
	assert.Equal(t, []ColumnInfo{{Name: "id", Type: "INT64", Synthetic: true}, {Name: "age", Type: "INT64", Synthetic: true}}, r.Columns)
	assert.Equal(t, []string{"copy_slice([1, 0] @0)"}, r.Pending)

	_, err = s.Keep("p", frame.NewSliceList(5), "bad")
	assert.True(t, errors.Is(err, frame.ErrIndexOutOfRange))
	assert.NotContains(t, s.List(), "bad")
}

func TestSession_Pipeline(t *testing.T) {
	s := newTestSession(t)
	withPeople(t, s)
	_, _, err := s.Load("people", "p")
	require.NoError(t, err)

	f, err := s.Pipeline("p", []*frame.SliceList{
		frame.NewRange(0, 3),
		frame.NewRange(1, 3),     // suffix: nothing recorded
		frame.NewSliceList(1, 0), // reorder
		frame.NewSliceList(0),    // single, not trailing
	}, "out")
	require.NoError(t, err)

	assert.Equal(t, 1, f.NumCols())
	assert.Equal(t, "age", f.ColumnName(0))
	assert.Equal(t, 6, f.LogSize())
	require.Len(t, f.Transforms(), 2)
	assert.IsType(t, frame.CopyColumnSlice{}, f.Transforms()[0])
	assert.IsType(t, frame.CopySingleColumn{}, f.Transforms()[1])

	_, err = s.Pipeline("missing", nil, "x")
	assert.True(t, errors.Is(err, ErrFrameNotFound))
}

func TestSession_Find(t *testing.T) {
	s := newTestSession(t)
	withPeople(t, s)
	_, _, err := s.Load("people", "p")
	require.NoError(t, err)
	_, err = s.Keep("p", frame.NewSliceList(1, 2), "q")
	require.NoError(t, err)

	idx, err := s.Find("p", "age")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	idx, err = s.Find("q", "age")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	idx, err = s.Find("q", "id")
	require.NoError(t, err)
	assert.Equal(t, -1, idx)
}

func TestSession_Save(t *testing.T) {
	s := newTestSession(t)
	withPeople(t, s)
	_, _, err := s.Load("people", "p")
	require.NoError(t, err)

	path, err := s.Save("p", "people_copy")
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, f, err := s.Load("people_copy", "c")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), f.NumRows())

	_, err = s.Keep("p", frame.NewRange(0, 2), "q")
	require.NoError(t, err)
	_, err = s.Save("q", "other")
	assert.True(t, errors.Is(err, frame.ErrInvalidUnwrap))
	_, exists := s.Metastore.GetTableByName("other")
	assert.False(t, exists)

	_, err = s.Preview("q", 1)
	assert.True(t, errors.Is(err, frame.ErrInvalidUnwrap))
}

func TestSession_InsertSchemaMismatch(t *testing.T) {
	s := newTestSession(t)
	withPeople(t, s)

	bad := &tomy_file.ColumnarTable{
		NumRows: 1,
		Columns: []tomy_file.AnyColumn{&tomy_file.Int64Column{Name: "id", Values: []int64{1}}},
	}
	_, err := s.Insert("people", bad)
	assert.Error(t, err)

	_, err = s.Insert("nope", bad)
	assert.True(t, errors.Is(err, metadata.ErrTableNotFound))
}

func TestSession_Drop(t *testing.T) {
	s := newTestSession(t)
	withPeople(t, s)
	_, _, err := s.Load("people", "p")
	require.NoError(t, err)

	require.NoError(t, s.Drop("p"))
	assert.Empty(t, s.List())
	assert.True(t, errors.Is(s.Drop("p"), ErrFrameNotFound))
}

func TestFromColumnarResult(t *testing.T) {
	res := &ColumnarResult{
		RowCount: 2,
		Columns:  []any{[]any{float64(1), float64(2)}, []any{"a", "b"}},
	}
	table, err := FromColumnarResult([]string{"id", "s"}, []tomy_file.ColumnType{tomy_file.TypeInt64, tomy_file.TypeVarchar}, res)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, table.Columns[0].(*tomy_file.Int64Column).Values)

	res.Columns[0] = []any{1.5, float64(2)}
	_, err = FromColumnarResult([]string{"id", "s"}, []tomy_file.ColumnType{tomy_file.TypeInt64, tomy_file.TypeVarchar}, res)
	assert.Error(t, err)

	res.RowCount = 3
	res.Columns[0] = []any{float64(1), float64(2)}
	_, err = FromColumnarResult([]string{"id", "s"}, []tomy_file.ColumnType{tomy_file.TypeInt64, tomy_file.TypeVarchar}, res)
	assert.Error(t, err, "row count mismatch")
}

func TestSession_Bind(t *testing.T) {
	s := newTestSession(t)
	f := frame.New(peopleTable(0, "a", "b"))
	require.True(t, f.IsExclusive())

	s.Bind("x", f)
	assert.False(t, f.IsExclusive())

	got, err := s.Get("x")
	require.NoError(t, err)
	assert.Same(t, f, got)

	kept, err := got.KeepColumns(frame.NewSliceList(1))
	require.NoError(t, err)
	assert.NotSame(t, f, kept)
	assert.True(t, f.IsMaterialized())
	assert.Equal(t, []string{"x"}, s.List())
}

func TestSession_InsertRegisterFailure(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Metastore.CreateTable("people", columnDefs(peopleTable(0, "a")))
	require.NoError(t, err)

	// a non-empty directory in place of the catalog file makes saves fail
	require.NoError(t, os.Remove(s.Metastore.FilePath))
	require.NoError(t, os.MkdirAll(filepath.Join(s.Metastore.FilePath, "child"), 0755))

	_, err = s.Insert("people", peopleTable(0, "a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registering")

	entries, err := os.ReadDir(s.tablesDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "the data file is removed again")
	assert.Zero(t, s.Metastore.GetTables()[0].NumFiles)
}
