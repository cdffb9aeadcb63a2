package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func newTestMetastore(t *testing.T, dir string) *Metastore {
	t.Helper()
	m, err := NewMetastore(dir)
	if err != nil {
		t.Fatalf("NewMetastore failed: %v", err)
	}
	return m
}

func TestMetastore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()

	m1 := newTestMetastore(t, tmpDir)
	cols := []ColumnDef{
		{Name: "id", Type: Int64Type},
		{Name: "name", Type: VarcharType},
	}
	tableId, err := m1.CreateTable("users", cols)
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	m2 := newTestMetastore(t, tmpDir)

	table, ok := m2.GetTableById(tableId)
	if !ok {
		t.Fatalf("Expected table with id %s to exist", tableId)
	}
	if table.Name != "users" {
		t.Errorf("Expected name 'users', got %s", table.Name)
	}
	if len(table.Columns) != 2 {
		t.Errorf("Expected 2 columns, got %d", len(table.Columns))
	}
	if _, ok := m2.GetTableByName("users"); !ok {
		t.Errorf("Expected lookup by name to work after reload")
	}
	if _, err := os.Stat(m1.FilePath + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("Expected no temporary file left behind, got %v", err)
	}
}

func TestMetastore_CorruptFile(t *testing.T) {
	tmpDir := t.TempDir()
	m := newTestMetastore(t, tmpDir)
	if err := os.WriteFile(m.FilePath, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewMetastore(tmpDir); err == nil {
		t.Errorf("Expected an error for a corrupt metastore file")
	}
}

func TestMetastore_CreateTwice(t *testing.T) {
	m := newTestMetastore(t, t.TempDir())
	if _, err := m.CreateTable("t1", nil); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	if _, err := m.CreateTable("t1", nil); !errors.Is(err, ErrTableExists) {
		t.Errorf("Expected ErrTableExists, got %v", err)
	}
}

func TestMetastore_DeleteTable(t *testing.T) {
	tmpDir := t.TempDir()

	m := newTestMetastore(t, tmpDir)
	tableId, err := m.CreateTable("t1", []ColumnDef{{Name: "a", Type: Int64Type}})
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	dummyFile := filepath.Join(tmpDir, "dummy.tomy")
	if err := os.WriteFile(dummyFile, []byte("data"), 0644); err != nil {
		t.Fatalf("Failed to create dummy file: %v", err)
	}
	if err := m.AddFile("t1", dummyFile); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}

	snapshot, err := m.GetTableSnapshot("t1")
	if err != nil {
		t.Fatalf("GetTableSnapshot failed: %v", err)
	}

	if err := m.DeleteTable("t1"); err != nil {
		t.Fatalf("DeleteTable failed: %v", err)
	}
	if _, err := os.Stat(dummyFile); err != nil {
		t.Fatalf("File must survive while a snapshot reads it: %v", err)
	}

	if err := snapshot.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(dummyFile); !os.IsNotExist(err) {
		t.Errorf("Dummy file should have been deleted, got err: %v", err)
	}

	m2 := newTestMetastore(t, tmpDir)
	if _, ok := m2.GetTableById(tableId); ok {
		t.Errorf("Table t1 should be deleted")
	}
	if err := m2.DeleteTable("t1"); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("Expected ErrTableNotFound, got %v", err)
	}
}

func TestMetastore_GetTables(t *testing.T) {
	m := newTestMetastore(t, t.TempDir())
	for _, name := range []string{"b", "a", "c"} {
		if _, err := m.CreateTable(name, nil); err != nil {
			t.Fatalf("CreateTable failed: %v", err)
		}
	}

	tables := m.GetTables()
	if len(tables) != 3 {
		t.Fatalf("Expected 3 tables, got %d", len(tables))
	}
	for i, name := range []string{"a", "b", "c"} {
		if tables[i].Name != name {
			t.Errorf("Expected %s at %d, got %s", name, i, tables[i].Name)
		}
	}
}

func TestMetastore_DeleteTableRemoveFailure(t *testing.T) {
	tmpDir := t.TempDir()
	m := newTestMetastore(t, tmpDir)
	if _, err := m.CreateTable("t1", []ColumnDef{{Name: "a", Type: Int64Type}}); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	// a non-empty directory cannot be removed with os.Remove
	stuck := filepath.Join(tmpDir, "stuck.tomy")
	if err := os.MkdirAll(filepath.Join(stuck, "child"), 0755); err != nil {
		t.Fatal(err)
	}
	plain := filepath.Join(tmpDir, "plain.tomy")
	if err := os.WriteFile(plain, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{stuck, plain} {
		if err := m.AddFile("t1", path); err != nil {
			t.Fatalf("AddFile failed: %v", err)
		}
	}

	if err := m.DeleteTable("t1"); err == nil {
		t.Fatalf("Expected DeleteTable to report the failed removal")
	}
	if _, ok := m.GetTableByName("t1"); ok {
		t.Errorf("Table t1 should be removed from the catalog")
	}
	if _, err := os.Stat(plain); !os.IsNotExist(err) {
		t.Errorf("Remaining files should still be deleted, got err: %v", err)
	}

	m2 := newTestMetastore(t, tmpDir)
	if _, ok := m2.GetTableByName("t1"); ok {
		t.Errorf("Table t1 should stay deleted after reload")
	}
}

// breakMetastoreFile makes every further save of m fail.
func breakMetastoreFile(t *testing.T, m *Metastore) {
	t.Helper()
	if err := os.Remove(m.FilePath); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(m.FilePath, "child"), 0755); err != nil {
		t.Fatal(err)
	}
}

func TestMetastore_AddFileSaveFailure(t *testing.T) {
	m := newTestMetastore(t, t.TempDir())
	if _, err := m.CreateTable("t1", nil); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	breakMetastoreFile(t, m)

	if err := m.AddFile("t1", "/nonexistent.tomy"); err == nil {
		t.Fatalf("Expected AddFile to fail when the catalog cannot be saved")
	}
	if n := m.GetTables()[0].NumFiles; n != 0 {
		t.Errorf("Expected the failed file to be rolled back, got %d files", n)
	}
}
