package tomy_file

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func newExampleTable(start, count int) *ColumnarTable {
	return &ColumnarTable{
		NumRows: uint64(count),
		Columns: []AnyColumn{
			makeInt64Column("id", start, count),
			makeVarcharColumn("name", "row", start, count), // row{start}..row{start+count-1}
		},
	}
}

func makeInt64Column(name string, start, count int) *Int64Column {
	values := make([]int64, count)
	for i := range count {
		values[i] = int64(start + i)
	}
	return &Int64Column{Name: name, Values: values}
}

func makeVarcharColumn(name, prefix string, start, count int) *VarcharColumn {
	values := make([]string, count)
	for i := range count {
		values[i] = fmt.Sprintf("%s%d", prefix, start+i)
	}
	return VarcharColumnFromStrings(name, values)
}

func TestEndToEnd(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "test_file.tomy")
	table := newExampleTable(100, 1000)

	if err := table.Serialize(filePath); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	readTable, err := Deserialize(filePath)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	if readTable.NumRows != 1000 {
		t.Errorf("Expected 1000 rows, got %d", readTable.NumRows)
	}
	if len(readTable.Columns) != 2 {
		t.Fatalf("Expected 2 columns, got %d", len(readTable.Columns))
	}
	if !reflect.DeepEqual(readTable.Columns[0].(*Int64Column).Values, table.Columns[0].(*Int64Column).Values) {
		t.Errorf("Column 'id' data mismatch")
	}
	if !reflect.DeepEqual(readTable.Columns[1].(*VarcharColumn).ValuesAsStrings(), table.Columns[1].(*VarcharColumn).ValuesAsStrings()) {
		t.Errorf("Column 'name' data mismatch")
	}
	if readTable.ColumnName(1) != "name" || readTable.ColumnType(1) != TypeVarchar {
		t.Errorf("unexpected column 1: %s %v", readTable.ColumnName(1), readTable.ColumnType(1))
	}
}

func TestDeserializeColumns(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "cols.tomy")
	if err := newExampleTable(0, 10).SerializeLevel(filePath, DefaultEncoderLevel); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	table, err := DeserializeColumns(filePath, []string{"name", "id"})
	if err != nil {
		t.Fatalf("DeserializeColumns failed: %v", err)
	}
	if table.ColumnName(0) != "name" || table.ColumnName(1) != "id" {
		t.Errorf("columns not in requested order: %s, %s", table.ColumnName(0), table.ColumnName(1))
	}

	if _, err := DeserializeColumns(filePath, []string{"missing"}); err == nil {
		t.Errorf("expected error for a missing column")
	}
}

func TestDeserialize_Corrupted(t *testing.T) {
	dir := t.TempDir()
	tests := map[string][]byte{
		"empty":     {},
		"bad begin": []byte("Nope....EndT"),
		"bad end":   []byte("Tomy12345678Nope"),
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(dir, name+".tomy")
			if err := os.WriteFile(p, content, 0644); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
			if _, err := Deserialize(p); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	table := newExampleTable(0, 3)
	if err := table.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	table.NumRows = 4
	if err := table.Validate(); err == nil {
		t.Errorf("expected row count mismatch")
	}

	bad := &ColumnarTable{
		NumRows: 2,
		Columns: []AnyColumn{&VarcharColumn{Name: "v", Offsets: []uint64{0, 10}, Data: []byte("abc")}},
	}
	if err := bad.Serialize(filepath.Join(t.TempDir(), "bad.tomy")); err == nil {
		t.Errorf("expected Serialize to reject invalid offsets")
	}
}

func TestFindColumn(t *testing.T) {
	table := newExampleTable(0, 1)
	if idx := table.FindColumn("name"); idx != 1 {
		t.Errorf("expected 1, got %d", idx)
	}
	if idx := table.FindColumn("nope"); idx != -1 {
		t.Errorf("expected -1, got %d", idx)
	}
}

func TestConcat(t *testing.T) {
	merged, err := Concat([]*ColumnarTable{newExampleTable(0, 2), newExampleTable(2, 3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if merged.NumRows != 5 {
		t.Errorf("invalid row count %d", merged.NumRows)
	}
	expectedIds := []int64{0, 1, 2, 3, 4}
	if !reflect.DeepEqual(merged.Columns[0].(*Int64Column).Values, expectedIds) {
		t.Errorf("ids not equal")
	}

	textCol := merged.Columns[1].(*VarcharColumn)
	expectedStrings := []string{"row0", "row1", "row2", "row3", "row4"}
	if !reflect.DeepEqual(textCol.ValuesAsStrings(), expectedStrings) {
		t.Errorf("strings not equal: %v", textCol.ValuesAsStrings())
	}
	if !reflect.DeepEqual(textCol.Offsets, []uint64{0, 4, 8, 12, 16}) {
		t.Errorf("bad offsets %v", textCol.Offsets)
	}

	other := &ColumnarTable{NumRows: 1, Columns: []AnyColumn{makeInt64Column("x", 0, 1), makeInt64Column("y", 0, 1)}}
	if _, err := Concat([]*ColumnarTable{newExampleTable(0, 1), other}); err == nil {
		t.Errorf("expected schema mismatch error")
	}
}

func TestHead(t *testing.T) {
	table := newExampleTable(10, 5)

	head, err := table.Head(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if head.NumRows != 2 {
		t.Errorf("expected 2 rows, got %d", head.NumRows)
	}
	if got := head.Columns[1].(*VarcharColumn).ValuesAsStrings(); !reflect.DeepEqual(got, []string{"row10", "row11"}) {
		t.Errorf("unexpected values %v", got)
	}

	all, err := table.Head(50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if all.NumRows != 5 {
		t.Errorf("expected 5 rows, got %d", all.NumRows)
	}
}

func TestCalculateStats(t *testing.T) {
	stats := CalculateStats(newExampleTable(0, 4))
	if len(stats) != 2 {
		t.Fatalf("expected 2 column stats, got %d", len(stats))
	}
	if stats[0].Mean != 1.5 || stats[0].Rows != 4 || stats[0].Type != TypeInt64 {
		t.Errorf("unexpected INT64 stats: %+v", stats[0])
	}
	if stats[1].Bytes != 16 || stats[1].ASCII != 16 || stats[1].Type != TypeVarchar {
		t.Errorf("unexpected VARCHAR stats: %+v", stats[1])
	}
}
