package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"

	"lazyframe/pkg/engine/frame"
	"lazyframe/pkg/tomy_file"
)

var (
	app = kingpin.New("tomy-gen", "Generate and inspect tomy files.")

	generateCmd = app.Command("generate", "Write a file of sample log rows.")
	genOut      = generateCmd.Flag("out", "Output file.").Short('o').Default("example_data.tomy").String()
	genRows     = generateCmd.Flag("rows", "Number of rows to generate.").Default("100000").Uint64()
	genLevel    = generateCmd.Flag("level", "zstd encoder level (fastest, default, better, best).").Default("default").String()

	inspectCmd   = app.Command("inspect", "Print the shape and statistics of a file.")
	inspectFile  = inspectCmd.Arg("file", "File to read.").Required().ExistingFile()
	inspectNames = inspectCmd.Flag("column", "Only read the named column. Repeatable.").Short('c').Strings()
	inspectKeep  = inspectCmd.Flag("keep", `Column selection to apply, e.g. "0:2, 3".`).String()
)

func main() {
	switch kingpin.MustParse(app.Parse(os.Args[1:])) {
	case generateCmd.FullCommand():
		level, err := tomy_file.ParseEncoderLevel(*genLevel)
		app.FatalIfError(err, "")
		app.FatalIfError(generate(*genOut, *genRows, level), "generation failed")
	case inspectCmd.FullCommand():
		app.FatalIfError(inspect(*inspectFile, *inspectNames, *inspectKeep), "inspection failed")
	}
}

func generate(path string, rows uint64, level tomy_file.EncoderLevel) error {
	fmt.Printf("Generating %s rows of data...\n", humanize.Comma(int64(rows)))
	table := generateTable(rows)
	printStats(table)

	fmt.Printf("Saving to '%s'...\n", path)
	if err := table.SerializeLevel(path, level); err != nil {
		return err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	fmt.Printf("File generated successfully. Size: %s\n", humanize.IBytes(uint64(fi.Size())))
	return nil
}

func inspect(path string, names []string, keep string) error {
	fmt.Printf("Reading from '%s'...\n", path)
	var (
		table *tomy_file.ColumnarTable
		err   error
	)
	if len(names) > 0 {
		table, err = tomy_file.DeserializeColumns(path, names)
	} else {
		table, err = tomy_file.Deserialize(path)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %s rows.\n", humanize.Comma(int64(table.NumRows)))
	printStats(table)

	if keep == "" {
		return nil
	}
	indices, err := frame.ParseSliceList(keep)
	if err != nil {
		return err
	}
	f, err := frame.New(table).KeepColumns(indices)
	if err != nil {
		return err
	}
	fmt.Println(f)
	for i := range f.NumCols() {
		fmt.Printf("  %d: %s %s\n", i, f.ColumnName(i), f.Type(i))
	}
	return nil
}

func printStats(table *tomy_file.ColumnarTable) {
	for _, st := range tomy_file.CalculateStats(table) {
		switch st.Type {
		case tomy_file.TypeInt64:
			fmt.Printf("[INT64] Column '%s': Mean = %.4f\n", st.Name, st.Mean)
		case tomy_file.TypeVarchar:
			fmt.Printf("[VARCHAR] Column '%s': ASCII Char Count = %d (Total: %s)\n", st.Name, st.ASCII, humanize.Bytes(uint64(st.Bytes)))
		}
	}
}

func generateTable(rows uint64) *tomy_file.ColumnarTable {
	timestamps := make([]int64, rows)
	values := make([]int64, rows)
	hosts := make([]string, rows)
	levels := make([]string, rows)

	hostNames := []string{"192.168.1.1", "10.0.0.1", "localhost", "db-server", "app-node-01"}
	levelNames := []string{"INFO", "WARN", "ERROR", "DEBUG"}

	start := time.Now().Unix()
	for i := range rows {
		timestamps[i] = start + int64(i)
		values[i] = int64(rand.Intn(10000))
		hosts[i] = hostNames[rand.Intn(len(hostNames))]
		levels[i] = levelNames[rand.Intn(len(levelNames))]
	}
	return &tomy_file.ColumnarTable{
		NumRows: rows,
		Columns: []tomy_file.AnyColumn{
			&tomy_file.Int64Column{Name: "timestamp", Values: timestamps},
			&tomy_file.Int64Column{Name: "value", Values: values},
			tomy_file.VarcharColumnFromStrings("host", hosts),
			tomy_file.VarcharColumnFromStrings("log_level", levels),
		},
	}
}
