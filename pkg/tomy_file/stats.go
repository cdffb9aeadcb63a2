package tomy_file

type ColumnStats struct {
	Name string
	Type ColumnType
	Rows int
	// Mean is only set for INT64 columns.
	Mean float64
	// ASCII and Bytes are only set for VARCHAR columns.
	ASCII int
	Bytes int
}

// CalculateStats summarizes every column of the table.
func CalculateStats(table *ColumnarTable) []ColumnStats {
	res := make([]ColumnStats, len(table.Columns))
	for i, col := range table.Columns {
		st := ColumnStats{Name: col.GetName(), Type: col.GetType(), Rows: col.GetNumRows()}
		if ic, ok := asInt64(col); ok {
			var sum int64
			for _, v := range ic.Values {
				sum += v
			}
			if len(ic.Values) > 0 {
				st.Mean = float64(sum) / float64(len(ic.Values))
			}
		} else if vc, ok := asVarchar(col); ok {
			for _, b := range vc.Data {
				if b < 128 {
					st.ASCII++
				}
			}
			st.Bytes = len(vc.Data)
		}
		res[i] = st
	}
	return res
}
