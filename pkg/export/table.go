package export

// Table defines tabular export content shared by the CSV and PDF renderers.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Empty reports whether the table carries no data rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}
