package pattern

// SampleTable is a window of tabular rows, such as the first samples of a
// spectrum or the entries of a catalog.
type SampleTable struct {
	Label   string
	Columns []string
	Rows    []SampleRow
	Total   int // rows available before truncation; 0 = len(Rows)
}

// SampleRow is one row of cells, aligned with SampleTable.Columns.
type SampleRow struct {
	Cells   []string
	Flagged bool // masked sample or failed entry
}

func (t *SampleTable) Type() PatternType { return PatternTypeSampleTable }

// Hidden reports how many rows were dropped from the window.
func (t *SampleTable) Hidden() int {
	if t.Total <= len(t.Rows) {
		return 0
	}
	return t.Total - len(t.Rows)
}
