package mapper

import (
	"fmt"
	"strconv"

	"github.com/dkoosis/specio/internal/catalog"
	"github.com/dkoosis/specio/pkg/pattern"
)

// FromCatalog maps catalog entries to a summary and an entry table.
func FromCatalog(path string, entries []catalog.Entry) []pattern.Pattern {
	failed := 0
	rows := make([]pattern.SampleRow, len(entries))
	for i, e := range entries {
		bad := e.Status == catalog.StatusError
		if bad {
			failed++
		}
		rows[i] = pattern.SampleRow{Cells: entryCells(e), Flagged: bad}
	}

	kind := pattern.KindSuccess
	if failed > 0 {
		kind = pattern.KindError
	}
	summary := &pattern.Summary{
		Label: "CATALOG: " + path,
		Kind:  pattern.SummaryKindCatalog,
		Metrics: []pattern.SummaryItem{
			{Label: "Entries", Value: strconv.Itoa(len(entries)), Kind: pattern.KindInfo},
			{Label: "Failed", Value: strconv.Itoa(failed), Kind: kind},
		},
	}
	if len(entries) == 0 {
		return []pattern.Pattern{summary}
	}
	return []pattern.Pattern{summary, &pattern.SampleTable{
		Label:   "Entries",
		Columns: []string{"path", "format", "status", "samples", "spectral axis", "indexed"},
		Rows:    rows,
	}}
}

func entryCells(e catalog.Entry) []string {
	if e.Status == catalog.StatusError {
		return []string{e.Path, e.Format, e.ErrorKind, "", e.Message, e.IndexedAt.Format("2006-01-02 15:04")}
	}
	axis := fmt.Sprintf("%s .. %s %s", formatValue(e.AxisMin), formatValue(e.AxisMax), e.AxisUnit)
	return []string{e.Path, e.Format, e.Status, strconv.Itoa(e.Samples), axis, e.IndexedAt.Format("2006-01-02 15:04")}
}
