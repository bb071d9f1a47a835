package mapper

import (
	"fmt"

	"github.com/dkoosis/specio/pkg/loader"
	"github.com/dkoosis/specio/pkg/pattern"
)

// FromError maps a failed read to an error pattern labelled with its loader
// error kind.
func FromError(source string, err error) []pattern.Pattern {
	return []pattern.Pattern{errorPattern(source, err)}
}

func errorPattern(source string, err error) *pattern.Error {
	return &pattern.Error{Source: source, Kind: KindName(err), Message: err.Error()}
}

// KindName names the loader error kind of err, or "error" when it has none.
func KindName(err error) string {
	if k := loader.KindOf(err); k != nil {
		return k.Error()
	}
	return "error"
}

// Detection is the outcome of detecting one file.
type Detection struct {
	Path   string
	Format string
	Err    error
}

// FromDetections maps per-file detection results to a summary.
func FromDetections(results []Detection) []pattern.Pattern {
	failed := 0
	items := make([]pattern.SummaryItem, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			failed++
			items = append(items, pattern.SummaryItem{Label: r.Path, Value: r.Err.Error(), Kind: pattern.KindError})
			continue
		}
		items = append(items, pattern.SummaryItem{Label: r.Path, Value: r.Format, Kind: pattern.KindSuccess})
	}
	label := fmt.Sprintf("DETECT: %d files", len(results))
	if failed > 0 {
		label += fmt.Sprintf(", %d undetected", failed)
	}
	return []pattern.Pattern{&pattern.Summary{
		Label:   label,
		Kind:    pattern.SummaryKindDetect,
		Metrics: items,
	}}
}
