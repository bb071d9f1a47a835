package pattern

// SummaryKind identifies what a summary describes so renderers can dispatch
// without inspecting labels.
type SummaryKind string

const (
	SummaryKindSpectrum SummaryKind = "spectrum"
	SummaryKindDetect   SummaryKind = "detect"
	SummaryKindCatalog  SummaryKind = "catalog"
	SummaryKindMetrics  SummaryKind = "metrics"
)

// Item kinds control coloring.
const (
	KindSuccess = "success"
	KindError   = "error"
	KindWarning = "warning"
	KindInfo    = "info"
)

// Summary represents high-level facts about one result.
type Summary struct {
	Label   string
	Kind    SummaryKind
	Metrics []SummaryItem
}

// SummaryItem is a single fact in a summary.
type SummaryItem struct {
	Label string // e.g., "Format", "Samples", "Spectral axis"
	Value string // formatted value
	Kind  string // "success", "error", "warning", "info"
}

func (s *Summary) Type() PatternType { return PatternTypeSummary }
