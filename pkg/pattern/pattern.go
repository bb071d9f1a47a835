// Package pattern defines the semantic data types specio renders.
// Patterns are pure data; renderers decide presentation.
package pattern

// PatternType identifies the kind of visualization pattern.
type PatternType string

const (
	PatternTypeSummary     PatternType = "summary"
	PatternTypeLeaderboard PatternType = "leaderboard"
	PatternTypeSampleTable PatternType = "sample-table"
	PatternTypeSparkline   PatternType = "sparkline"
	PatternTypeError       PatternType = "error"
)

// Pattern is the interface all visualization patterns implement.
// Patterns hold data; renderers decide how to present it.
type Pattern interface {
	Type() PatternType
}
