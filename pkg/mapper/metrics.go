package mapper

import (
	"fmt"
	"sort"

	"github.com/dkoosis/specio/internal/metrics"
	"github.com/dkoosis/specio/pkg/pattern"
)

// FromMetrics maps a batch report to a summary, a leaderboard of formats by
// file count and one error pattern per failed file.
func FromMetrics(r *metrics.Report) []pattern.Pattern {
	overall, _ := r.Row(metrics.OverallRow)
	failures := int(overall.Value("failures"))

	failKind := pattern.KindSuccess
	if failures > 0 {
		failKind = pattern.KindError
	}
	out := []pattern.Pattern{&pattern.Summary{
		Label: "INDEX: " + r.Scope,
		Kind:  pattern.SummaryKindMetrics,
		Metrics: []pattern.SummaryItem{
			{Label: "Files", Value: fmt.Sprintf("%.0f", overall.Value("files")), Kind: pattern.KindInfo},
			{Label: "Samples", Value: fmt.Sprintf("%.0f", overall.Value("samples")), Kind: pattern.KindInfo},
			{Label: "Failures", Value: fmt.Sprintf("%d", failures), Kind: failKind},
		},
	}}

	var items []pattern.LeaderboardItem
	for _, row := range r.Rows {
		if row.Name == metrics.OverallRow {
			continue
		}
		files := row.Value("files")
		items = append(items, pattern.LeaderboardItem{
			Name:    row.Name,
			Metric:  fmt.Sprintf("%.0f files", files),
			Value:   files,
			Context: fmt.Sprintf("%.0f samples", row.Value("samples")),
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Value > items[j].Value })
	for i := range items {
		items[i].Rank = i + 1
	}
	if len(items) > 0 {
		out = append(out, &pattern.Leaderboard{
			Label:      "Formats",
			MetricName: "Files",
			Items:      items,
			TotalCount: len(items),
			ShowRank:   true,
		})
	}

	for _, f := range r.Failures {
		out = append(out, &pattern.Error{Source: f.Path, Kind: f.Kind, Message: f.Message})
	}
	return out
}
