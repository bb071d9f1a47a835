package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/dkoosis/specio/pkg/pattern"
)

const maxCellWidth = 40

// Terminal renders patterns as styled terminal output via lipgloss.
type Terminal struct {
	theme Theme
	width int
}

// NewTerminal creates a terminal renderer with the given theme.
func NewTerminal(theme Theme, width int) *Terminal {
	if width <= 0 {
		width = 80
	}
	return &Terminal{theme: theme, width: width}
}

// Render formats all patterns for terminal display.
func (t *Terminal) Render(patterns []pattern.Pattern) string {
	var sections []string
	for _, p := range patterns {
		s := t.renderOne(p)
		if s != "" {
			sections = append(sections, s)
		}
	}
	return strings.Join(sections, "\n")
}

func (t *Terminal) renderOne(p pattern.Pattern) string {
	switch v := p.(type) {
	case *pattern.Summary:
		return t.renderSummary(v)
	case *pattern.Leaderboard:
		return t.renderLeaderboard(v)
	case *pattern.SampleTable:
		return t.renderSampleTable(v)
	case *pattern.Sparkline:
		return t.renderSparkline(v)
	case *pattern.Error:
		return t.renderError(v)
	default:
		return ""
	}
}

func (t *Terminal) renderSummary(s *pattern.Summary) string {
	var sb strings.Builder
	if s.Label != "" {
		sb.WriteString(t.theme.Bold.Render(s.Label))
		sb.WriteString("\n")
	}
	maxLabel := 0
	for _, m := range s.Metrics {
		maxLabel = max(maxLabel, runewidth.StringWidth(m.Label))
	}
	for _, m := range s.Metrics {
		sb.WriteString("  ")
		icon, style := t.iconStyle(m.Kind)
		sb.WriteString(style.Render(icon + " " + padRight(m.Label+":", maxLabel+1) + " " + m.Value))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) renderLeaderboard(l *pattern.Leaderboard) string {
	if len(l.Items) == 0 {
		return ""
	}
	var sb strings.Builder
	if l.Label != "" {
		header := l.Label
		if l.TotalCount > len(l.Items) {
			header += fmt.Sprintf(" (top %d of %d)", len(l.Items), l.TotalCount)
		}
		sb.WriteString(t.theme.Bold.Render(header))
		sb.WriteString("\n")
	}

	maxName, maxMetric := 0, 0
	for _, item := range l.Items {
		maxName = max(maxName, runewidth.StringWidth(item.Name))
		maxMetric = max(maxMetric, runewidth.StringWidth(item.Metric))
	}
	maxName = min(maxName, 50)

	for _, item := range l.Items {
		sb.WriteString("  ")
		if l.ShowRank {
			sb.WriteString(t.theme.Muted.Render(fmt.Sprintf("%2d. ", item.Rank)))
		}
		sb.WriteString(t.theme.Primary.Render(padRight(truncate(item.Name, maxName), maxName)))
		sb.WriteString("  ")
		sb.WriteString(t.theme.Warning.Render(padLeft(item.Metric, maxMetric)))
		if item.Context != "" {
			sb.WriteString(t.theme.Muted.Render("  " + item.Context))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) renderSampleTable(st *pattern.SampleTable) string {
	if len(st.Rows) == 0 {
		return ""
	}
	var sb strings.Builder
	if st.Label != "" {
		sb.WriteString(t.theme.Bold.Render(st.Label))
		sb.WriteString("\n")
	}

	widths := make([]int, len(st.Columns))
	for i, c := range st.Columns {
		widths[i] = runewidth.StringWidth(c)
	}
	for _, r := range st.Rows {
		for i, c := range r.Cells {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(c))
			}
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], maxCellWidth)
	}

	header := make([]string, len(st.Columns))
	for i, c := range st.Columns {
		header[i] = padRight(truncate(c, widths[i]), widths[i])
	}
	sb.WriteString("    ")
	sb.WriteString(t.theme.Muted.Render(strings.Join(header, "  ")))
	sb.WriteString("\n")

	for _, r := range st.Rows {
		cells := make([]string, len(widths))
		for i := range widths {
			var c string
			if i < len(r.Cells) {
				c = r.Cells[i]
			}
			cells[i] = padLeft(truncate(c, widths[i]), widths[i])
		}
		line := strings.Join(cells, "  ")
		if r.Flagged {
			sb.WriteString("  " + t.theme.Warning.Render(t.theme.Icons.Warn+" "+line))
		} else {
			sb.WriteString("    " + line)
		}
		sb.WriteString("\n")
	}
	if n := st.Hidden(); n > 0 {
		sb.WriteString(t.theme.Muted.Render(fmt.Sprintf("    %s %d more", t.theme.Icons.Bullet, n)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) renderSparkline(s *pattern.Sparkline) string {
	if len(s.Values) == 0 {
		return ""
	}
	var sb strings.Builder
	if s.Label != "" {
		sb.WriteString(t.theme.Primary.Render(s.Label + ": "))
	}
	sb.WriteString(t.theme.Success.Render(Spark(s.Values, s.Min, s.Max)))

	lo, hi := finiteRange(s.Values)
	sb.WriteString(t.theme.Muted.Render(fmt.Sprintf(" %.4g..%.4g %s", lo, hi, s.Unit)))
	sb.WriteString("\n")
	return sb.String()
}

func (t *Terminal) renderError(e *pattern.Error) string {
	var sb strings.Builder
	sb.WriteString(t.theme.Error.Render(t.theme.Icons.Fail + " " + e.Source))
	if e.Kind != "" {
		sb.WriteString(t.theme.Muted.Render(" (" + e.Kind + ")"))
	}
	sb.WriteString("\n")
	if e.Message != "" {
		sb.WriteString("    " + e.Message + "\n")
	}
	return sb.String()
}

var blocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Spark draws values as block characters scaled between lo and hi. Both
// zero means auto-detect from the finite values; NaNs draw as spaces.
func Spark(values []float64, lo, hi float64) string {
	if lo == 0 && hi == 0 {
		lo, hi = finiteRange(values)
	}
	valueRange := hi - lo
	if valueRange == 0 {
		valueRange = 1
	}
	var spark strings.Builder
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			spark.WriteRune(' ')
			continue
		}
		idx := int((v - lo) / valueRange * 7)
		idx = max(0, min(idx, 7))
		spark.WriteRune(blocks[idx])
	}
	return spark.String()
}

func finiteRange(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo, hi = min(lo, v), max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}

func (t *Terminal) iconStyle(kind string) (string, lipgloss.Style) {
	switch kind {
	case pattern.KindSuccess:
		return t.theme.Icons.Pass, t.theme.Success
	case pattern.KindError:
		return t.theme.Icons.Fail, t.theme.Error
	case pattern.KindWarning:
		return t.theme.Icons.Warn, t.theme.Warning
	default:
		return t.theme.Icons.Info, t.theme.Primary
	}
}

func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

func padLeft(s string, width int) string {
	return runewidth.FillLeft(s, width)
}
