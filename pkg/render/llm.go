package render

import (
	"fmt"
	"strings"

	"github.com/dkoosis/specio/pkg/pattern"
)

// LLM renders patterns as terse plain text optimized for AI consumption.
// Zero ANSI codes, SCOPE lines first, failures before results.
type LLM struct{}

// NewLLM creates an LLM renderer.
func NewLLM() *LLM {
	return &LLM{}
}

// Render formats all patterns for LLM consumption.
func (l *LLM) Render(patterns []pattern.Pattern) string {
	var sb strings.Builder

	for _, p := range patterns {
		if s, ok := p.(*pattern.Summary); ok {
			sb.WriteString("SCOPE: " + s.Label + "\n")
		}
	}
	for _, p := range patterns {
		if e, ok := p.(*pattern.Error); ok {
			l.renderError(&sb, e)
		}
	}
	for _, p := range patterns {
		switch v := p.(type) {
		case *pattern.Summary:
			l.renderSummary(&sb, v)
		case *pattern.Sparkline:
			l.renderSparkline(&sb, v)
		case *pattern.SampleTable:
			l.renderSampleTable(&sb, v)
		case *pattern.Leaderboard:
			l.renderLeaderboard(&sb, v)
		}
	}
	return sb.String()
}

func (l *LLM) renderError(sb *strings.Builder, e *pattern.Error) {
	kind := ""
	if e.Kind != "" {
		kind = " (" + e.Kind + ")"
	}
	sb.WriteString(fmt.Sprintf("ERR %s%s: %s\n", e.Source, kind, firstLine(e.Message)))
}

func (l *LLM) renderSummary(sb *strings.Builder, s *pattern.Summary) {
	if len(s.Metrics) == 0 {
		return
	}
	sb.WriteString("\n")
	for _, m := range s.Metrics {
		prefix := "  "
		if m.Kind == pattern.KindError {
			prefix = "  FAIL "
		}
		sb.WriteString(prefix + m.Label + ": " + m.Value + "\n")
	}
}

func (l *LLM) renderSparkline(sb *strings.Builder, s *pattern.Sparkline) {
	if len(s.Values) == 0 {
		return
	}
	lo, hi := finiteRange(s.Values)
	sb.WriteString(fmt.Sprintf("\n%s: %.6g..%.6g %s\n", s.Label, lo, hi, s.Unit))
}

func (l *LLM) renderSampleTable(sb *strings.Builder, t *pattern.SampleTable) {
	if len(t.Rows) == 0 {
		return
	}
	sb.WriteString("\n" + t.Label + "\n")
	sb.WriteString("  " + strings.Join(t.Columns, " | ") + "\n")
	for _, r := range t.Rows {
		prefix := "  "
		if r.Flagged {
			prefix = "  ! "
		}
		sb.WriteString(prefix + strings.Join(r.Cells, " | ") + "\n")
	}
	if n := t.Hidden(); n > 0 {
		sb.WriteString(fmt.Sprintf("  ... (%d more rows)\n", n))
	}
}

func (l *LLM) renderLeaderboard(sb *strings.Builder, b *pattern.Leaderboard) {
	if len(b.Items) == 0 {
		return
	}
	sb.WriteString("\n" + b.Label + "\n")
	for _, item := range b.Items {
		line := fmt.Sprintf("  %d. %s %s", item.Rank, item.Name, item.Metric)
		if item.Context != "" {
			line += " (" + item.Context + ")"
		}
		sb.WriteString(line + "\n")
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
