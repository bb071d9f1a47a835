package render

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/specio/pkg/pattern"
)

func spectrumPatterns() []pattern.Pattern {
	return []pattern.Pattern{
		&pattern.Summary{
			Label: "SPECTRUM: cos_fuv.fits",
			Kind:  pattern.SummaryKindSpectrum,
			Metrics: []pattern.SummaryItem{
				{Label: "Format", Value: "HST/COS", Kind: pattern.KindInfo},
				{Label: "Samples", Value: "980", Kind: pattern.KindSuccess},
				{Label: "Uncertainty", Value: "none", Kind: pattern.KindWarning},
			},
		},
		&pattern.Sparkline{Label: "Flux", Values: []float64{1, 2, math.NaN(), 4}, Unit: "Jy"},
		&pattern.SampleTable{
			Label:   "Samples",
			Columns: []string{"wavelength [Angstrom]", "flux [Jy]"},
			Rows: []pattern.SampleRow{
				{Cells: []string{"1150", "1e-15"}},
				{Cells: []string{"1150.01", "2e-15"}, Flagged: true},
			},
			Total: 980,
		},
	}
}

func TestTerminal_RenderSpectrum(t *testing.T) {
	out := NewTerminal(MonoTheme(), 80).Render(spectrumPatterns())
	assert.Contains(t, out, "SPECTRUM: cos_fuv.fits")
	assert.Contains(t, out, "Samples:     980")
	assert.Contains(t, out, "▁▃ █")
	assert.Contains(t, out, "1..4 Jy")
	assert.Contains(t, out, "! ")
	assert.Contains(t, out, "978 more")
}

func TestTerminal_RenderErrorAndLeaderboard(t *testing.T) {
	out := NewTerminal(MonoTheme(), 80).Render([]pattern.Pattern{
		&pattern.Leaderboard{
			Label:    "Formats",
			ShowRank: true,
			Items: []pattern.LeaderboardItem{
				{Name: "HST/COS", Metric: "3 files", Rank: 1, Context: "2780 samples"},
				{Name: "wcs1d-fits", Metric: "1 files", Rank: 2},
			},
		},
		&pattern.Error{Source: "bad.fits", Kind: "malformed source", Message: "truncated header"},
	})
	assert.Contains(t, out, " 1. HST/COS")
	assert.Contains(t, out, "2780 samples")
	assert.Contains(t, out, "x bad.fits (malformed source)")
	assert.Contains(t, out, "    truncated header")
}

func TestTerminal_EmptyPatternsRenderNothing(t *testing.T) {
	out := NewTerminal(DefaultTheme(), 0).Render([]pattern.Pattern{
		&pattern.SampleTable{Label: "none"},
		&pattern.Sparkline{Label: "none"},
		&pattern.Leaderboard{Label: "none"},
	})
	assert.Empty(t, out)
}

func TestSpark(t *testing.T) {
	assert.Equal(t, "▁█", Spark([]float64{0, 1}, 0, 0))
	assert.Equal(t, "▁▁", Spark([]float64{5, 5}, 0, 0))
	assert.Equal(t, "▁ █", Spark([]float64{0, math.Inf(1), 1}, 0, 0))
	assert.Equal(t, "▄", Spark([]float64{5}, 0, 10))
}

func TestTruncateAndPadAreWidthAware(t *testing.T) {
	assert.Equal(t, "日本  ", padRight("日本", 6))
	assert.Equal(t, "  日本", padLeft("日本", 6))
	assert.Equal(t, "abcdefg...", truncate(strings.Repeat("abcdefghij", 3), 10))
	assert.Equal(t, "short", truncate("short", 10))
}

func TestLLM_RenderSpectrum(t *testing.T) {
	out := NewLLM().Render(spectrumPatterns())
	assert.True(t, strings.HasPrefix(out, "SCOPE: SPECTRUM: cos_fuv.fits\n"))
	assert.Contains(t, out, "  Format: HST/COS")
	assert.Contains(t, out, "Flux: 1..4 Jy")
	assert.Contains(t, out, "  wavelength [Angstrom] | flux [Jy]")
	assert.Contains(t, out, "  ! 1150.01 | 2e-15")
	assert.Contains(t, out, "... (978 more rows)")
	assert.NotContains(t, out, "\033[")
}

func TestLLM_ErrorsComeFirst(t *testing.T) {
	out := NewLLM().Render([]pattern.Pattern{
		&pattern.Summary{Label: "INDEX: 2 files · 1 formats", Metrics: []pattern.SummaryItem{
			{Label: "Failures", Value: "1", Kind: pattern.KindError},
		}},
		&pattern.Leaderboard{Label: "Formats", Items: []pattern.LeaderboardItem{{Name: "HST/STIS", Metric: "1 files", Rank: 1}}},
		&pattern.Error{Source: "x.fits", Kind: "unsupported variant", Message: "multispec\nsecond line"},
	})
	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "SCOPE: INDEX: 2 files · 1 formats", lines[0])
	assert.Equal(t, "ERR x.fits (unsupported variant): multispec ...", lines[1])
	assert.Contains(t, out, "  FAIL Failures: 1")
	assert.Contains(t, out, "  1. HST/STIS 1 files")
}

func TestJSON_Render(t *testing.T) {
	out := NewJSON().Render(spectrumPatterns())

	var doc struct {
		Version  string `json:"version"`
		Patterns []struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		} `json:"patterns"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "1.0", doc.Version)
	require.Len(t, doc.Patterns, 3)
	assert.Equal(t, "summary", doc.Patterns[0].Type)
	assert.Equal(t, "sparkline", doc.Patterns[1].Type)
	assert.Contains(t, string(doc.Patterns[1].Data), "null")
	assert.Equal(t, "sample-table", doc.Patterns[2].Type)
}

func TestNew(t *testing.T) {
	for _, mode := range []string{ModeTerminal, ModeLLM, ModeJSON} {
		r, err := New(mode, MonoTheme(), 80)
		require.NoError(t, err)
		assert.NotNil(t, r)
	}
	_, err := New("xml", MonoTheme(), 80)
	assert.Error(t, err)
}

func TestThemeByName(t *testing.T) {
	assert.Equal(t, "orca", ThemeByName("orca").Name)
	assert.Equal(t, "mono", ThemeByName("mono").Name)
	assert.Equal(t, "default", ThemeByName("nope").Name)
}

func TestResolveTheme(t *testing.T) {
	assert.Equal(t, "mono", ResolveTheme("orca", true).Name)
	assert.Equal(t, "orca", ResolveTheme("orca", false).Name)
	assert.True(t, IsTheme("mono"))
	assert.False(t, IsTheme("solarized"))
}
