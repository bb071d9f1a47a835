package mapper

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dkoosis/specio/pkg/pattern"
	"github.com/dkoosis/specio/pkg/spectrum"
	"github.com/dkoosis/specio/pkg/units"
)

// Defaults for SpectrumOptions zero values.
const (
	DefaultSampleRows = 10
	DefaultSparkWidth = 60
)

// SpectrumOptions controls how much of a spectrum is shown.
type SpectrumOptions struct {
	SampleRows int // rows in the sample table; < 0 hides it
	SparkWidth int // sparkline bins; < 0 hides it
}

var titler = cases.Title(language.English)

// FromSpectrum maps a spectrum to a summary, a flux sparkline and a table
// of its first samples.
func FromSpectrum(s *spectrum.Spectrum1D, opts SpectrumOptions) []pattern.Pattern {
	if opts.SampleRows == 0 {
		opts.SampleRows = DefaultSampleRows
	}
	if opts.SparkWidth == 0 {
		opts.SparkWidth = DefaultSparkWidth
	}
	axis, flux := s.SpectralAxis(), s.Flux()
	unc, hasUnc := s.Uncertainty()

	out := []pattern.Pattern{spectrumSummary(s, axis, flux, unc, hasUnc)}
	if opts.SparkWidth > 0 {
		out = append(out, &pattern.Sparkline{
			Label:  "Flux",
			Values: Bin(flux.Values, opts.SparkWidth),
			Unit:   unitLabel(flux.Unit),
		})
	}
	if opts.SampleRows > 0 {
		out = append(out, sampleTable(s, axis, flux, unc, hasUnc, opts.SampleRows))
	}
	return out
}

func spectrumSummary(s *spectrum.Spectrum1D, axis, flux units.Quantity, unc spectrum.Uncertainty, hasUnc bool) *pattern.Summary {
	first, last := axis.Values[0], axis.Values[axis.Len()-1]
	direction := "ascending"
	if !s.Ascending() {
		direction = "descending"
	}
	items := []pattern.SummaryItem{
		{Label: "Format", Value: s.Format(), Kind: pattern.KindInfo},
		{Label: "Samples", Value: strconv.Itoa(s.Len()), Kind: pattern.KindSuccess},
		{
			Label: axisName(axis.Unit),
			Value: fmt.Sprintf("%s .. %s %s (%s)", formatValue(first), formatValue(last), unitLabel(axis.Unit), direction),
			Kind:  pattern.KindInfo,
		},
		{Label: "Flux unit", Value: unitLabel(flux.Unit), Kind: pattern.KindInfo},
	}
	if hasUnc {
		items = append(items, pattern.SummaryItem{
			Label: "Uncertainty",
			Value: fmt.Sprintf("%s [%s]", uncertaintyName(unc.Kind), unitLabel(unc.Unit)),
			Kind:  pattern.KindInfo,
		})
	} else {
		items = append(items, pattern.SummaryItem{Label: "Uncertainty", Value: "none", Kind: pattern.KindWarning})
	}
	if mask := s.Mask(); mask != nil {
		bad := 0
		for _, m := range mask {
			if m {
				bad++
			}
		}
		kind := pattern.KindSuccess
		if bad > 0 {
			kind = pattern.KindWarning
		}
		items = append(items, pattern.SummaryItem{
			Label: "Masked",
			Value: fmt.Sprintf("%d of %d", bad, len(mask)),
			Kind:  kind,
		})
	}
	return &pattern.Summary{
		Label:   "SPECTRUM: " + s.Source(),
		Kind:    pattern.SummaryKindSpectrum,
		Metrics: items,
	}
}

func sampleTable(s *spectrum.Spectrum1D, axis, flux units.Quantity, unc spectrum.Uncertainty, hasUnc bool, n int) *pattern.SampleTable {
	cols := []string{
		fmt.Sprintf("%s [%s]", axisColumn(axis.Unit), unitLabel(axis.Unit)),
		fmt.Sprintf("flux [%s]", unitLabel(flux.Unit)),
	}
	if hasUnc {
		cols = append(cols, fmt.Sprintf("%s [%s]", unc.Kind, unitLabel(unc.Unit)))
	}
	mask := s.Mask()
	n = min(n, s.Len())
	rows := make([]pattern.SampleRow, n)
	for i := range rows {
		cells := []string{formatValue(axis.Values[i]), formatValue(flux.Values[i])}
		if hasUnc {
			cells = append(cells, formatValue(unc.Values[i]))
		}
		rows[i] = pattern.SampleRow{Cells: cells, Flagged: mask != nil && mask[i]}
	}
	return &pattern.SampleTable{
		Label:   "Samples",
		Columns: cols,
		Rows:    rows,
		Total:   s.Len(),
	}
}

// Bin averages values into at most width bins, skipping NaNs. A bin with no
// finite values is NaN.
func Bin(values []float64, width int) []float64 {
	if width <= 0 || len(values) == 0 {
		return nil
	}
	if len(values) <= width {
		return append([]float64(nil), values...)
	}
	out := make([]float64, width)
	for b := range out {
		lo := b * len(values) / width
		hi := (b + 1) * len(values) / width
		var sum float64
		var n int
		for _, v := range values[lo:hi] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			sum += v
			n++
		}
		if n == 0 {
			out[b] = math.NaN()
			continue
		}
		out[b] = sum / float64(n)
	}
	return out
}

func axisName(u units.Unit) string {
	if t := u.PhysicalType(); t != "" {
		return titler.String(t)
	}
	return "Spectral axis"
}

func axisColumn(u units.Unit) string {
	if t := u.PhysicalType(); t != "" {
		return t
	}
	return "spectral_axis"
}

func unitLabel(u units.Unit) string {
	if u.String() == "" {
		return "dimensionless"
	}
	return u.String()
}

func uncertaintyName(k spectrum.UncertaintyKind) string {
	switch k {
	case spectrum.Variance:
		return "variance"
	case spectrum.InverseVariance:
		return "inverse variance"
	default:
		return "std dev"
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
