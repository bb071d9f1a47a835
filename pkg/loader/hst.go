package loader

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/dkoosis/specio/internal/fitsutil"
	"github.com/dkoosis/specio/pkg/spectrum"
	"github.com/dkoosis/specio/pkg/units"
)

const (
	defaultHSTAxisUnit = "Angstrom"
	defaultHSTFluxUnit = "erg / (s cm2 Angstrom)"
)

// HSTAdapter reads HST x1d extracted spectra: a SCI binary table with one
// row per detector segment or echelle order, each row holding WAVELENGTH,
// FLUX, ERROR and DQ arrays of NELEM valid elements.
type HSTAdapter struct {
	name       string
	instrument string
	label      string // column naming each row
}

// NewCOSAdapter reads COS x1d files; rows are detector segments.
func NewCOSAdapter() *HSTAdapter {
	return &HSTAdapter{name: FormatCOS, instrument: "COS", label: "SEGMENT"}
}

// NewSTISAdapter reads STIS x1d files; rows are spectral orders.
func NewSTISAdapter() *HSTAdapter {
	return &HSTAdapter{name: FormatSTIS, instrument: "STIS", label: "SPORDER"}
}

func (a *HSTAdapter) Name() string { return a.name }

// Detect matches TELESCOP = HST and INSTRUME = the adapter's instrument in
// the primary header.
func (a *HSTAdapter) Detect(src Source) Match {
	hdrs := peekFITS(src, 1)
	if len(hdrs) == 0 {
		return NoMatch
	}
	tel, _ := hdrs[0].Get("TELESCOP")
	inst, _ := hdrs[0].Get("INSTRUME")
	if strings.EqualFold(strings.TrimSpace(tel), "HST") && strings.EqualFold(strings.TrimSpace(inst), a.instrument) {
		return Specific
	}
	return NoMatch
}

// segment is one trimmed x1d row.
type segment struct {
	label string
	wave  []float64
	flux  []float64
	err   []float64
	dq    []float64
}

func (s segment) bounds() (float64, float64) {
	return slices.Min(s.wave), slices.Max(s.wave)
}

func (a *HSTAdapter) Parse(src Source, opts Options) (*spectrum.Spectrum1D, error) {
	f, closeFn, err := openFITS(src)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	// Other products of the same instrument (flt, raw, corrtag) share the
	// primary header but not the x1d table.
	want := opts.HDU
	if want <= 0 {
		want = defaultTableHDU
	}
	if hdu, err := f.HDU(want); err == nil && !hdu.IsTable() {
		return nil, unsupported("%s hdu %d is an image, not an x1d table", a.instrument, want)
	}
	tbl, err := tableHDU(f, opts.HDU)
	if err != nil {
		return nil, err
	}
	waveCol, fluxCol := tbl.Column("WAVELENGTH"), tbl.Column("FLUX")
	if waveCol == nil || fluxCol == nil {
		return nil, unsupported("%s table is not x1d: needs WAVELENGTH and FLUX columns, have %s",
			a.instrument, strings.Join(tbl.Names(), ", "))
	}
	for _, c := range []*fitsutil.Column{waveCol, fluxCol} {
		if c.IsText() {
			return nil, malformed("column %s holds text", c.Name)
		}
	}
	errCol, dqCol := numericColumn(tbl, "ERROR"), numericColumn(tbl, "DQ")

	rows, err := selectRows(tbl.Rows, opts.Rows)
	if err != nil {
		return nil, err
	}
	var segs []segment
	for _, r := range rows {
		s, err := a.segment(tbl, r, waveCol, fluxCol, errCol, dqCol)
		if err != nil {
			return nil, err
		}
		if len(s.wave) > 0 {
			segs = append(segs, s)
		}
	}
	if len(segs) == 0 {
		return nil, malformed("x1d table has no valid elements")
	}
	merged, err := a.merge(segs)
	if err != nil {
		return nil, err
	}

	axisU, err := axisUnit(waveCol.Unit, defaultHSTAxisUnit, opts.SpectralAxisUnit)
	if err != nil {
		return nil, err
	}
	fluxU, err := dataUnit("flux", fluxCol.Unit, defaultHSTFluxUnit)
	if err != nil {
		return nil, err
	}

	meta := f.Primary().Meta()
	labels := make([]string, len(segs))
	for i, s := range segs {
		labels[i] = s.label
	}
	meta[a.label] = strings.Join(labels, ",")
	sopts := []spectrum.Option{
		spectrum.WithMeta(meta),
		spectrum.WithProvenance(src.Name(), a.name),
	}
	if errCol != nil {
		errU, err := dataUnit("error", errCol.Unit, fluxU.String())
		if err != nil {
			return nil, err
		}
		sopts = append(sopts, spectrum.WithUncertainty(units.Quantity{Values: merged.err, Unit: errU}, spectrum.StdDev))
	}
	if dqCol != nil {
		mask := make([]bool, len(merged.dq))
		for i, q := range merged.dq {
			mask[i] = q != 0
		}
		sopts = append(sopts, spectrum.WithMask(mask))
	}

	return build(
		units.Quantity{Values: merged.wave, Unit: axisU},
		units.Quantity{Values: merged.flux, Unit: fluxU},
		sopts...,
	)
}

func numericColumn(tbl *fitsutil.Table, name string) *fitsutil.Column {
	c := tbl.Column(name)
	if c == nil || c.IsText() {
		return nil
	}
	return c
}

func selectRows(n int, want []int) ([]int, error) {
	if len(want) == 0 {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out, nil
	}
	for _, r := range want {
		if r < 0 || r >= n {
			return nil, malformed("row %d out of range (table has %d rows)", r, n)
		}
	}
	return want, nil
}

// segment trims row r to NELEM elements.
func (a *HSTAdapter) segment(tbl *fitsutil.Table, r int, waveCol, fluxCol, errCol, dqCol *fitsutil.Column) (segment, error) {
	wave, flux := waveCol.Floats[r], fluxCol.Floats[r]
	n := min(len(wave), len(flux))
	if c := numericColumn(tbl, "NELEM"); c != nil && len(c.Floats[r]) > 0 {
		n = max(0, min(n, int(c.Floats[r][0])))
	}
	s := segment{label: rowLabel(tbl, a.label, r), wave: wave[:n], flux: flux[:n]}
	if errCol != nil {
		if len(errCol.Floats[r]) < n {
			return s, malformed("row %d: ERROR has %d elements, want %d", r, len(errCol.Floats[r]), n)
		}
		s.err = errCol.Floats[r][:n]
	}
	if dqCol != nil {
		if len(dqCol.Floats[r]) < n {
			return s, malformed("row %d: DQ has %d elements, want %d", r, len(dqCol.Floats[r]), n)
		}
		s.dq = dqCol.Floats[r][:n]
	}
	return s, nil
}

func rowLabel(tbl *fitsutil.Table, name string, r int) string {
	c := tbl.Column(name)
	switch {
	case c == nil:
		return fmt.Sprintf("row%d", r)
	case c.IsText():
		return c.Strings[r]
	default:
		return fmt.Sprintf("%g", c.Floats[r][0])
	}
}

// merge orders segments by starting wavelength and concatenates them.
// Overlapping segments cannot form one monotonic axis.
func (a *HSTAdapter) merge(segs []segment) (segment, error) {
	sort.SliceStable(segs, func(i, j int) bool {
		lo1, _ := segs[i].bounds()
		lo2, _ := segs[j].bounds()
		return lo1 < lo2
	})
	for i := 1; i < len(segs); i++ {
		_, hi := segs[i-1].bounds()
		lo, _ := segs[i].bounds()
		if lo <= hi {
			return segment{}, unsupported("%s %s and %s overlap (%.4g > %.4g); select one with Rows",
				a.label, segs[i-1].label, segs[i].label, hi, lo)
		}
	}

	var out segment
	for _, s := range segs {
		if s.wave[0] > s.wave[len(s.wave)-1] {
			s = s.reversed()
		}
		out.wave = append(out.wave, s.wave...)
		out.flux = append(out.flux, s.flux...)
		out.err = append(out.err, s.err...)
		out.dq = append(out.dq, s.dq...)
	}
	return out, nil
}

// reversed returns a copy with every array in reverse order.
func (s segment) reversed() segment {
	rev := func(v []float64) []float64 {
		if v == nil {
			return nil
		}
		out := slices.Clone(v)
		slices.Reverse(out)
		return out
	}
	return segment{label: s.label, wave: rev(s.wave), flux: rev(s.flux), err: rev(s.err), dq: rev(s.dq)}
}
