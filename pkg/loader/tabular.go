package loader

import (
	"math"
	"strings"

	"github.com/dkoosis/specio/internal/fitsutil"
	"github.com/dkoosis/specio/pkg/spectrum"
	"github.com/dkoosis/specio/pkg/units"
)

const defaultTableHDU = 1

// TabularAdapter reads a spectrum from a FITS binary table: either one
// column per quantity with a row per sample, or a single row of array
// columns.
type TabularAdapter struct{}

func (a *TabularAdapter) Name() string { return FormatTabular }

// Detect matches a binary table in the first extension with axis-like and
// flux-like column names.
func (a *TabularAdapter) Detect(src Source) Match {
	hdrs := peekFITS(src, defaultTableHDU+1)
	if len(hdrs) <= defaultTableHDU || hdrs[defaultTableHDU].Kind != "BINTABLE" {
		return NoMatch
	}
	cols := hdrs[defaultTableHDU].Columns()
	hasAxis, hasFlux := false, false
	for _, c := range cols {
		hasAxis = hasAxis || index(axisColumnNames, c) >= 0
		hasFlux = hasFlux || index(fluxColumnNames, c) >= 0
	}
	if hasAxis && hasFlux {
		return Generic
	}
	return NoMatch
}

func (a *TabularAdapter) Parse(src Source, opts Options) (*spectrum.Spectrum1D, error) {
	f, closeFn, err := openFITS(src)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	tbl, err := tableHDU(f, opts.HDU)
	if err != nil {
		return nil, err
	}
	pick, err := pickColumns(tbl.Names(), opts)
	if err != nil {
		return nil, err
	}

	axisCol, fluxCol := tbl.Columns[pick.axis], tbl.Columns[pick.flux]
	axisVals, err := columnValues(axisCol, tbl.Rows)
	if err != nil {
		return nil, err
	}
	fluxVals, err := columnValues(fluxCol, tbl.Rows)
	if err != nil {
		return nil, err
	}

	axisUnitText := axisCol.Unit
	if strings.EqualFold(axisCol.Name, "loglam") {
		for i, v := range axisVals {
			axisVals[i] = math.Pow(10, v)
		}
		axisUnitText = ""
	}
	axisU, err := axisUnit(axisUnitText, defaultWCSAxisUnit, opts.SpectralAxisUnit)
	if err != nil {
		return nil, err
	}
	fluxU, err := dataUnit("flux", fluxCol.Unit, "")
	if err != nil {
		return nil, err
	}

	sopts := []spectrum.Option{spectrum.WithProvenance(src.Name(), FormatTabular)}
	if primary := f.Primary().Meta(); len(primary) > 0 {
		sopts = append(sopts, spectrum.WithMeta(primary))
	}
	if pick.unc >= 0 {
		uncCol := tbl.Columns[pick.unc]
		vals, err := columnValues(uncCol, tbl.Rows)
		if err != nil {
			return nil, err
		}
		unitText := uncCol.Unit
		if unitText == "" && pick.uncKind == spectrum.StdDev {
			unitText = fluxCol.Unit
		}
		uncU, err := dataUnit("uncertainty", unitText, "")
		if err != nil {
			return nil, err
		}
		sopts = append(sopts, spectrum.WithUncertainty(units.Quantity{Values: vals, Unit: uncU}, pick.uncKind))
	}

	return build(
		units.Quantity{Values: axisVals, Unit: axisU},
		units.Quantity{Values: fluxVals, Unit: fluxU},
		sopts...,
	)
}

func tableHDU(f *fitsutil.File, want int) (*fitsutil.Table, error) {
	if want <= 0 {
		want = defaultTableHDU
	}
	hdu, err := f.HDU(want)
	if err != nil {
		return nil, malformed("%v", err)
	}
	if !hdu.IsTable() {
		return nil, malformed("hdu %d is not a table", want)
	}
	tbl, err := hdu.Table()
	if err != nil {
		return nil, malformed("%v", err)
	}
	if tbl.Rows == 0 {
		return nil, malformed("table in hdu %d has no rows", want)
	}
	return tbl, nil
}

// columnValues flattens a column: a single row of arrays, or one scalar per
// row.
func columnValues(c *fitsutil.Column, rows int) ([]float64, error) {
	if c.IsText() {
		return nil, malformed("column %q holds text", c.Name)
	}
	if rows == 1 {
		return append([]float64(nil), c.Floats[0]...), nil
	}
	out := make([]float64, rows)
	for i, cell := range c.Floats {
		if len(cell) != 1 {
			return nil, unsupported("column %q has %d-element cells over %d rows", c.Name, len(cell), rows)
		}
		out[i] = cell[0]
	}
	return out, nil
}
