package loader

import (
	"fmt"
	"io"
	"strings"

	"github.com/dkoosis/specio/internal/detect"
	"github.com/dkoosis/specio/pkg/ecsv"
	"github.com/dkoosis/specio/pkg/spectrum"
	"github.com/dkoosis/specio/pkg/units"
)

// ECSVAdapter reads generic ECSV tables. Units come verbatim from the
// column metadata.
type ECSVAdapter struct{}

func (a *ECSVAdapter) Name() string { return FormatECSV }

// Detect matches the "# %ECSV" signature.
func (a *ECSVAdapter) Detect(src Source) Match {
	if sniff(src) == detect.ECSV {
		return Specific
	}
	return NoMatch
}

func (a *ECSVAdapter) Parse(src Source, opts Options) (*spectrum.Spectrum1D, error) {
	rc, err := open(src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	tbl, err := ecsv.Read(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSource, err)
	}

	names := make([]string, len(tbl.Columns))
	for i, c := range tbl.Columns {
		names[i] = c.Name
	}
	pick, err := pickColumns(names, opts)
	if err != nil {
		return nil, err
	}

	axisCol, fluxCol := tbl.Columns[pick.axis], tbl.Columns[pick.flux]
	for _, c := range []*ecsv.Column{axisCol, fluxCol} {
		if !c.IsNumeric() {
			return nil, malformed("column %q is %s, want numeric", c.Name, c.Datatype)
		}
	}

	axisU, err := axisUnit(axisCol.Unit, "", opts.SpectralAxisUnit)
	if err != nil {
		return nil, err
	}
	fluxU, err := dataUnit("flux", fluxCol.Unit, "")
	if err != nil {
		return nil, err
	}

	sopts := []spectrum.Option{
		spectrum.WithMeta(tbl.Meta),
		spectrum.WithProvenance(src.Name(), FormatECSV),
	}
	if pick.unc >= 0 {
		uncCol := tbl.Columns[pick.unc]
		if !uncCol.IsNumeric() {
			return nil, malformed("uncertainty column %q is %s, want numeric", uncCol.Name, uncCol.Datatype)
		}
		uncU, err := dataUnit("uncertainty", uncCol.Unit, "")
		if err != nil {
			return nil, err
		}
		sopts = append(sopts, spectrum.WithUncertainty(units.Quantity{Values: uncCol.Values, Unit: uncU}, pick.uncKind))
	}
	if mc := tbl.Lookup("mask"); mc != nil {
		mask, err := ecsvMask(mc)
		if err != nil {
			return nil, err
		}
		sopts = append(sopts, spectrum.WithMask(mask))
	}

	return build(
		units.Quantity{Values: axisCol.Values, Unit: axisU},
		units.Quantity{Values: fluxCol.Values, Unit: fluxU},
		sopts...,
	)
}

func ecsvMask(c *ecsv.Column) ([]bool, error) {
	mask := make([]bool, c.Len())
	if c.IsNumeric() {
		for i, v := range c.Values {
			mask[i] = v != 0
		}
		return mask, nil
	}
	for i, s := range c.Strings {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "t", "1":
			mask[i] = true
		case "false", "f", "0", "":
		default:
			return nil, malformed("mask value %q in row %d", s, i+1)
		}
	}
	return mask, nil
}

// WriteECSV writes s as an ECSV table readable by ECSVAdapter. Columns are
// named after the axis physical type, the flux and the uncertainty kind.
func WriteECSV(w io.Writer, s *spectrum.Spectrum1D) error {
	axis, flux := s.SpectralAxis(), s.Flux()
	axisName := axis.Unit.PhysicalType()
	if axisName == "" || axisName == "wavenumber" {
		axisName = "spectral_axis"
	}

	tbl := &ecsv.Table{
		Columns: []*ecsv.Column{
			ecsv.NewFloatColumn(axisName, axis.Unit.String(), axis.Values),
			ecsv.NewFloatColumn("flux", flux.Unit.String(), flux.Values),
		},
		Meta: s.Meta(),
	}
	if unc, ok := s.Uncertainty(); ok {
		name := map[spectrum.UncertaintyKind]string{
			spectrum.StdDev:          "uncertainty",
			spectrum.Variance:        "variance",
			spectrum.InverseVariance: "ivar",
		}[unc.Kind]
		tbl.Columns = append(tbl.Columns, ecsv.NewFloatColumn(name, unc.Unit.String(), unc.Values))
	}
	if mask := s.Mask(); mask != nil {
		vals := make([]string, len(mask))
		for i, m := range mask {
			vals[i] = "False"
			if m {
				vals[i] = "True"
			}
		}
		c := ecsv.NewStringColumn("mask", vals)
		c.Datatype = "bool"
		tbl.Columns = append(tbl.Columns, c)
	}
	if err := ecsv.Write(w, tbl); err != nil {
		return fmt.Errorf("write spectrum %s: %w", s.Source(), err)
	}
	return nil
}
