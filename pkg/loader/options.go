package loader

import (
	"fmt"
	"strings"

	"github.com/dkoosis/specio/pkg/spectrum"
	"github.com/dkoosis/specio/pkg/units"
)

// Options tune how an adapter parses. The zero value lets every adapter use
// its defaults.
type Options struct {
	// SpectralAxisUnit replaces the axis unit found in the file. Values are
	// not converted; the unit must be dimensionally compatible.
	SpectralAxisUnit string

	// Column overrides for table formats. Matching is case-insensitive.
	SpectralAxisColumn string
	FluxColumn         string
	UncertaintyColumn  string

	// HDU selects the FITS extension. Zero keeps the adapter default (the
	// primary or first image for wcs1d-fits, extension 1 for tables).
	HDU int

	// Rows selects table rows for HST x1d files (segments or echelle orders).
	Rows []int
}

var (
	axisColumnNames = []string{"wave", "wavelength", "spectral_axis", "lambda", "loglam", "freq", "frequency", "energy"}
	fluxColumnNames = []string{"flux", "flux_density"}
	uncColumnKinds  = []struct {
		name string
		kind spectrum.UncertaintyKind
	}{
		{"uncertainty", spectrum.StdDev},
		{"unc", spectrum.StdDev},
		{"error", spectrum.StdDev},
		{"err", spectrum.StdDev},
		{"sigma", spectrum.StdDev},
		{"stddev", spectrum.StdDev},
		{"ivar", spectrum.InverseVariance},
		{"inverse_variance", spectrum.InverseVariance},
		{"var", spectrum.Variance},
		{"variance", spectrum.Variance},
	}
)

// columnPick holds column indices; -1 means absent.
type columnPick struct {
	axis, flux, unc int
	uncKind         spectrum.UncertaintyKind
}

// pickColumns locates axis, flux and uncertainty among names: explicit
// overrides first, then conventional names, then column order. Uncertainty
// falls back to the third column only when axis and flux were both found by
// order.
func pickColumns(names []string, opts Options) (columnPick, error) {
	p := columnPick{axis: -1, flux: -1, unc: -1}
	if len(names) < 2 {
		return p, malformed("need at least 2 columns, have %d", len(names))
	}

	var byOrder int
	var err error
	if p.axis, err = locate(names, opts.SpectralAxisColumn, axisColumnNames); err != nil {
		return p, err
	}
	if p.flux, err = locate(names, opts.FluxColumn, fluxColumnNames); err != nil {
		return p, err
	}
	if p.axis < 0 {
		p.axis = firstUnused(len(names), p.flux)
		byOrder++
	}
	if p.flux < 0 {
		p.flux = firstUnused(len(names), p.axis)
		byOrder++
	}
	if p.axis == p.flux {
		return p, malformed("spectral axis and flux both map to column %q", names[p.axis])
	}

	switch {
	case opts.UncertaintyColumn != "":
		p.unc = index(names, opts.UncertaintyColumn)
		if p.unc < 0 {
			return p, malformed("uncertainty column %q not found", opts.UncertaintyColumn)
		}
		p.uncKind = uncertaintyKind(opts.UncertaintyColumn)
	default:
		for _, c := range uncColumnKinds {
			if i := index(names, c.name); i >= 0 {
				p.unc, p.uncKind = i, c.kind
				break
			}
		}
		if p.unc < 0 && byOrder == 2 && len(names) > 2 {
			p.unc, p.uncKind = 2, spectrum.StdDev
		}
	}
	if p.unc == p.axis || p.unc == p.flux {
		p.unc = -1
	}
	return p, nil
}

func locate(names []string, override string, conventional []string) (int, error) {
	if override != "" {
		if i := index(names, override); i >= 0 {
			return i, nil
		}
		return -1, malformed("column %q not found (have %s)", override, strings.Join(names, ", "))
	}
	for _, n := range conventional {
		if i := index(names, n); i >= 0 {
			return i, nil
		}
	}
	return -1, nil
}

func firstUnused(n, taken int) int {
	for i := 0; i < n; i++ {
		if i != taken {
			return i
		}
	}
	return -1
}

func index(names []string, want string) int {
	for i, n := range names {
		if strings.EqualFold(strings.TrimSpace(n), want) {
			return i
		}
	}
	return -1
}

func uncertaintyKind(name string) spectrum.UncertaintyKind {
	for _, c := range uncColumnKinds {
		if strings.EqualFold(c.name, name) {
			return c.kind
		}
	}
	return spectrum.StdDev
}

// axisUnit resolves the spectral axis unit: the file's unit (or def when the
// file has none), replaced by override when the two are compatible.
func axisUnit(fileUnit, def, override string) (units.Unit, error) {
	if strings.TrimSpace(fileUnit) == "" {
		fileUnit = def
	}
	u, err := units.Parse(fileUnit)
	if err != nil {
		return units.Unit{}, malformed("spectral axis unit: %v", err)
	}
	if strings.TrimSpace(override) == "" {
		return u, nil
	}
	o, err := units.Parse(override)
	if err != nil {
		return units.Unit{}, fmt.Errorf("%w: %w", ErrIncompatibleUnitOverride, err)
	}
	if !units.Compatible(u, o) {
		return units.Unit{}, fmt.Errorf("%w: %q is not compatible with %q", ErrIncompatibleUnitOverride, override, u)
	}
	return o, nil
}

// dataUnit parses a flux or uncertainty unit, using def when empty.
func dataUnit(what, text, def string) (units.Unit, error) {
	if strings.TrimSpace(text) == "" {
		text = def
	}
	u, err := units.Parse(text)
	if err != nil {
		return units.Unit{}, malformed("%s unit: %v", what, err)
	}
	return u, nil
}

// build wraps spectrum validation failures as malformed sources.
func build(axis, flux units.Quantity, opts ...spectrum.Option) (*spectrum.Spectrum1D, error) {
	s, err := spectrum.New(axis, flux, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSource, err)
	}
	return s, nil
}
