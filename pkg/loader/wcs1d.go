package loader

import (
	"errors"
	"fmt"

	"github.com/dkoosis/specio/internal/fitsutil"
	"github.com/dkoosis/specio/internal/wcs"
	"github.com/dkoosis/specio/pkg/spectrum"
	"github.com/dkoosis/specio/pkg/units"
)

const (
	defaultWCSAxisUnit = "Angstrom"
	defaultWCSFluxUnit = "Jy"
)

// WCS1DAdapter reads a 1-D spectrum stored as a FITS image whose spectral
// axis is described by WCS keywords.
type WCS1DAdapter struct{}

func (a *WCS1DAdapter) Name() string { return FormatWCS1D }

// Detect matches any image HDU with data and a CRVAL1 keyword among the
// first few headers.
func (a *WCS1DAdapter) Detect(src Source) Match {
	for _, h := range peekFITS(src, 4) {
		if h.Kind != "PRIMARY" && h.Kind != "IMAGE" {
			continue
		}
		naxis, _ := h.Int("NAXIS")
		if _, ok := h.Get("CRVAL1"); ok && naxis >= 1 {
			return Generic
		}
	}
	return NoMatch
}

func (a *WCS1DAdapter) Parse(src Source, opts Options) (*spectrum.Spectrum1D, error) {
	f, closeFn, err := openFITS(src)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	hdu, err := imageHDU(f, opts.HDU)
	if err != nil {
		return nil, err
	}
	axis, npix, err := spectralAxisIndex(hdu.Axes())
	if err != nil {
		return nil, err
	}
	data, err := hdu.Image()
	if err != nil {
		return nil, malformed("%v", err)
	}
	if len(data) < npix {
		return nil, malformed("image has %d values, header declares %d", len(data), npix)
	}

	hdr := hdu.Header()
	tr, err := wcs.FromHeader(hdr, axis)
	switch {
	case errors.Is(err, wcs.ErrUnsupported):
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedVariant, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrMalformedSource, err)
	}

	axisU, err := axisUnit(tr.Unit, defaultWCSAxisUnit, opts.SpectralAxisUnit)
	if err != nil {
		return nil, err
	}
	bunit, _ := hdr.String("BUNIT")
	fluxU, err := dataUnit("flux", bunit, defaultWCSFluxUnit)
	if err != nil {
		return nil, err
	}

	return build(
		units.Quantity{Values: tr.Pixels(npix), Unit: axisU},
		units.Quantity{Values: data[:npix], Unit: fluxU},
		spectrum.WithMeta(hdr.Meta()),
		spectrum.WithProvenance(src.Name(), FormatWCS1D),
	)
}

// imageHDU returns the requested HDU, else the primary when it has data,
// else the first image extension with data.
func imageHDU(f *fitsutil.File, want int) (fitsutil.HDU, error) {
	if want > 0 {
		hdu, err := f.HDU(want)
		if err != nil {
			return hdu, malformed("%v", err)
		}
		if !hdu.IsImage() || !hasData(hdu.Axes()) {
			return hdu, malformed("hdu %d holds no image data", want)
		}
		return hdu, nil
	}
	for i := 0; i < f.Len(); i++ {
		hdu, err := f.HDU(i)
		if err != nil {
			return hdu, malformed("%v", err)
		}
		if hdu.IsImage() && hasData(hdu.Axes()) {
			return hdu, nil
		}
	}
	return fitsutil.HDU{}, malformed("no image HDU with data")
}

func hasData(axes []int) bool {
	if len(axes) == 0 {
		return false
	}
	for _, n := range axes {
		if n == 0 {
			return false
		}
	}
	return true
}

// spectralAxisIndex squeezes length-1 axes and returns the 1-based index and
// length of the one remaining axis.
func spectralAxisIndex(axes []int) (int, int, error) {
	axis, npix := 1, axes[0]
	found := 0
	for i, n := range axes {
		if n > 1 {
			axis, npix = i+1, n
			found++
		}
	}
	if found > 1 {
		return 0, 0, unsupported("image has %d non-degenerate axes %v, want 1", found, axes)
	}
	return axis, npix, nil
}
