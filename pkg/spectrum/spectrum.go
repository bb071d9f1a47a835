// Package spectrum defines Spectrum1D, the uniform record every format loader
// produces: a spectral axis, a flux array and an optional uncertainty, each
// tagged with a physical unit.
//
// A Spectrum1D is validated once in New and never changes afterwards;
// accessors hand out copies.
package spectrum

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/dkoosis/specio/pkg/units"
)

// ErrInvalid is wrapped by every validation failure in New.
var ErrInvalid = errors.New("invalid spectrum")

// UncertaintyKind says how uncertainty values relate to the flux.
type UncertaintyKind string

const (
	StdDev          UncertaintyKind = "std"
	Variance        UncertaintyKind = "var"
	InverseVariance UncertaintyKind = "ivar"
)

// Uncertainty is a per-sample error estimate paired with the flux.
type Uncertainty struct {
	units.Quantity
	Kind UncertaintyKind
}

// Spectrum1D is a one-dimensional spectrum.
type Spectrum1D struct {
	axis        units.Quantity
	flux        units.Quantity
	uncertainty *Uncertainty
	mask        []bool
	meta        map[string]string
	source      string
	format      string
}

// Option configures optional parts of a Spectrum1D.
type Option func(*Spectrum1D)

// WithUncertainty attaches an uncertainty array of the given kind.
func WithUncertainty(q units.Quantity, kind UncertaintyKind) Option {
	return func(s *Spectrum1D) {
		if kind == "" {
			kind = StdDev
		}
		s.uncertainty = &Uncertainty{Quantity: q.Clone(), Kind: kind}
	}
}

// WithMask attaches a bad-pixel mask; true marks a sample to ignore.
func WithMask(mask []bool) Option {
	return func(s *Spectrum1D) {
		s.mask = append([]bool(nil), mask...)
	}
}

// WithMeta attaches header or table metadata.
func WithMeta(meta map[string]string) Option {
	return func(s *Spectrum1D) {
		if len(meta) == 0 {
			return
		}
		s.meta = make(map[string]string, len(meta))
		for k, v := range meta {
			s.meta[k] = v
		}
	}
}

// WithProvenance records where the spectrum was read from and by which format.
func WithProvenance(source, format string) Option {
	return func(s *Spectrum1D) {
		s.source = source
		s.format = format
	}
}

// New validates and builds a Spectrum1D. Inputs are copied.
func New(axis, flux units.Quantity, opts ...Option) (*Spectrum1D, error) {
	s := &Spectrum1D{axis: axis.Clone(), flux: flux.Clone()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Spectrum1D) validate() error {
	n := s.axis.Len()
	if n == 0 {
		return fmt.Errorf("%w: empty spectral axis", ErrInvalid)
	}
	if s.flux.Len() != n {
		return fmt.Errorf("%w: flux has %d values, spectral axis has %d", ErrInvalid, s.flux.Len(), n)
	}
	if err := checkMonotonic(s.axis.Values); err != nil {
		return err
	}
	if u := s.uncertainty; u != nil {
		if u.Len() != n {
			return fmt.Errorf("%w: uncertainty has %d values, flux has %d", ErrInvalid, u.Len(), n)
		}
		if u.Kind == StdDev && !units.Compatible(u.Unit, s.flux.Unit) {
			return fmt.Errorf("%w: uncertainty unit %q is not compatible with flux unit %q",
				ErrInvalid, u.Unit, s.flux.Unit)
		}
	}
	if s.mask != nil && len(s.mask) != n {
		return fmt.Errorf("%w: mask has %d values, flux has %d", ErrInvalid, len(s.mask), n)
	}
	return nil
}

// checkMonotonic requires strictly increasing or strictly decreasing values.
func checkMonotonic(v []float64) error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: spectral axis value %d is %v", ErrInvalid, i, x)
		}
	}
	if len(v) < 2 {
		return nil
	}
	ascending := v[1] > v[0]
	for i := 1; i < len(v); i++ {
		if ascending && v[i] <= v[i-1] || !ascending && v[i] >= v[i-1] {
			return fmt.Errorf("%w: spectral axis is not strictly monotonic at index %d", ErrInvalid, i)
		}
	}
	return nil
}

// Len returns the number of samples.
func (s *Spectrum1D) Len() int { return s.axis.Len() }

// SpectralAxis returns a copy of the spectral axis.
func (s *Spectrum1D) SpectralAxis() units.Quantity { return s.axis.Clone() }

// Flux returns a copy of the flux.
func (s *Spectrum1D) Flux() units.Quantity { return s.flux.Clone() }

// Uncertainty returns a copy of the uncertainty, if present.
func (s *Spectrum1D) Uncertainty() (Uncertainty, bool) {
	if s.uncertainty == nil {
		return Uncertainty{}, false
	}
	return Uncertainty{Quantity: s.uncertainty.Clone(), Kind: s.uncertainty.Kind}, true
}

// Mask returns a copy of the bad-pixel mask, or nil.
func (s *Spectrum1D) Mask() []bool {
	if s.mask == nil {
		return nil
	}
	return append([]bool(nil), s.mask...)
}

// Meta returns a copy of the metadata.
func (s *Spectrum1D) Meta() map[string]string {
	out := make(map[string]string, len(s.meta))
	for k, v := range s.meta {
		out[k] = v
	}
	return out
}

// Source names where the spectrum came from.
func (s *Spectrum1D) Source() string { return s.source }

// Format is the loader format identifier that produced the spectrum.
func (s *Spectrum1D) Format() string { return s.format }

// Ascending reports whether the spectral axis increases with index.
func (s *Spectrum1D) Ascending() bool {
	return s.axis.Len() < 2 || s.axis.Values[1] > s.axis.Values[0]
}

// ConvertSpectralAxis returns a new spectrum whose axis values are scaled into
// unit. Only linear conversions within one dimension are supported, so
// wavelength to frequency is rejected.
func (s *Spectrum1D) ConvertSpectralAxis(unit string) (*Spectrum1D, error) {
	to, err := units.Parse(unit)
	if err != nil {
		return nil, fmt.Errorf("convert spectral axis: %w", err)
	}
	k, err := units.ConversionFactor(s.axis.Unit, to)
	if err != nil {
		return nil, fmt.Errorf("convert spectral axis: %w", err)
	}
	out := *s
	vals := make([]float64, s.axis.Len())
	vecmath.ScaleBlock(vals, s.axis.Values, k)
	out.axis = units.Quantity{Values: vals, Unit: to}
	return &out, nil
}
