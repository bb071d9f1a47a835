// Package units parses physical unit strings and answers the two questions the
// spectral loaders need: are two units dimensionally compatible, and what is
// the linear factor between them.
//
// Only the subset of units that appears in spectroscopic file metadata is
// known: lengths (m with SI prefixes, Angstrom, micron), frequency, energy,
// power, flux density (Jy), time, mass and a few dimensionless counters
// (count, electron, adu, photon). Angles are treated as dimensionless.
package units

import (
	"fmt"
	"math"
	"strings"
)

// Base dimensions, in SI order.
const (
	dimLength = iota
	dimMass
	dimTime
	dimCurrent
	dimTemperature
	dimAmount
	dimLuminous
	numDims
)

type dimension [numDims]int8

func (d dimension) add(o dimension) dimension {
	for i := range d {
		d[i] += o[i]
	}
	return d
}

func (d dimension) scale(n int8) dimension {
	for i := range d {
		d[i] *= n
	}
	return d
}

// Unit is a parsed unit. The zero value is the dimensionless unit.
type Unit struct {
	text  string
	scale float64 // factor to SI base units
	dim   dimension
	set   bool // scale was assigned; zero value means scale 1
}

// Dimensionless is the unit of plain numbers.
var Dimensionless = Unit{}

// String returns the unit text as it was given to Parse, trimmed.
func (u Unit) String() string { return u.text }

// Scale returns the factor that converts a value in u to SI base units.
func (u Unit) Scale() float64 {
	if !u.set {
		return 1
	}
	return u.scale
}

// IsDimensionless reports whether u carries no physical dimension.
func (u Unit) IsDimensionless() bool { return u.dim == dimension{} }

// Compatible reports whether a and b measure the same physical dimension.
func Compatible(a, b Unit) bool { return a.dim == b.dim }

// Equivalent reports whether a and b are the same unit, ignoring spelling.
func Equivalent(a, b Unit) bool {
	if !Compatible(a, b) {
		return false
	}
	sa, sb := a.Scale(), b.Scale()
	return math.Abs(sa-sb) <= 1e-12*math.Max(math.Abs(sa), math.Abs(sb))
}

// ConversionFactor returns k such that value_in_to = k * value_in_from.
func ConversionFactor(from, to Unit) (float64, error) {
	if !Compatible(from, to) {
		return 0, fmt.Errorf("%w: %q and %q", ErrIncompatible, from.text, to.text)
	}
	return from.Scale() / to.Scale(), nil
}

// PhysicalType names what a spectral-axis unit measures: "wavelength",
// "frequency", "energy", "wavenumber", or "" for anything else.
func (u Unit) PhysicalType() string {
	switch u.dim {
	case dimension{dimLength: 1}:
		return "wavelength"
	case dimension{dimTime: -1}:
		return "frequency"
	case dimension{dimMass: 1, dimLength: 2, dimTime: -2}:
		return "energy"
	case dimension{dimLength: -1}:
		return "wavenumber"
	}
	return ""
}

// IsSpectral reports whether u can label a spectral axis.
func (u Unit) IsSpectral() bool { return u.PhysicalType() != "" }

// WithText returns u relabelled with text. Used when a caller asks for a
// specific spelling of an equivalent unit.
func (u Unit) WithText(text string) Unit {
	u.text = strings.TrimSpace(text)
	return u
}

func (u Unit) mul(o Unit) Unit {
	return Unit{scale: u.Scale() * o.Scale(), dim: u.dim.add(o.dim), set: true}
}

func (u Unit) pow(n int8) Unit {
	return Unit{scale: math.Pow(u.Scale(), float64(n)), dim: u.dim.scale(n), set: true}
}

// Quantity is a sequence of values sharing one unit.
type Quantity struct {
	Values []float64
	Unit   Unit
}

// Len returns the number of values.
func (q Quantity) Len() int { return len(q.Values) }

// Clone returns a deep copy of q.
func (q Quantity) Clone() Quantity {
	vals := make([]float64, len(q.Values))
	copy(vals, q.Values)
	return Quantity{Values: vals, Unit: q.Unit}
}
