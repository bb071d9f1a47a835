// Package wcs evaluates the spectral world coordinate system of one image
// axis: linear, log10-linear (IRAF DC-FLAG) and natural-log (CTYPE -LOG).
package wcs

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-vecmath"
)

var (
	// ErrMissing means the header lacks a reference value or step.
	ErrMissing = errors.New("missing wcs keyword")
	// ErrUnsupported means the header describes a WCS this package cannot evaluate.
	ErrUnsupported = errors.New("unsupported wcs")
)

// Header is the keyword lookup FromHeader needs.
type Header interface {
	Float(key string) (float64, bool)
	String(key string) (string, bool)
}

// Kind selects the pixel to world mapping.
type Kind int

const (
	Linear Kind = iota
	Log10       // world = 10^(linear)
	Ln          // world = crval * exp(linear offset / crval)
)

func (k Kind) String() string {
	switch k {
	case Log10:
		return "log10"
	case Ln:
		return "log"
	default:
		return "linear"
	}
}

// Transform maps 0-based pixel indices to world values.
type Transform struct {
	RefValue float64 // CRVALn
	RefPixel float64 // CRPIXn, 1-based
	Step     float64 // CDELTn or CDn_n
	Kind     Kind
	Unit     string // CUNITn or IRAF WAT units, may be empty
	Type     string // CTYPEn
}

// FromHeader reads the WCS of axis (1-based).
func FromHeader(h Header, axis int) (Transform, error) {
	n := strconv.Itoa(axis)
	var t Transform

	ctype, _ := h.String("CTYPE" + n)
	t.Type = strings.TrimSpace(ctype)
	if strings.EqualFold(t.Type, "MULTISPE") || isMultispec(h) {
		return t, fmt.Errorf("%w: IRAF multispec", ErrUnsupported)
	}

	var ok bool
	if t.RefValue, ok = h.Float("CRVAL" + n); !ok {
		return t, fmt.Errorf("%w: CRVAL%s", ErrMissing, n)
	}
	if t.Step, ok = h.Float("CDELT" + n); !ok || t.Step == 0 {
		if t.Step, ok = h.Float("CD" + n + "_" + n); !ok {
			return t, fmt.Errorf("%w: CDELT%s or CD%s_%s", ErrMissing, n, n, n)
		}
	}
	if t.Step == 0 {
		return t, fmt.Errorf("%w: zero step on axis %s", ErrUnsupported, n)
	}
	if t.RefPixel, ok = h.Float("CRPIX" + n); !ok {
		t.RefPixel = 1
	}

	switch {
	case strings.HasSuffix(strings.ToUpper(t.Type), "-LOG"):
		t.Kind = Ln
		if t.RefValue == 0 {
			return t, fmt.Errorf("%w: logarithmic axis with zero reference value", ErrUnsupported)
		}
	case isLog10(h):
		t.Kind = Log10
	}

	if u, ok := h.String("CUNIT" + n); ok && strings.TrimSpace(u) != "" {
		t.Unit = strings.TrimSpace(u)
	} else if wat, ok := h.String("WAT" + n + "_001"); ok {
		t.Unit = watUnits(wat)
	}
	return t, nil
}

// World returns the world value at 0-based pixel p.
func (t Transform) World(p int) float64 {
	return t.apply(t.Step * (float64(p) + 1 - t.RefPixel))
}

func (t Transform) apply(offset float64) float64 {
	switch t.Kind {
	case Log10:
		return math.Pow(10, t.RefValue+offset)
	case Ln:
		return t.RefValue * math.Exp(offset/t.RefValue)
	default:
		return t.RefValue + offset
	}
}

// Pixels evaluates the first n pixels.
func (t Transform) Pixels(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) + 1 - t.RefPixel
	}
	vecmath.ScaleBlock(out, out, t.Step)
	if t.Kind == Linear {
		ref := make([]float64, n)
		for i := range ref {
			ref[i] = t.RefValue
		}
		vecmath.AddBlockInPlace(out, ref)
		return out
	}
	for i, off := range out {
		out[i] = t.apply(off)
	}
	return out
}

func isLog10(h Header) bool {
	f, ok := h.Float("DC-FLAG")
	return ok && f == 1
}

func isMultispec(h Header) bool {
	wat, ok := h.String("WAT0_001")
	return ok && strings.Contains(strings.ToLower(wat), "system=multispec")
}

// watUnits extracts "units=..." from an IRAF WAT attribute string.
func watUnits(wat string) string {
	for _, field := range strings.Fields(wat) {
		if v, ok := strings.CutPrefix(field, "units="); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
