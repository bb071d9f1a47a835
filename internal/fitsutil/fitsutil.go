// Package fitsutil adapts astrogo/fitsio to the shapes the spectral loaders
// need: typed header lookups, images as float64 and tables as per-row float
// slices.
package fitsutil

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/astrogo/fitsio"
	"github.com/cwbudde/algo-vecmath"
)

// File is an opened FITS stream.
type File struct {
	f    *fitsio.File
	hdus []fitsio.HDU
}

// Open decodes every HDU in r. The caller still owns r.
func Open(r io.Reader) (*File, error) {
	f, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("open fits: %w", err)
	}
	return &File{f: f, hdus: f.HDUs()}, nil
}

// Close releases decoded HDUs.
func (f *File) Close() error { return f.f.Close() }

// Len returns the number of HDUs.
func (f *File) Len() int { return len(f.hdus) }

// HDU returns the i-th HDU (0 is the primary).
func (f *File) HDU(i int) (HDU, error) {
	if i < 0 || i >= len(f.hdus) {
		return HDU{}, fmt.Errorf("fits hdu %d: out of range (file has %d)", i, len(f.hdus))
	}
	return HDU{hdu: f.hdus[i], index: i}, nil
}

// Primary returns the primary header.
func (f *File) Primary() Header {
	return Header{h: f.hdus[0].Header()}
}

// HDU is one header/data unit.
type HDU struct {
	hdu   fitsio.HDU
	index int
}

func (h HDU) Index() int     { return h.index }
func (h HDU) Header() Header { return Header{h: h.hdu.Header()} }

// IsImage reports whether the HDU holds an image (including the primary).
func (h HDU) IsImage() bool {
	_, ok := h.hdu.(fitsio.Image)
	return ok
}

// IsTable reports whether the HDU holds a binary or ASCII table.
func (h HDU) IsTable() bool {
	_, ok := h.hdu.(*fitsio.Table)
	return ok
}

// Axes returns NAXISn, NAXIS1 first.
func (h HDU) Axes() []int { return h.hdu.Header().Axes() }

// Image decodes the data unit as float64. Integer pixels equal to BLANK
// become NaN; BSCALE and BZERO are applied after.
func (h HDU) Image() ([]float64, error) {
	img, ok := h.hdu.(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("fits hdu %d: not an image", h.index)
	}
	hdr := h.Header()
	n := 0
	if axes := h.Axes(); len(axes) > 0 {
		n = 1
		for _, d := range axes {
			n *= d
		}
	}
	if n == 0 {
		return []float64{}, nil
	}
	blank, hasBlank := hdr.Int("BLANK")
	vals, err := readPixels(img, h.hdu.Header().Bitpix(), n, int64(blank), hasBlank)
	if err != nil {
		return nil, fmt.Errorf("fits hdu %d: %w", h.index, err)
	}
	if scale, ok := hdr.Float("BSCALE"); ok && scale != 1 {
		vecmath.ScaleBlock(vals, vals, scale)
	}
	if zero, ok := hdr.Float("BZERO"); ok && zero != 0 {
		offset := make([]float64, len(vals))
		for i := range offset {
			offset[i] = zero
		}
		vecmath.AddBlockInPlace(vals, offset)
	}
	return vals, nil
}

func readPixels(img fitsio.Image, bitpix, n int, blank int64, hasBlank bool) ([]float64, error) {
	switch bitpix {
	case 8:
		buf := make([]uint8, n)
		if err := img.Read(&buf); err != nil {
			return nil, err
		}
		return widenInt(buf, blank, hasBlank), nil
	case 16:
		buf := make([]int16, n)
		if err := img.Read(&buf); err != nil {
			return nil, err
		}
		return widenInt(buf, blank, hasBlank), nil
	case 32:
		buf := make([]int32, n)
		if err := img.Read(&buf); err != nil {
			return nil, err
		}
		return widenInt(buf, blank, hasBlank), nil
	case 64:
		buf := make([]int64, n)
		if err := img.Read(&buf); err != nil {
			return nil, err
		}
		return widenInt(buf, blank, hasBlank), nil
	case -32:
		buf := make([]float32, n)
		if err := img.Read(&buf); err != nil {
			return nil, err
		}
		out := make([]float64, n)
		for i, v := range buf {
			out[i] = float64(v)
		}
		return out, nil
	case -64:
		buf := make([]float64, n)
		if err := img.Read(&buf); err != nil {
			return nil, err
		}
		return buf, nil
	}
	return nil, fmt.Errorf("unsupported BITPIX %d", bitpix)
}

func widenInt[T uint8 | int16 | int32 | int64](src []T, blank int64, hasBlank bool) []float64 {
	out := make([]float64, len(src))
	for i, v := range src {
		if hasBlank && int64(v) == blank {
			out[i] = math.NaN()
			continue
		}
		out[i] = float64(v)
	}
	return out
}

// Header is a typed view of a FITS header.
type Header struct {
	h *fitsio.Header
}

// Has reports whether key is present.
func (h Header) Has(key string) bool { return h.h.Get(key) != nil }

// String returns key as text. Numeric values are formatted.
func (h Header) String(key string) (string, bool) {
	card := h.h.Get(key)
	if card == nil {
		return "", false
	}
	return valueString(card.Value), true
}

// Float returns key as a float64.
func (h Header) Float(key string) (float64, bool) {
	card := h.h.Get(key)
	if card == nil {
		return 0, false
	}
	switch v := card.Value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	f, err := strconv.ParseFloat(valueString(card.Value), 64)
	return f, err == nil
}

// Int returns key as an int.
func (h Header) Int(key string) (int, bool) {
	f, ok := h.Float(key)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// Keys lists header keywords in card order.
func (h Header) Keys() []string { return h.h.Keys() }

// Meta returns non-structural keywords as strings.
func (h Header) Meta() map[string]string {
	out := map[string]string{}
	for _, k := range h.h.Keys() {
		if k == "" || structural(k) {
			continue
		}
		if v, ok := h.String(k); ok {
			out[k] = v
		}
	}
	return out
}

func structural(key string) bool {
	switch key {
	case "SIMPLE", "XTENSION", "BITPIX", "EXTEND", "PCOUNT", "GCOUNT", "TFIELDS", "END", "COMMENT", "HISTORY":
		return true
	}
	for _, p := range []string{"NAXIS", "TTYPE", "TFORM", "TUNIT", "TDIM", "TNULL", "TSCAL", "TZERO", "TDISP"} {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

func valueString(v any) string {
	switch v := v.(type) {
	case string:
		return strings.TrimRight(v, " ")
	case bool:
		if v {
			return "T"
		}
		return "F"
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
