package fitsutil

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/specio/internal/fitstest"
)

func open(t *testing.T, data []byte) *File {
	t.Helper()
	f, err := Open(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestImage_Float64(t *testing.T) {
	f := open(t, fitstest.WCS1D(100, fitstest.Card{Key: "BUNIT", Value: "Jy"}))
	require.Equal(t, 1, f.Len())

	hdu, err := f.HDU(0)
	require.NoError(t, err)
	assert.True(t, hdu.IsImage())
	assert.False(t, hdu.IsTable())
	assert.Equal(t, []int{100}, hdu.Axes())

	vals, err := hdu.Image()
	require.NoError(t, err)
	assert.InDeltaSlice(t, fitstest.Wave(100, 1e-15), vals, 1e-30)

	hdr := hdu.Header()
	crval, ok := hdr.Float("CRVAL1")
	assert.True(t, ok)
	assert.Equal(t, 3500.0, crval)
	bunit, ok := hdr.String("BUNIT")
	assert.True(t, ok)
	assert.Equal(t, "Jy", bunit)
	_, ok = hdr.Float("CUNIT1")
	assert.False(t, ok)
	assert.Equal(t, "Jy", hdr.Meta()["BUNIT"])
	assert.NotContains(t, hdr.Meta(), "NAXIS1")
}

func TestImage_ScaledIntegers(t *testing.T) {
	data := fitstest.Build(&fitstest.Image{
		Bitpix: 16,
		Shape:  []int{4},
		Data:   []float64{0, 1, 2, -3},
		Header: []fitstest.Card{{Key: "BSCALE", Value: 0.5}, {Key: "BZERO", Value: 10.0}},
	})
	f := open(t, data)
	hdu, err := f.HDU(0)
	require.NoError(t, err)

	vals, err := hdu.Image()
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 10.5, 11, 8.5}, vals)
}

func TestImage_BlankIsNaN(t *testing.T) {
	for _, bitpix := range []int{16, 32} {
		data := fitstest.Build(&fitstest.Image{
			Bitpix: bitpix,
			Shape:  []int{5},
			Data:   []float64{1, -32768, 3, -32768, 5},
			Header: []fitstest.Card{{Key: "BLANK", Value: -32768}, {Key: "BZERO", Value: 100.0}},
		})
		hdu, err := open(t, data).HDU(0)
		require.NoError(t, err)

		vals, err := hdu.Image()
		require.NoError(t, err, "bitpix %d", bitpix)
		require.Len(t, vals, 5)
		assert.Equal(t, 101.0, vals[0])
		assert.True(t, math.IsNaN(vals[1]), "bitpix %d", bitpix)
		assert.Equal(t, 103.0, vals[2])
		assert.True(t, math.IsNaN(vals[3]), "bitpix %d", bitpix)
		assert.Equal(t, 105.0, vals[4])
	}
}

func TestImage_Float32(t *testing.T) {
	data := fitstest.Build(&fitstest.Image{
		Bitpix: -32,
		Shape:  []int{3},
		Data:   []float64{1.5, -2.25, 0},
		Header: []fitstest.Card{{Key: "BLANK", Value: 0}},
	})
	hdu, err := open(t, data).HDU(0)
	require.NoError(t, err)

	vals, err := hdu.Image()
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -2.25, 0}, vals, "BLANK only applies to integer data")
}

func TestTable_Decode(t *testing.T) {
	f := open(t, fitstest.COS("FUV"))
	require.Equal(t, 2, f.Len())

	tel, _ := f.Primary().String("TELESCOP")
	assert.Equal(t, "HST", tel)

	hdu, err := f.HDU(1)
	require.NoError(t, err)
	require.True(t, hdu.IsTable())

	tbl, err := hdu.Table()
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Rows)
	assert.Equal(t, []string{"SEGMENT", "NELEM", "WAVELENGTH", "FLUX", "ERROR", "DQ"}, tbl.Names())

	seg := tbl.Column("segment")
	require.NotNil(t, seg)
	assert.True(t, seg.IsText())
	assert.Equal(t, []string{"FUVA", "FUVB"}, seg.Strings)

	wave := tbl.Column("WAVELENGTH")
	require.NotNil(t, wave)
	assert.Equal(t, "Angstrom", wave.Unit)
	require.Len(t, wave.Floats, 2)
	assert.Len(t, wave.Floats[0], 512)
	assert.Equal(t, 1300.0, wave.Floats[0][0])

	nelem := tbl.Column("NELEM")
	assert.Equal(t, [][]float64{{480}, {500}}, nelem.Floats)

	dq := tbl.Column("DQ")
	assert.Equal(t, 16.0, dq.Floats[0][7])
}

func TestHDU_OutOfRange(t *testing.T) {
	f := open(t, fitstest.WCS1D(10))
	_, err := f.HDU(3)
	assert.Error(t, err)

	hdu, err := f.HDU(0)
	require.NoError(t, err)
	_, err = hdu.Table()
	assert.Error(t, err)
}

func TestOpen_NotFITS(t *testing.T) {
	_, err := Open(bytes.NewReader([]byte("# %ECSV 1.0\n")))
	assert.Error(t, err)
}
