package detect

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/specio/internal/fitstest"
)

func TestSniff(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  Format
	}{
		{"ecsv", []byte("# %ECSV 1.0\n# ---\n"), ECSV},
		{"ecsv with bom", []byte("\xef\xbb\xbf# %ECSV 1.0\n"), ECSV},
		{"fits", fitstest.WCS1D(10), FITS},
		{"fits simple false", []byte("SIMPLE  =                    F"), Unknown},
		{"fits truncated", []byte("SIMPLE  =  "), Unknown},
		{"empty", nil, Unknown},
		{"plain csv", []byte("wave,flux\n1,2\n"), Unknown},
		{"comment but not ecsv", []byte("# wave flux\n"), Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sniff(tt.input))
		})
	}
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "fits", FITS.String())
	assert.Equal(t, "ecsv", ECSV.String())
	assert.Equal(t, "unknown", Unknown.String())
}

func TestPeekFITS_PrimaryAndTable(t *testing.T) {
	data := fitstest.COS("FUV")

	hdrs, err := PeekFITS(bytes.NewReader(data), 4)
	require.NoError(t, err)
	require.Len(t, hdrs, 2)

	assert.Equal(t, "PRIMARY", hdrs[0].Kind)
	tel, ok := hdrs[0].Get("TELESCOP")
	assert.True(t, ok)
	assert.Equal(t, "HST", tel)
	inst, _ := hdrs[0].Get("INSTRUME")
	assert.Equal(t, "COS", inst)

	assert.Equal(t, "BINTABLE", hdrs[1].Kind)
	assert.Equal(t, 1, hdrs[1].Index)
	assert.Equal(t, []string{"SEGMENT", "NELEM", "WAVELENGTH", "FLUX", "ERROR", "DQ"}, hdrs[1].Columns())
	rows, ok := hdrs[1].Int("NAXIS2")
	assert.True(t, ok)
	assert.Equal(t, 2, rows)
}

func TestPeekFITS_StopsAtMax(t *testing.T) {
	hdrs, err := PeekFITS(bytes.NewReader(fitstest.COS("NUV")), 1)
	require.NoError(t, err)
	assert.Len(t, hdrs, 1)
}

func TestPeekFITS_ImageData(t *testing.T) {
	hdrs, err := PeekFITS(bytes.NewReader(fitstest.WCS1D(3020)), 2)
	require.NoError(t, err)
	require.Len(t, hdrs, 1)
	n, _ := hdrs[0].Int("NAXIS1")
	assert.Equal(t, 3020, n)
	crval, _ := hdrs[0].Get("CRVAL1")
	assert.Equal(t, "3.5E+03", crval)
}

func TestPeekFITS_NotFITS(t *testing.T) {
	_, err := PeekFITS(bytes.NewReader(bytes.Repeat([]byte("x"), 2880)), 1)
	assert.ErrorIs(t, err, ErrNotFITS)

	_, err = PeekFITS(bytes.NewReader([]byte("short")), 1)
	assert.Error(t, err)
}

func TestCardValue(t *testing.T) {
	assert.Equal(t, "O'Brien", cardValue("'O''Brien '           / observer"))
	assert.Equal(t, "42", cardValue("                  42 / answer"))
	assert.Equal(t, "T", cardValue("                   T"))
}
