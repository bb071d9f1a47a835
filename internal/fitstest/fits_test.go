package fitstest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardEncode(t *testing.T) {
	tests := []struct {
		card Card
		want string
	}{
		{Card{Key: "SIMPLE", Value: true}, "SIMPLE  =                    T"},
		{Card{Key: "NAXIS1", Value: 3020}, "NAXIS1  =                 3020"},
		{Card{Key: "CDELT1", Value: 2.0}, "CDELT1  =              2.0E+00"},
		{Card{Key: "OBJECT", Value: "M31"}, "OBJECT  = 'M31     '"},
		{Card{Key: "OBSERVER", Value: "O'Brien"}, "OBSERVER= 'O''Brien'"},
	}
	for _, tt := range tests {
		t.Run(tt.card.Key, func(t *testing.T) {
			got := tt.card.encode()
			assert.Len(t, got, cardSize)
			assert.Equal(t, tt.want, strings.TrimRight(got, " "))
		})
	}
}

func TestBuild_BlockAligned(t *testing.T) {
	data := Build(&Image{Shape: []int{10}, Data: Ramp(10, 0, 1)},
		&Table{Columns: []Column{Scalar("A", "", 'D', 1, 2, 3)}})
	require.Zero(t, len(data)%blockSize)
	assert.True(t, strings.HasPrefix(string(data), "SIMPLE  ="))
	assert.Contains(t, string(data), "XTENSION= 'BINTABLE'")
	assert.Contains(t, string(data), "TFORM1  = 'D       '")
}

func TestMerge(t *testing.T) {
	base := []Card{{Key: "A", Value: 1}, {Key: "B", Value: 2}}
	got := Merge(base, Card{Key: "b", Value: 3}, Card{Key: "A", Value: nil}, Card{Key: "C", Value: "x"})
	assert.Equal(t, []Card{{Key: "b", Value: 3}, {Key: "C", Value: "x"}}, got)
	assert.Len(t, base, 2)
}

func TestFixturesBuild(t *testing.T) {
	for _, data := range [][]byte{WCS1D(3020), COS("FUV"), COS("NUV"), STIS("FUV-MAMA"), STIS("NUV-MAMA"), STIS("CCD"), STISEchelle()} {
		assert.Zero(t, len(data)%blockSize)
	}
	assert.Panics(t, func() { COS("XUV") })
}
