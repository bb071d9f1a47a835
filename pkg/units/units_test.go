package units

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_KnownUnits(t *testing.T) {
	tests := []struct {
		in       string
		wantType string
		scale    float64
	}{
		{"Angstrom", "wavelength", 1e-10},
		{"AA", "wavelength", 1e-10},
		{"Angstroms", "wavelength", 1e-10},
		{"nm", "wavelength", 1e-9},
		{"um", "wavelength", 1e-6},
		{"micron", "wavelength", 1e-6},
		{"GHz", "frequency", 1e9},
		{"keV", "energy", 1e3 * electronVolt},
		{"cm-1", "wavenumber", 100},
		{"Jy", "", 1e-26},
		{"erg / (s cm2 Angstrom)", "", 1e-7 / (1e-4 * 1e-10)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			u, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.in, u.String())
			assert.Equal(t, tt.wantType, u.PhysicalType())
			assert.InEpsilon(t, tt.scale, u.Scale(), 1e-12)
		})
	}
}

func TestParse_FluxSpellingsAreEquivalent(t *testing.T) {
	spellings := []string{
		"erg / (s cm2 Angstrom)",
		"erg/s/cm**2/Angstrom",
		"erg/s/cm^2/Angstrom",
		"erg s-1 cm-2 AA-1",
		"erg.s-1.cm-2.Angstrom-1",
		"erg/cm^2/s/Ang",
	}
	ref := MustParse(spellings[0])
	for _, s := range spellings[1:] {
		u, err := Parse(s)
		require.NoError(t, err, s)
		assert.True(t, Equivalent(ref, u), "%q should equal %q", s, spellings[0])
	}
}

func TestParse_LeadingScaleFactor(t *testing.T) {
	u, err := Parse("1e-17 erg/s/cm2/Angstrom")
	require.NoError(t, err)
	ref := MustParse("erg/s/cm2/Angstrom")
	assert.True(t, Compatible(u, ref))
	assert.InEpsilon(t, 1e-17*ref.Scale(), u.Scale(), 1e-12)
}

func TestParse_Empty(t *testing.T) {
	u, err := Parse("  ")
	require.NoError(t, err)
	assert.True(t, u.IsDimensionless())
	assert.Equal(t, "", u.String())
	assert.Equal(t, 1.0, u.Scale())
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("furlong")
	assert.True(t, errors.Is(err, ErrUnknownUnit), "got %v", err)

	_, err = Parse("erg / (s cm2")
	assert.True(t, errors.Is(err, ErrSyntax), "got %v", err)

	_, err = Parse("m^x")
	assert.True(t, errors.Is(err, ErrSyntax), "got %v", err)

	for _, text := range []string{"m^200", "cm^(-300)", "s300", "Hz-128"} {
		_, err = Parse(text)
		assert.True(t, errors.Is(err, ErrSyntax), "%s: got %v", text, err)
	}
	u, err := Parse("m^127")
	require.NoError(t, err)
	assert.NotEqual(t, Dimensionless.String(), u.String())
}

func TestCompatible(t *testing.T) {
	assert.True(t, Compatible(MustParse("Angstrom"), MustParse("nm")))
	assert.True(t, Compatible(MustParse("Jy"), MustParse("W m-2 Hz-1")))
	assert.False(t, Compatible(MustParse("Angstrom"), MustParse("Hz")))
	assert.False(t, Compatible(MustParse("Jy"), MustParse("erg/s/cm2/Angstrom")))
	assert.True(t, Compatible(MustParse("count"), Dimensionless))
}

func TestConversionFactor(t *testing.T) {
	k, err := ConversionFactor(MustParse("nm"), MustParse("Angstrom"))
	require.NoError(t, err)
	assert.InEpsilon(t, 10.0, k, 1e-12)

	_, err = ConversionFactor(MustParse("nm"), MustParse("Hz"))
	assert.ErrorIs(t, err, ErrIncompatible)
}

func TestWithText(t *testing.T) {
	u := MustParse("AA").WithText(" Angstrom ")
	assert.Equal(t, "Angstrom", u.String())
	assert.True(t, Equivalent(u, MustParse("Angstrom")))
}

func TestQuantityClone(t *testing.T) {
	q := Quantity{Values: []float64{1, 2, 3}, Unit: MustParse("Jy")}
	c := q.Clone()
	c.Values[0] = 99
	assert.Equal(t, 1.0, q.Values[0])
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, "Jy", c.Unit.String())
}
