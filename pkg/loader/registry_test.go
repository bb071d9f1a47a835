package loader

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/specio/internal/fitstest"
	"github.com/dkoosis/specio/pkg/spectrum"
	"github.com/dkoosis/specio/pkg/units"
)

// countingSource records how many handles were opened and closed.
type countingSource struct {
	Source
	opens, closes int
}

func (c *countingSource) Open() (io.ReadCloser, error) {
	c.opens++
	rc, err := c.Source.Open()
	if err != nil {
		return nil, err
	}
	return &countingCloser{ReadCloser: rc, src: c}, nil
}

type countingCloser struct {
	io.ReadCloser
	src *countingSource
}

func (c *countingCloser) Close() error {
	c.src.closes++
	return c.ReadCloser.Close()
}

// stubAdapter answers a fixed match and returns a one-sample spectrum.
type stubAdapter struct {
	name  string
	match Match
}

func (s *stubAdapter) Name() string           { return s.name }
func (s *stubAdapter) Detect(Source) Match    { return s.match }
func (s *stubAdapter) Parse(src Source, _ Options) (*spectrum.Spectrum1D, error) {
	return spectrum.New(
		units.Quantity{Values: []float64{1}, Unit: units.MustParse("nm")},
		units.Quantity{Values: []float64{2}, Unit: units.MustParse("Jy")},
		spectrum.WithProvenance(src.Name(), s.name),
	)
}

func TestNewRegistry_Formats(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{FormatECSV, FormatWCS1D, FormatTabular, FormatCOS, FormatSTIS}, r.Formats())
	for _, f := range r.Formats() {
		assert.True(t, r.Has(f))
		a, ok := r.Adapter(f)
		require.True(t, ok)
		assert.Equal(t, f, a.Name())
	}
	assert.False(t, r.Has("hst/cos"), "identifiers are case-sensitive")
}

func TestRegister_OverwriteKeepsPosition(t *testing.T) {
	r := NewRegistry()
	replacement := &stubAdapter{name: FormatWCS1D}
	r.Register(replacement)
	r.Register(&stubAdapter{name: "custom"})

	assert.Equal(t, []string{FormatECSV, FormatWCS1D, FormatTabular, FormatCOS, FormatSTIS, "custom"}, r.Formats())
	a, _ := r.Adapter(FormatWCS1D)
	assert.Same(t, replacement, a)
}

func TestRead_UnknownFormatTouchesNoIO(t *testing.T) {
	src := &countingSource{Source: File(filepath.Join(t.TempDir(), "missing.fits"))}

	_, err := NewRegistry().Read(src, "not-a-format", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Zero(t, src.opens)

	var le *Error
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "not-a-format", le.Format)
	assert.Contains(t, err.Error(), `unknown format "not-a-format"`)
}

func TestDetect_BuiltinFormats(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"ecsv", []byte("# %ECSV 1.0\n# ---\n# datatype:\n# - {name: wave, datatype: float64}\n# - {name: flux, datatype: float64}\nwave flux\n1 2\n"), FormatECSV},
		{"wcs1d", fitstest.WCS1D(50), FormatWCS1D},
		{"cos fuv", fitstest.COS("FUV"), FormatCOS},
		{"cos nuv", fitstest.COS("NUV"), FormatCOS},
		{"stis ccd", fitstest.STIS("CCD"), FormatSTIS},
		{"tabular", sdssLike(), FormatTabular},
	}
	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &countingSource{Source: Bytes(tt.name, tt.data)}
			got, err := r.Detect(src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, src.opens, src.closes)
		})
	}
}

func TestDetect_Failed(t *testing.T) {
	for name, data := range map[string][]byte{
		"random":     []byte("\x00\x01\x02garbage that is not a spectrum"),
		"empty":      nil,
		"empty fits": fitstest.Build(nil),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewRegistry().Detect(Bytes(name, data))
			assert.ErrorIs(t, err, ErrDetectionFailed)
			assert.Equal(t, ErrDetectionFailed, KindOf(err))
		})
	}
}

func TestDetect_Ambiguous(t *testing.T) {
	r := NewEmptyRegistry()
	r.Register(&stubAdapter{name: "a", match: Specific})
	r.Register(&stubAdapter{name: "b", match: Generic})
	r.Register(&stubAdapter{name: "c", match: Specific})

	_, err := r.Detect(Bytes("x", []byte("x")))
	require.ErrorIs(t, err, ErrAmbiguousFormat)
	var le *Error
	require.True(t, errors.As(err, &le))
	assert.Equal(t, []string{"a", "c"}, le.Candidates)
	assert.Contains(t, err.Error(), "candidates a, c")
}

func TestDetect_GenericTieGoesToFirstRegistered(t *testing.T) {
	r := NewEmptyRegistry()
	r.Register(&stubAdapter{name: "none", match: NoMatch})
	r.Register(&stubAdapter{name: "first", match: Generic})
	r.Register(&stubAdapter{name: "second", match: Generic})

	for i := 0; i < 5; i++ {
		got, err := r.Detect(Bytes("x", []byte("x")))
		require.NoError(t, err)
		assert.Equal(t, "first", got)
	}

	r.Register(&stubAdapter{name: "specific", match: Specific})
	got, err := r.Detect(Bytes("x", []byte("x")))
	require.NoError(t, err)
	assert.Equal(t, "specific", got)
}

func TestDetect_UnreadableSource(t *testing.T) {
	_, err := NewRegistry().Read(File(filepath.Join(t.TempDir(), "nope.fits")), "", Options{})
	assert.ErrorIs(t, err, ErrUnreadableSource)
}

func TestRead_WithLoggerTracesDetection(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := NewRegistry(WithLogger(logger))

	_, err := r.Read(Bytes("wcs.fits", fitstest.WCS1D(20)), "", Options{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "detect probe")
	assert.Contains(t, buf.String(), "format=wcs1d-fits")
}

func TestRead_AdapterErrorsCarryContext(t *testing.T) {
	_, err := NewRegistry().Read(Bytes("bad.ecsv", []byte("# %ECSV 1.0\nnot yaml")), FormatECSV, Options{})
	require.Error(t, err)
	var le *Error
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ErrMalformedSource, le.Kind)
	assert.Equal(t, FormatECSV, le.Format)
	assert.Equal(t, "bad.ecsv", le.Source)
	assert.True(t, strings.HasPrefix(err.Error(), "read bad.ecsv as generic-ecsv: "))
}

func TestDefaultRegistry(t *testing.T) {
	s, err := Read(Bytes("d.fits", fitstest.WCS1D(5)), FormatWCS1D, Options{})
	require.NoError(t, err)
	assert.Equal(t, 5, s.Len())
	assert.True(t, Default.Has(FormatSTIS))
}

func TestMatchString(t *testing.T) {
	assert.Equal(t, "specific", Specific.String())
	assert.Equal(t, "generic", Generic.String())
	assert.Equal(t, "none", NoMatch.String())
}
