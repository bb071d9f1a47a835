package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/specio/internal/fitstest"
	"github.com/dkoosis/specio/internal/metrics"
	"github.com/dkoosis/specio/pkg/ecsv"
)

// --- End-to-end tests ---
// These exercise the full pipeline: file → detect → adapter → map → render → stdout

// isolate runs the test in an empty working directory with no config or
// environment overrides.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range []string{
		"SPECIO_FORMAT", "SPECIO_SPECTRAL_AXIS_UNIT", "SPECIO_OUTPUT", "SPECIO_THEME",
		"SPECIO_LOG_LEVEL", "SPECIO_CATALOG", "SPECIO_SAMPLE_ROWS", "SPECIO_NO_COLOR",
		"SPECIO_WAVE_COLUMN", "SPECIO_FLUX_COLUMN", "SPECIO_UNCERTAINTY_COLUMN", "NO_COLOR",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func specio(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, strings.NewReader(""), &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeFixture(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writeECSV(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "table.ecsv")
	require.NoError(t, ecsv.WriteFile(path, &ecsv.Table{Columns: []*ecsv.Column{
		ecsv.NewFloatColumn("wave", "Angstrom", fitstest.Ramp(10, 6560, 0.5)),
		ecsv.NewFloatColumn("flux", "Jy", fitstest.Wave(10, 1)),
		ecsv.NewFloatColumn("uncertainty", "Jy", fitstest.Wave(10, 0.01)),
	}}))
	return path
}

func TestRead_ECSV_LLM(t *testing.T) {
	dir := isolate(t)
	path := writeECSV(t, dir)

	code, out, _ := specio("read", path, "-o", "llm")

	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "SCOPE: SPECTRUM: "+path)
	assert.Contains(t, out, "Format: generic-ecsv")
	assert.Contains(t, out, "Samples: 10")
	assert.Contains(t, out, "Uncertainty: std dev [Jy]")
	assert.NotContains(t, out, "\033[", "LLM output contains ANSI escape codes")
}

func TestRead_WCS1D_ConvertAxis(t *testing.T) {
	dir := isolate(t)
	path := writeFixture(t, dir, "wcs.fits", fitstest.WCS1D(50))

	code, out, _ := specio("read", path, "-o", "llm")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Format: wcs1d-fits")
	assert.Contains(t, out, "3500 .. 3598 Angstrom (ascending)")

	code, out, _ = specio("read", path, "-o", "llm", "--convert-axis", "nm")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "350 .. 359.8 nm (ascending)")
}

func TestRead_JSON(t *testing.T) {
	dir := isolate(t)
	path := writeFixture(t, dir, "cos.fits", fitstest.COS("FUV"))

	code, out, _ := specio("read", path, "-o", "json", "--sample-rows", "3")
	require.Equal(t, exitOK, code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
	assert.Equal(t, "1.0", doc["version"])
	assert.Contains(t, out, "HST/COS")
}

func TestRead_SampleRowsZeroHidesTable(t *testing.T) {
	dir := isolate(t)
	path := writeECSV(t, dir)
	t.Setenv("SPECIO_SAMPLE_ROWS", "5")

	_, out, _ := specio("read", path, "-o", "llm")
	assert.Contains(t, out, "... (5 more rows)")

	code, out, _ := specio("read", path, "-o", "llm", "--sample-rows", "0")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Samples: 10")
	assert.NotContains(t, out, "more rows")
	assert.NotContains(t, out, "wavelength [Angstrom] |")
}

func TestRead_ExplicitFormatAndRows(t *testing.T) {
	dir := isolate(t)
	path := writeFixture(t, dir, "nuv.fits", fitstest.COS("NUV"))

	code, out, _ := specio("read", path, "-o", "llm", "--format", "HST/COS", "--rows", "1")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Samples: 300")
}

func TestRead_Failures(t *testing.T) {
	dir := isolate(t)
	junk := writeFixture(t, dir, "junk.fits", []byte("not a spectrum at all"))
	wcs := writeFixture(t, dir, "wcs.fits", fitstest.WCS1D(10))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"undetectable", []string{"read", junk}, "(format detection failed)"},
		{"unknown format", []string{"read", wcs, "--format", "nope"}, "(unknown format)"},
		{"missing file", []string{"read", filepath.Join(dir, "missing.fits")}, "(unreadable source)"},
		{"unit override", []string{"read", wcs, "-u", "GHz"}, "(incompatible unit override)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, _ := specio(append(tt.args, "-o", "llm")...)
			assert.Equal(t, exitFailure, code)
			assert.Contains(t, out, "ERR ")
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestUsageErrors(t *testing.T) {
	dir := isolate(t)
	wcs := writeFixture(t, dir, "wcs.fits", fitstest.WCS1D(10))

	tests := []struct {
		name string
		args []string
	}{
		{"no file", []string{"read"}},
		{"unknown flag", []string{"read", wcs, "--bogus"}},
		{"unknown command", []string{"frobnicate"}},
		{"bad output mode", []string{"read", wcs, "-o", "xml"}},
		{"bad theme", []string{"read", wcs, "--theme", "neon"}},
		{"bad sample rows", []string{"read", wcs, "--sample-rows", "-5"}},
		{"browse without terminal", []string{"read", wcs, "--browse"}},
		{"bad glob", []string{"index", dir, "--glob", "[a-"}},
		{"missing config", []string{"formats", "--config", filepath.Join(dir, "nope.yaml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := specio(tt.args...)
			assert.Equal(t, exitUsage, code)
			assert.True(t, strings.HasPrefix(errOut, "specio: "), errOut)
		})
	}
}

func TestConfigFileSetsDefaults(t *testing.T) {
	dir := isolate(t)
	wcs := writeFixture(t, dir, "wcs.fits", fitstest.WCS1D(10))
	writeFixture(t, dir, ".specio.yaml", []byte("output: json\n"))

	code, out, _ := specio("read", wcs)
	require.Equal(t, exitOK, code)
	assert.True(t, json.Valid([]byte(out)), out)

	t.Setenv("SPECIO_OUTPUT", "llm")
	_, out, _ = specio("read", wcs)
	assert.Contains(t, out, "SCOPE: ")
}

func TestDetect(t *testing.T) {
	dir := isolate(t)
	cos := writeFixture(t, dir, "cos.fits", fitstest.COS("FUV"))
	stis := writeFixture(t, dir, "stis.fits", fitstest.STIS("CCD"))
	ecsvPath := writeECSV(t, dir)

	code, out, _ := specio("detect", cos, stis, ecsvPath, "-o", "llm")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "SCOPE: DETECT: 3 files\n")
	assert.Contains(t, out, cos+": HST/COS")
	assert.Contains(t, out, stis+": HST/STIS")
	assert.Contains(t, out, ecsvPath+": generic-ecsv")

	junk := writeFixture(t, dir, "junk.bin", []byte{0, 1, 2})
	code, out, _ = specio("detect", cos, junk, "-o", "llm")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, out, "DETECT: 2 files, 1 undetected")
	assert.Contains(t, out, "FAIL "+junk)
}

func TestFormats(t *testing.T) {
	isolate(t)
	code, out, _ := specio("formats")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "generic-ecsv\nwcs1d-fits\ntabular-fits\nHST/COS\nHST/STIS\n", out)
}

func TestConvert_RoundTrip(t *testing.T) {
	dir := isolate(t)
	src := writeFixture(t, dir, "stis.fits", fitstest.STIS("NUV-MAMA"))
	dst := filepath.Join(dir, "stis.ecsv")

	code, out, _ := specio("convert", src, dst, "--convert-axis", "nm")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "wrote "+dst+" (1024 samples from HST/STIS)\n", out)

	code, out, _ = specio("read", dst, "-o", "llm")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Format: generic-ecsv")
	assert.Contains(t, out, "Samples: 1024")
	assert.Contains(t, out, " nm (ascending)")

	code, _, _ = specio("convert", filepath.Join(dir, "missing.fits"), dst, "-o", "llm")
	assert.Equal(t, exitFailure, code)
}

func TestIndexAndCatalog(t *testing.T) {
	dir := isolate(t)
	archive := filepath.Join(dir, "archive")
	writeFixture(t, archive, "hst/cos_x1d.fits", fitstest.COS("FUV"))
	writeFixture(t, archive, "hst/stis_x1d.fits", fitstest.STIS("CCD"))
	writeFixture(t, archive, "ground/wcs.fits", fitstest.WCS1D(50))
	writeFixture(t, archive, "ground/broken.fits", []byte("SIMPLE  =  garbage"))
	writeFixture(t, archive, "notes.txt", []byte("ignored"))
	db := filepath.Join(dir, "cat.db")
	metricsPath := filepath.Join(dir, "metrics.json")

	code, out, errOut := specio("index", archive, "--catalog", db, "--metrics-json", metricsPath, "-o", "llm")
	assert.Equal(t, exitFailure, code, "a failed file raises the exit code")
	assert.Contains(t, out, "SCOPE: INDEX: 4 files")
	assert.Contains(t, out, "Failures: 1")
	assert.Contains(t, out, "ERR "+filepath.Join(archive, "ground", "broken.fits"))
	assert.Contains(t, errOut, "index read failed")

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	report, err := metrics.Parse(data)
	require.NoError(t, err)
	overall, ok := report.Row(metrics.OverallRow)
	require.True(t, ok)
	assert.InDelta(t, 4, overall.Value("files"), 0)
	assert.Len(t, report.Failures, 1)

	code, out, _ = specio("catalog", "--catalog", db, "-o", "llm")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "SCOPE: CATALOG: "+db)
	assert.Contains(t, out, "Entries: 4")
	assert.Contains(t, out, "Failed: 1")

	code, out, _ = specio("catalog", "--catalog", db, "--failed", "-o", "llm")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "Entries: 1")
	assert.Contains(t, out, "broken.fits")
	assert.NotContains(t, out, "cos_x1d.fits")

	code, out, _ = specio("catalog", "--catalog", db, "--format", "HST/COS", "-o", "llm")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "Entries: 1")
	assert.Contains(t, out, "cos_x1d.fits")

	// Re-indexing updates rows in place.
	specio("index", archive, "--catalog", db, "-o", "llm")
	_, out, _ = specio("catalog", "--catalog", db, "-o", "llm")
	assert.Contains(t, out, "Entries: 4")

	code, _, errOut = specio("catalog", "--catalog", filepath.Join(dir, "absent.db"))
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, errOut, "absent.db")
}

func TestVersion(t *testing.T) {
	isolate(t)
	code, out, _ := specio("version")
	assert.Equal(t, exitOK, code)
	assert.True(t, strings.HasPrefix(out, "specio "), out)
}

func TestLogLevelDebug(t *testing.T) {
	dir := isolate(t)
	wcs := writeFixture(t, dir, "wcs.fits", fitstest.WCS1D(10))

	_, _, errOut := specio("read", wcs, "-o", "llm", "--log-level", "debug")
	assert.Contains(t, errOut, "config resolved")
	assert.Contains(t, errOut, "detect probe")
}
