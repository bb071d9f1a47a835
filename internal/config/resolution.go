package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/dkoosis/specio/pkg/render"
)

// Source names where a resolved value came from.
type Source string

// Sources, highest priority first.
const (
	SourceCLI     Source = "cli"
	SourceEnv     Source = "env"
	SourceFile    Source = "file"
	SourceDefault Source = "default"
)

// Defaults.
const (
	DefaultOutput     = "auto"
	DefaultTheme      = "default"
	DefaultLogLevel   = "warn"
	DefaultCatalog    = "specio.db"
	DefaultSampleRows = 10
)

// CliFlags holds the values of command-line flags. Empty strings mean "not
// given"; NoColorSet and SampleRowsSet track the flags whose zero value is
// meaningful.
type CliFlags struct {
	ConfigFile       string // explicit config file; skips the search
	Format           string
	SpectralAxisUnit string
	Output           string
	Theme            string
	LogLevel         string
	Catalog          string
	SampleRows       int
	SampleRowsSet    bool
	Columns          Columns
	NoColor          bool
	NoColorSet       bool
}

// ResolvedConfig holds the final configuration after applying priorities.
type ResolvedConfig struct {
	Format           string
	SpectralAxisUnit string
	Output           string
	Theme            string
	NoColor          bool
	LogLevel         slog.Level
	Catalog          string
	SampleRows       int
	Columns          Columns

	// ConfigFile is the file that was loaded, or "".
	ConfigFile string
	// Sources maps each field name to the source that set it.
	Sources map[string]Source
}

// ResolveConfig resolves configuration for the working directory dir.
// flags.ConfigFile, when set, replaces the config file search.
//
// Resolution order:
//  1. Load the config file (if any)
//  2. Apply environment variables
//  3. Apply CLI flags
//  4. Validate
func ResolveConfig(dir string, flags CliFlags) (*ResolvedConfig, error) {
	file := &FileConfig{}
	path := flags.ConfigFile
	if path == "" {
		path = FindConfigFile(dir)
	}
	if path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		file = loaded
	}

	r := &ResolvedConfig{ConfigFile: path, Sources: make(map[string]Source)}
	noColor := false
	var fileRows, flagRows string
	if file.SampleRows != nil {
		fileRows = strconv.Itoa(*file.SampleRows)
	}
	if flags.SampleRowsSet {
		flagRows = strconv.Itoa(flags.SampleRows)
	}

	r.Format = r.pick("format", "", file.Format, "SPECIO_FORMAT", flags.Format)
	r.SpectralAxisUnit = r.pick("spectral_axis_unit", "", file.SpectralAxisUnit, "SPECIO_SPECTRAL_AXIS_UNIT", flags.SpectralAxisUnit)
	r.Output = r.pick("output", DefaultOutput, file.Output, "SPECIO_OUTPUT", flags.Output)
	r.Theme = r.pick("theme", DefaultTheme, file.Theme, "SPECIO_THEME", flags.Theme)
	r.Catalog = r.pick("catalog", DefaultCatalog, file.Catalog, "SPECIO_CATALOG", flags.Catalog)
	level := r.pick("log_level", DefaultLogLevel, file.LogLevel, "SPECIO_LOG_LEVEL", flags.LogLevel)
	rows := r.pick("sample_rows", strconv.Itoa(DefaultSampleRows), fileRows, "SPECIO_SAMPLE_ROWS", flagRows)
	r.Columns.Wave = r.pick("columns.wave", "", file.Columns.Wave, "SPECIO_WAVE_COLUMN", flags.Columns.Wave)
	r.Columns.Flux = r.pick("columns.flux", "", file.Columns.Flux, "SPECIO_FLUX_COLUMN", flags.Columns.Flux)
	r.Columns.Uncertainty = r.pick("columns.uncertainty", "", file.Columns.Uncertainty, "SPECIO_UNCERTAINTY_COLUMN", flags.Columns.Uncertainty)

	// NoColor with priority: CLI > ENV > file > default
	r.Sources["no_color"] = SourceDefault
	if file.NoColor != nil {
		noColor = *file.NoColor
		r.Sources["no_color"] = SourceFile
	}
	if env := getEnvBool("SPECIO_NO_COLOR"); env != nil {
		noColor = *env
		r.Sources["no_color"] = SourceEnv
	} else if os.Getenv("NO_COLOR") != "" {
		noColor = true
		r.Sources["no_color"] = SourceEnv
	}
	if flags.NoColorSet {
		noColor = flags.NoColor
		r.Sources["no_color"] = SourceCLI
	}
	r.NoColor = noColor

	if err := r.LogLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("config validation failed: invalid log_level %q (%s)", level, r.Sources["log_level"])
	}
	n, err := strconv.Atoi(rows)
	if err != nil {
		return nil, fmt.Errorf("config validation failed: invalid sample_rows %q (%s)", rows, r.Sources["sample_rows"])
	}
	r.SampleRows = n

	if err := validateResolvedConfig(r); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return r, nil
}

// pick resolves one string field, recording its source.
func (r *ResolvedConfig) pick(field, def, file, envKey, cli string) string {
	if cli != "" {
		r.Sources[field] = SourceCLI
		return cli
	}
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		r.Sources[field] = SourceEnv
		return v
	}
	if file != "" {
		r.Sources[field] = SourceFile
		return file
	}
	r.Sources[field] = SourceDefault
	return def
}

// getEnvBool reads a boolean from environment variables, trying multiple keys.
// Returns nil if none are set, or a pointer to the boolean value.
func getEnvBool(keys ...string) *bool {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				return &b
			}
		}
	}
	return nil
}

// validateResolvedConfig rejects values no command can use.
func validateResolvedConfig(cfg *ResolvedConfig) error {
	validOutput := map[string]bool{
		"auto":              true,
		render.ModeTerminal: true,
		render.ModeLLM:      true,
		render.ModeJSON:     true,
	}
	if !validOutput[cfg.Output] {
		return fmt.Errorf("invalid output value: %s (must be: auto, terminal, llm, json)", cfg.Output)
	}
	if !render.IsTheme(cfg.Theme) {
		return fmt.Errorf("invalid theme value: %s (must be: %s)", cfg.Theme, strings.Join(render.ThemeNames, ", "))
	}
	if cfg.SampleRows < -1 {
		return fmt.Errorf("sample_rows must be -1 or greater (0 and -1 hide the table), got: %d", cfg.SampleRows)
	}
	if cfg.Catalog == "" {
		return fmt.Errorf("catalog path cannot be empty")
	}
	return nil
}
