package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Local config file names, searched in order.
var localNames = []string{".specio.yaml", ".specio.yml", ".specio.toml"}

// Columns overrides table column names.
type Columns struct {
	Wave        string `yaml:"wave" toml:"wave"`
	Flux        string `yaml:"flux" toml:"flux"`
	Uncertainty string `yaml:"uncertainty" toml:"uncertainty"`
}

// FileConfig is the on-disk configuration.
type FileConfig struct {
	Format           string  `yaml:"format" toml:"format"`
	SpectralAxisUnit string  `yaml:"spectral_axis_unit" toml:"spectral_axis_unit"`
	Output           string  `yaml:"output" toml:"output"`
	Theme            string  `yaml:"theme" toml:"theme"`
	NoColor          *bool   `yaml:"no_color" toml:"no_color"`
	LogLevel         string  `yaml:"log_level" toml:"log_level"`
	Catalog          string  `yaml:"catalog" toml:"catalog"`
	SampleRows       *int    `yaml:"sample_rows" toml:"sample_rows"`
	Columns          Columns `yaml:"columns" toml:"columns"`
}

// FindConfigFile returns the config file to load, or "" when none exists.
// dir is checked first, then the user config directory.
func FindConfigFile(dir string) string {
	for _, name := range localNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	base, err := os.UserConfigDir()
	if err != nil || base == "" || base == "/" {
		return ""
	}
	for _, name := range []string{"config.yaml", "config.toml"} {
		p := filepath.Join(base, "specio", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadFile decodes a YAML or TOML config file, chosen by extension. Unknown
// keys are errors.
func LoadFile(path string) (*FileConfig, error) {
	var cfg FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("load config %s: unsupported extension", path)
	}
	return &cfg, nil
}

// LoadDotEnv copies variables from .env and .env.local in dir into the
// process environment. Variables that are already set win, and .env takes
// precedence over .env.local for the same key. Missing files are skipped;
// unparseable ones are errors.
func LoadDotEnv(dir string) error {
	for _, name := range []string{".env", ".env.local"} {
		values, err := godotenv.Read(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
		for k, v := range values {
			if _, exists := os.LookupEnv(k); exists {
				continue
			}
			if err := os.Setenv(k, v); err != nil {
				return fmt.Errorf("load %s: %w", name, err)
			}
		}
	}
	return nil
}
