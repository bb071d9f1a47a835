// Package config handles configuration loading and merging for specio.
//
// # Configuration Precedence
//
// Configuration values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--format, --spectral-axis-unit, --output, --theme, etc.)
//  2. Environment variables (SPECIO_*, NO_COLOR), including values loaded
//     from .env and .env.local, which never override variables already set
//  3. Config file (.specio.yaml or .specio.toml in the working directory,
//     else config.yaml or config.toml in the user config dir under specio/)
//  4. Hardcoded defaults
//
// Every resolved field records which source supplied it, so
// "specio config" style diagnostics can explain a surprising value.
//
// # Environment Variables
//
//   - SPECIO_FORMAT: format identifier, e.g. "HST/COS"
//   - SPECIO_SPECTRAL_AXIS_UNIT: spectral axis unit override
//   - SPECIO_OUTPUT: auto, terminal, llm or json
//   - SPECIO_THEME: default, orca or mono
//   - SPECIO_LOG_LEVEL: debug, info, warn or error
//   - SPECIO_CATALOG: catalog database path
//   - SPECIO_SAMPLE_ROWS: rows shown in sample tables
//   - SPECIO_NO_COLOR or NO_COLOR: disable colors
package config
