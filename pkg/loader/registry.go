package loader

import (
	"log/slog"

	"github.com/dkoosis/specio/pkg/spectrum"
)

// Built-in format identifiers.
const (
	FormatECSV    = "generic-ecsv"
	FormatWCS1D   = "wcs1d-fits"
	FormatTabular = "tabular-fits"
	FormatCOS     = "HST/COS"
	FormatSTIS    = "HST/STIS"
)

// Match is an adapter's confidence that it can parse a source.
type Match int

const (
	NoMatch  Match = iota
	Generic        // structurally plausible; several adapters may agree
	Specific       // identifying markers present; should be unique
)

func (m Match) String() string {
	switch m {
	case Generic:
		return "generic"
	case Specific:
		return "specific"
	default:
		return "none"
	}
}

// Adapter parses one file convention.
type Adapter interface {
	// Name is the format identifier the adapter registers under.
	Name() string

	// Detect is a cheap structural check. It never fails: unreadable or
	// foreign input is NoMatch.
	Detect(src Source) Match

	// Parse reads src into a spectrum. Every handle it opens is closed
	// before it returns.
	Parse(src Source, opts Options) (*spectrum.Spectrum1D, error)
}

// Registry maps format identifiers to adapters. It is meant to be filled at
// start-up; Register after Read has been called from other goroutines needs
// external synchronization.
type Registry struct {
	order    []string
	adapters map[string]Adapter
	logger   *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for detection tracing.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewEmptyRegistry returns a registry without built-in adapters.
func NewEmptyRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		adapters: map[string]Adapter{},
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRegistry returns a registry with the built-in adapters in detection
// order.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := NewEmptyRegistry(opts...)
	r.Register(&ECSVAdapter{})
	r.Register(&WCS1DAdapter{})
	r.Register(&TabularAdapter{})
	r.Register(NewCOSAdapter())
	r.Register(NewSTISAdapter())
	return r
}

// Register adds a under a.Name(). An existing adapter with the same name is
// replaced and keeps its detection position.
func (r *Registry) Register(a Adapter) {
	name := a.Name()
	if _, ok := r.adapters[name]; !ok {
		r.order = append(r.order, name)
	}
	r.adapters[name] = a
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.adapters[name]
	return ok
}

// Adapter returns the adapter registered under name.
func (r *Registry) Adapter(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Formats lists identifiers in registration order.
func (r *Registry) Formats() []string {
	return append([]string(nil), r.order...)
}

// Read parses src as format, or detects the format when format is empty.
// An unregistered format fails with ErrUnknownFormat without touching src.
func (r *Registry) Read(src Source, format string, opts Options) (*spectrum.Spectrum1D, error) {
	if format != "" && !r.Has(format) {
		return nil, &Error{Kind: ErrUnknownFormat, Format: format, Source: src.Name()}
	}
	if format == "" {
		detected, err := r.Detect(src)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	s, err := r.adapters[format].Parse(src, opts)
	if err != nil {
		return nil, wrap(format, src, err)
	}
	r.logger.Debug("read spectrum", "source", src.Name(), "format", format, "samples", s.Len())
	return s, nil
}

// Detect probes every adapter in registration order. The highest match
// wins; a tie at Specific is ambiguous and a tie at Generic goes to the
// first registered adapter.
func (r *Registry) Detect(src Source) (string, error) {
	if err := checkReadable(src); err != nil {
		return "", &Error{Kind: ErrUnreadableSource, Source: src.Name(), Err: err}
	}

	best := NoMatch
	var winners []string
	for _, name := range r.order {
		m := r.adapters[name].Detect(src)
		r.logger.Debug("detect probe", "source", src.Name(), "format", name, "match", m)
		switch {
		case m == NoMatch || m < best:
		case m > best:
			best, winners = m, []string{name}
		default:
			winners = append(winners, name)
		}
	}

	switch {
	case best == NoMatch:
		return "", &Error{Kind: ErrDetectionFailed, Source: src.Name()}
	case best == Specific && len(winners) > 1:
		return "", &Error{Kind: ErrAmbiguousFormat, Source: src.Name(), Candidates: winners}
	}
	r.logger.Debug("detected format", "source", src.Name(), "format", winners[0], "match", best)
	return winners[0], nil
}

// Default is the process-wide registry used by the package-level helpers.
var Default = NewRegistry()

// Read parses src with the Default registry.
func Read(src Source, format string, opts Options) (*spectrum.Spectrum1D, error) {
	return Default.Read(src, format, opts)
}

// Register adds a to the Default registry.
func Register(a Adapter) { Default.Register(a) }
