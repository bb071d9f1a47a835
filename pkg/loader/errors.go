package loader

import (
	"errors"
	"fmt"
	"strings"
)

// Registry-level failures happen before any adapter parses.
var (
	ErrUnknownFormat   = errors.New("unknown format")
	ErrAmbiguousFormat = errors.New("ambiguous format")
	ErrDetectionFailed = errors.New("format detection failed")
)

// Adapter-level failures happen while parsing.
var (
	ErrMalformedSource          = errors.New("malformed source")
	ErrUnsupportedVariant       = errors.New("unsupported variant")
	ErrIncompatibleUnitOverride = errors.New("incompatible unit override")
	ErrUnreadableSource         = errors.New("unreadable source")
)

var kinds = []error{
	ErrUnknownFormat,
	ErrAmbiguousFormat,
	ErrDetectionFailed,
	ErrIncompatibleUnitOverride,
	ErrUnsupportedVariant,
	ErrUnreadableSource,
	ErrMalformedSource,
}

// Error is returned by Registry.Read and Registry.Detect. Kind is one of the
// package sentinels; errors.Is matches both Kind and the underlying Err.
type Error struct {
	Kind       error
	Format     string
	Source     string
	Candidates []string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Format != "" {
		return fmt.Sprintf("read %s as %s: %v", e.Source, e.Format, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("read %s: %v", e.Source, e.Err)
	}
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Format != "" {
		fmt.Fprintf(&b, " %q", e.Format)
	}
	if e.Source != "" {
		fmt.Fprintf(&b, " for %s", e.Source)
	}
	if len(e.Candidates) > 0 {
		fmt.Fprintf(&b, ": candidates %s", strings.Join(e.Candidates, ", "))
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	out := []error{e.Kind}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// KindOf returns the sentinel err carries, or nil.
func KindOf(err error) error {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// wrap turns an adapter error into an *Error. Errors without a recognised
// kind, including spectrum validation failures, count as malformed sources.
func wrap(format string, src Source, err error) error {
	var le *Error
	if errors.As(err, &le) {
		return err
	}
	kind := KindOf(err)
	if kind == nil {
		kind = ErrMalformedSource
	}
	return &Error{Kind: kind, Format: format, Source: src.Name(), Err: err}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedSource, fmt.Sprintf(format, args...))
}

func unsupported(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedVariant, fmt.Sprintf(format, args...))
}
