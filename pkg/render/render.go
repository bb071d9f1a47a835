// Package render provides output renderers for specio's patterns.
package render

import (
	"fmt"

	"github.com/dkoosis/specio/pkg/pattern"
)

// Renderer converts patterns to formatted output.
type Renderer interface {
	Render(patterns []pattern.Pattern) string
}

// Output modes.
const (
	ModeTerminal = "terminal"
	ModeLLM      = "llm"
	ModeJSON     = "json"
)

// New returns the renderer for mode. theme and width only affect the
// terminal renderer.
func New(mode string, theme Theme, width int) (Renderer, error) {
	switch mode {
	case ModeTerminal:
		return NewTerminal(theme, width), nil
	case ModeLLM:
		return NewLLM(), nil
	case ModeJSON:
		return NewJSON(), nil
	default:
		return nil, fmt.Errorf("unknown output mode %q (expected terminal, llm, json)", mode)
	}
}
