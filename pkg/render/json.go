package render

import (
	"encoding/json"
	"math"

	"github.com/dkoosis/specio/pkg/pattern"
)

// JSON renders patterns as structured JSON for automation.
type JSON struct{}

// NewJSON creates a JSON renderer.
func NewJSON() *JSON {
	return &JSON{}
}

// jsonOutput is the top-level JSON structure.
type jsonOutput struct {
	Version  string        `json:"version"`
	Patterns []jsonPattern `json:"patterns"`
}

type jsonPattern struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// jsonSparkline carries NaN bins as null, which encoding/json cannot emit
// for float64.
type jsonSparkline struct {
	Label  string
	Values []*float64
	Min    float64
	Max    float64
	Unit   string
}

// Render formats all patterns as JSON.
func (j *JSON) Render(patterns []pattern.Pattern) string {
	out := jsonOutput{
		Version:  "1.0",
		Patterns: make([]jsonPattern, 0, len(patterns)),
	}

	for _, p := range patterns {
		out.Patterns = append(out.Patterns, jsonPattern{
			Type: string(p.Type()),
			Data: jsonData(p),
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		errJSON, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(errJSON)
	}
	return string(data) + "\n"
}

func jsonData(p pattern.Pattern) any {
	s, ok := p.(*pattern.Sparkline)
	if !ok {
		return p
	}
	values := make([]*float64, len(s.Values))
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		values[i] = &s.Values[i]
	}
	return jsonSparkline{Label: s.Label, Values: values, Min: s.Min, Max: s.Max, Unit: s.Unit}
}
