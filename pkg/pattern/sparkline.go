package pattern

// Sparkline represents a word-sized profile graphic using Unicode blocks.
type Sparkline struct {
	Label  string
	Values []float64
	Min    float64 // 0 = auto-detect
	Max    float64 // 0 = auto-detect
	Unit   string
}

func (s *Sparkline) Type() PatternType { return PatternTypeSparkline }
