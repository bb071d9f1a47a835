package pattern

// Error is a failure shown in place of a result.
type Error struct {
	Source  string // file or command that failed
	Kind    string // error category, e.g. "malformed source"
	Message string
}

func (e *Error) Type() PatternType { return PatternTypeError }
