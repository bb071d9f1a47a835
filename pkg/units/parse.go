package units

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

var (
	// ErrUnknownUnit is returned when a unit string names a symbol not in the table.
	ErrUnknownUnit = errors.New("unknown unit")
	// ErrSyntax is returned for malformed unit expressions.
	ErrSyntax = errors.New("unit syntax error")
	// ErrIncompatible is returned when converting between different dimensions.
	ErrIncompatible = errors.New("incompatible units")
)

type symbol struct {
	scale      float64
	dim        dimension
	prefixable bool
}

var (
	length   = dimension{dimLength: 1}
	mass     = dimension{dimMass: 1}
	duration = dimension{dimTime: 1}
	energy   = dimension{dimMass: 1, dimLength: 2, dimTime: -2}
	none     = dimension{}
)

const (
	electronVolt = 1.602176634e-19
	jansky       = 1e-26
)

var symbols = map[string]symbol{
	"m":         {1, length, true},
	"Angstrom":  {1e-10, length, false},
	"Angstroms": {1e-10, length, false},
	"angstrom":  {1e-10, length, false},
	"angstroms": {1e-10, length, false},
	"AA":        {1e-10, length, false},
	"Ang":       {1e-10, length, false},
	"Å":         {1e-10, length, false},
	"micron":    {1e-6, length, false},
	"microns":   {1e-6, length, false},

	"s":   {1, duration, true},
	"sec": {1, duration, false},
	"min": {60, duration, false},
	"h":   {3600, duration, false},
	"hr":  {3600, duration, false},
	"d":   {86400, duration, false},
	"day": {86400, duration, false},
	"yr":  {3.15576e7, duration, true},

	"Hz": {1, dimension{dimTime: -1}, true},
	"g":  {1e-3, mass, true},

	"erg": {1e-7, energy, false},
	"J":   {1, energy, true},
	"eV":  {electronVolt, energy, true},
	"W":   {1, dimension{dimMass: 1, dimLength: 2, dimTime: -3}, true},
	"N":   {1, dimension{dimMass: 1, dimLength: 1, dimTime: -2}, true},
	"Jy":  {jansky, dimension{dimMass: 1, dimTime: -2}, true},

	"A":   {1, dimension{dimCurrent: 1}, true},
	"K":   {1, dimension{dimTemperature: 1}, true},
	"mol": {1, dimension{dimAmount: 1}, true},
	"cd":  {1, dimension{dimLuminous: 1}, true},

	"count":     {1, none, false},
	"counts":    {1, none, false},
	"ct":        {1, none, false},
	"cts":       {1, none, false},
	"electron":  {1, none, false},
	"electrons": {1, none, false},
	"adu":       {1, none, false},
	"ADU":       {1, none, false},
	"DN":        {1, none, false},
	"photon":    {1, none, false},
	"photons":   {1, none, false},
	"ph":        {1, none, false},
	"pix":       {1, none, false},
	"pixel":     {1, none, false},
	"beam":      {1, none, false},

	"rad":    {1, none, true},
	"sr":     {1, none, false},
	"deg":    {math.Pi / 180, none, false},
	"arcmin": {math.Pi / 180 / 60, none, false},
	"arcsec": {math.Pi / 180 / 3600, none, false},
}

var prefixes = map[string]float64{
	"Y": 1e24, "Z": 1e21, "E": 1e18, "P": 1e15, "T": 1e12, "G": 1e9,
	"M": 1e6, "k": 1e3, "h": 1e2, "da": 1e1, "d": 1e-1, "c": 1e-2,
	"m": 1e-3, "u": 1e-6, "µ": 1e-6, "μ": 1e-6, "n": 1e-9, "p": 1e-12,
	"f": 1e-15, "a": 1e-18, "z": 1e-21, "y": 1e-24,
}

// Parse reads a unit expression such as "Angstrom", "erg / (s cm2 Angstrom)",
// "erg/s/cm**2/Angstrom" or "1e-17 erg s-1 cm-2 AA-1".
// The empty string parses to the dimensionless unit.
func Parse(s string) (Unit, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return Unit{}, nil
	}
	p := &parser{src: strings.ReplaceAll(text, "**", "^")}
	if err := p.lex(); err != nil {
		return Unit{}, fmt.Errorf("parse unit %q: %w", text, err)
	}
	u, err := p.product()
	if err != nil {
		return Unit{}, fmt.Errorf("parse unit %q: %w", text, err)
	}
	if p.pos < len(p.toks) {
		return Unit{}, fmt.Errorf("parse unit %q: %w: unexpected %q", text, ErrSyntax, p.toks[p.pos].text)
	}
	u.text = text
	return u, nil
}

// MustParse is Parse for package-level defaults; it panics on error.
func MustParse(s string) Unit {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

func lookup(name string) (Unit, error) {
	if sym, ok := symbols[name]; ok {
		return Unit{scale: sym.scale, dim: sym.dim, set: true}, nil
	}
	for _, n := range []int{2, 1} {
		if len(name) <= n {
			continue
		}
		pre, rest := name[:n], name[n:]
		// µ and μ are two bytes wide in UTF-8.
		if n == 1 && (strings.HasPrefix(name, "µ") || strings.HasPrefix(name, "μ")) {
			pre, rest = name[:len("µ")], name[len("µ"):]
		}
		f, ok := prefixes[pre]
		if !ok {
			continue
		}
		sym, ok := symbols[rest]
		if !ok || !sym.prefixable {
			continue
		}
		return Unit{scale: f * sym.scale, dim: sym.dim, set: true}, nil
	}
	return Unit{}, fmt.Errorf("%w: %q", ErrUnknownUnit, name)
}

type tokKind int

const (
	tokSymbol tokKind = iota
	tokNumber
	tokPow
	tokDiv
	tokMul
	tokOpen
	tokClose
)

type token struct {
	kind tokKind
	text string
	num  float64
	pow  int8 // power attached to a symbol or group (0 = none)
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) lex() error {
	rs := []rune(p.src)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			p.toks = append(p.toks, token{kind: tokOpen, text: "("})
			i++
		case r == ')':
			p.toks = append(p.toks, token{kind: tokClose, text: ")"})
			i++
		case r == '/':
			p.toks = append(p.toks, token{kind: tokDiv, text: "/"})
			i++
		case r == '*' || r == '.':
			p.toks = append(p.toks, token{kind: tokMul, text: string(r)})
			i++
		case r == '^':
			j := i + 1
			paren := j < len(rs) && rs[j] == '('
			if paren {
				j++
			}
			start := j
			if j < len(rs) && (rs[j] == '-' || rs[j] == '+') {
				j++
			}
			for j < len(rs) && unicode.IsDigit(rs[j]) {
				j++
			}
			n, err := exponent(string(rs[start:j]))
			if err != nil {
				return err
			}
			if paren {
				if j >= len(rs) || rs[j] != ')' {
					return fmt.Errorf("%w: unclosed exponent", ErrSyntax)
				}
				j++
			}
			p.toks = append(p.toks, token{kind: tokPow, text: string(rs[i:j]), pow: n})
			i = j
		case unicode.IsDigit(r) || ((r == '-' || r == '+') && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			j := i + 1
			for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '.' ||
				rs[j] == 'e' || rs[j] == 'E' ||
				((rs[j] == '-' || rs[j] == '+') && (rs[j-1] == 'e' || rs[j-1] == 'E'))) {
				j++
			}
			v, err := strconv.ParseFloat(string(rs[i:j]), 64)
			if err != nil {
				return fmt.Errorf("%w: bad number %q", ErrSyntax, string(rs[i:j]))
			}
			p.toks = append(p.toks, token{kind: tokNumber, text: string(rs[i:j]), num: v})
			i = j
		case unicode.IsLetter(r) || r == '_':
			j := i + 1
			for j < len(rs) && (unicode.IsLetter(rs[j]) || rs[j] == '_') {
				j++
			}
			tok := token{kind: tokSymbol, text: string(rs[i:j])}
			// Trailing integer power: cm2, s-1.
			k := j
			if k < len(rs) && (rs[k] == '-' || rs[k] == '+') && k+1 < len(rs) && unicode.IsDigit(rs[k+1]) {
				k++
			}
			if k < len(rs) && unicode.IsDigit(rs[k]) {
				for k < len(rs) && unicode.IsDigit(rs[k]) {
					k++
				}
				n, err := exponent(string(rs[j:k]))
				if err != nil {
					return err
				}
				tok.pow = n
				j = k
			}
			p.toks = append(p.toks, tok)
			i = j
		default:
			return fmt.Errorf("%w: unexpected character %q", ErrSyntax, r)
		}
	}
	if len(p.toks) == 0 {
		return fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	return nil
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func startsTerm(t token) bool {
	return t.kind == tokSymbol || t.kind == tokNumber || t.kind == tokOpen
}

// product := term { ["*" | "." | "/"] term }
func (p *parser) product() (Unit, error) {
	u, err := p.term()
	if err != nil {
		return Unit{}, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind == tokClose {
			return u, nil
		}
		invert := false
		switch {
		case t.kind == tokDiv:
			invert = true
			p.pos++
		case t.kind == tokMul:
			p.pos++
		case startsTerm(t):
		default:
			return Unit{}, fmt.Errorf("%w: unexpected %q", ErrSyntax, t.text)
		}
		next, err := p.term()
		if err != nil {
			return Unit{}, err
		}
		if invert {
			next = next.pow(-1)
		}
		u = u.mul(next)
	}
}

func (p *parser) term() (Unit, error) {
	t, ok := p.peek()
	if !ok {
		return Unit{}, fmt.Errorf("%w: expression ends early", ErrSyntax)
	}
	p.pos++
	var u Unit
	switch t.kind {
	case tokSymbol:
		base, err := lookup(t.text)
		if err != nil {
			return Unit{}, err
		}
		u = base
		if t.pow != 0 {
			u = u.pow(t.pow)
		}
	case tokNumber:
		u = Unit{scale: t.num, set: true}
	case tokOpen:
		inner, err := p.product()
		if err != nil {
			return Unit{}, err
		}
		if c, ok := p.peek(); !ok || c.kind != tokClose {
			return Unit{}, fmt.Errorf("%w: missing ')'", ErrSyntax)
		}
		p.pos++
		u = inner
	default:
		return Unit{}, fmt.Errorf("%w: unexpected %q", ErrSyntax, t.text)
	}
	if pw, ok := p.peek(); ok && pw.kind == tokPow {
		p.pos++
		u = u.pow(pw.pow)
	}
	return u, nil
}

// exponent parses an integer power that fits the int8 dimension vector.
func exponent(text string) (int8, error) {
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%w: bad exponent", ErrSyntax)
	}
	if n < math.MinInt8+1 || n > math.MaxInt8 {
		return 0, fmt.Errorf("%w: exponent %d out of range", ErrSyntax, n)
	}
	return int8(n), nil
}
