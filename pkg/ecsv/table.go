// Package ecsv reads and writes Enhanced Character Separated Values tables:
// a YAML header (behind "# " comment markers) describing each column's name,
// unit and datatype, followed by a delimited body.
//
// Only what spectral tables need is supported: scalar numeric, string and
// bool columns. Multidimensional subtypes are rejected.
package ecsv

import (
	"errors"
	"strings"
)

// ErrMalformed is wrapped by every parse failure.
var ErrMalformed = errors.New("malformed ecsv")

// Column is one table column. Numeric columns fill Values, string and bool
// columns fill Strings.
type Column struct {
	Name        string
	Unit        string
	Datatype    string
	Format      string
	Description string

	Values  []float64
	Strings []string
}

// NewFloatColumn builds a float64 column.
func NewFloatColumn(name, unit string, values []float64) *Column {
	return &Column{Name: name, Unit: unit, Datatype: "float64", Values: values}
}

// NewStringColumn builds a string column.
func NewStringColumn(name string, values []string) *Column {
	return &Column{Name: name, Datatype: "string", Strings: values}
}

// IsNumeric reports whether the column holds numbers.
func (c *Column) IsNumeric() bool { return isNumericType(c.Datatype) }

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.IsNumeric() {
		return len(c.Values)
	}
	return len(c.Strings)
}

// Table is an ordered set of equal-length columns plus free-form metadata.
type Table struct {
	Columns   []*Column
	Meta      map[string]string
	Delimiter rune // ' ' or ','; zero means ' '
}

// Column returns the column with exactly this name, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Lookup returns the first column whose name matches case-insensitively, or nil.
func (t *Table) Lookup(name string) *Column {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// Rows returns the row count (the length of the first column).
func (t *Table) Rows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

func (t *Table) delimiter() rune {
	if t.Delimiter == 0 {
		return ' '
	}
	return t.Delimiter
}

func isNumericType(dt string) bool {
	switch dt {
	case "float16", "float32", "float64", "float128",
		"int8", "int16", "int32", "int64",
		"uint8", "uint16", "uint32", "uint64":
		return true
	}
	return false
}

func isKnownType(dt string) bool {
	return isNumericType(dt) || dt == "string" || dt == "bool"
}
