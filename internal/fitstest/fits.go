// Package fitstest serializes small FITS files for tests.
//
// Files are written byte-for-byte: 80-character header cards, 2880-byte
// blocks, big-endian data. Only the subset the loaders read is covered:
// images with BITPIX 16, 32, -32 or -64 and binary tables with D, E, J, I and
// A columns.
package fitstest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

const (
	blockSize = 2880
	cardSize  = 80
)

// Card is one header keyword. Value is a bool, int, float64 or string.
type Card struct {
	Key     string
	Value   any
	Comment string
}

func (c Card) encode() string {
	key := fmt.Sprintf("%-8s", strings.ToUpper(c.Key))
	var val string
	switch v := c.Value.(type) {
	case bool:
		val = "F"
		if v {
			val = "T"
		}
		val = fmt.Sprintf("%20s", val)
	case int:
		val = fmt.Sprintf("%20d", v)
	case float64:
		val = fmt.Sprintf("%20s", formatFloat(v))
	case string:
		s := strings.ReplaceAll(v, "'", "''")
		val = fmt.Sprintf("'%-8s'", s)
	default:
		panic(fmt.Sprintf("fitstest: unsupported card value %T for %s", c.Value, c.Key))
	}
	line := key + "= " + val
	if c.Comment != "" {
		line += " / " + c.Comment
	}
	if len(line) > cardSize {
		line = line[:cardSize]
	}
	return fmt.Sprintf("%-80s", line)
}

func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'E', -1, 64)
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, "E", ".0E", 1)
	}
	return s
}

// HDU is an image or binary table that can follow the primary HDU.
type HDU interface {
	encode(primary bool) []byte
}

// Image is an image HDU. Shape lists NAXIS1 first. Bitpix defaults to -64.
type Image struct {
	Bitpix int
	Shape  []int
	Data   []float64
	Header []Card
}

func (img *Image) encode(primary bool) []byte {
	bitpix := img.Bitpix
	if bitpix == 0 {
		bitpix = -64
	}
	var cards []Card
	if primary {
		cards = append(cards, Card{Key: "SIMPLE", Value: true})
	} else {
		cards = append(cards, Card{Key: "XTENSION", Value: "IMAGE"})
	}
	if len(img.Shape) == 0 {
		bitpix = 8
	}
	cards = append(cards, Card{Key: "BITPIX", Value: bitpix}, Card{Key: "NAXIS", Value: len(img.Shape)})
	for i, n := range img.Shape {
		cards = append(cards, Card{Key: "NAXIS" + strconv.Itoa(i+1), Value: n})
	}
	if primary {
		cards = append(cards, Card{Key: "EXTEND", Value: true})
	} else {
		cards = append(cards, Card{Key: "PCOUNT", Value: 0}, Card{Key: "GCOUNT", Value: 1})
	}
	cards = append(cards, img.Header...)

	var data bytes.Buffer
	for _, v := range img.Data {
		switch bitpix {
		case -64:
			_ = binary.Write(&data, binary.BigEndian, v)
		case -32:
			_ = binary.Write(&data, binary.BigEndian, float32(v))
		case 32:
			_ = binary.Write(&data, binary.BigEndian, int32(v))
		case 16:
			_ = binary.Write(&data, binary.BigEndian, int16(v))
		default:
			panic(fmt.Sprintf("fitstest: unsupported BITPIX %d", bitpix))
		}
	}
	return append(encodeHeader(cards), pad(data.Bytes(), 0)...)
}

// Column is a binary table column. Numeric columns fill Floats (one slice per
// row, Repeat elements wide), text columns fill Strings.
type Column struct {
	Name    string
	Unit    string
	Type    byte // D, E, J, I or A
	Repeat  int
	Floats  [][]float64
	Strings []string
}

// Scalar builds a one-element numeric column.
func Scalar(name, unit string, typ byte, values ...float64) Column {
	rows := make([][]float64, len(values))
	for i, v := range values {
		rows[i] = []float64{v}
	}
	return Column{Name: name, Unit: unit, Type: typ, Repeat: 1, Floats: rows}
}

// Vector builds a float64 array column. Short rows are zero-padded to the
// longest row.
func Vector(name, unit string, rows ...[]float64) Column {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	return Column{Name: name, Unit: unit, Type: 'D', Repeat: width, Floats: rows}
}

// Text builds a fixed-width string column.
func Text(name string, values ...string) Column {
	width := 1
	for _, v := range values {
		width = max(width, len(v))
	}
	return Column{Name: name, Type: 'A', Repeat: width, Strings: values}
}

func (c Column) rows() int {
	if c.Type == 'A' {
		return len(c.Strings)
	}
	return len(c.Floats)
}

func (c Column) width() int {
	size := map[byte]int{'D': 8, 'E': 4, 'J': 4, 'I': 2, 'A': 1}[c.Type]
	if size == 0 {
		panic(fmt.Sprintf("fitstest: unsupported column type %q", c.Type))
	}
	return size * c.Repeat
}

func (c Column) tform() string {
	if c.Repeat == 1 && c.Type != 'A' {
		return string(c.Type)
	}
	return strconv.Itoa(c.Repeat) + string(c.Type)
}

// Table is a BINTABLE extension.
type Table struct {
	Columns []Column
	Header  []Card
}

func (t *Table) encode(_ bool) []byte {
	rows, rowWidth := 0, 0
	for i, c := range t.Columns {
		if i == 0 {
			rows = c.rows()
		} else if c.rows() != rows {
			panic(fmt.Sprintf("fitstest: column %s has %d rows, want %d", c.Name, c.rows(), rows))
		}
		rowWidth += c.width()
	}

	cards := []Card{
		{Key: "XTENSION", Value: "BINTABLE"},
		{Key: "BITPIX", Value: 8},
		{Key: "NAXIS", Value: 2},
		{Key: "NAXIS1", Value: rowWidth},
		{Key: "NAXIS2", Value: rows},
		{Key: "PCOUNT", Value: 0},
		{Key: "GCOUNT", Value: 1},
		{Key: "TFIELDS", Value: len(t.Columns)},
	}
	for i, c := range t.Columns {
		n := strconv.Itoa(i + 1)
		cards = append(cards,
			Card{Key: "TTYPE" + n, Value: c.Name},
			Card{Key: "TFORM" + n, Value: c.tform()})
		if c.Unit != "" {
			cards = append(cards, Card{Key: "TUNIT" + n, Value: c.Unit})
		}
	}
	cards = append(cards, t.Header...)

	var data bytes.Buffer
	for r := 0; r < rows; r++ {
		for _, c := range t.Columns {
			if c.Type == 'A' {
				s := c.Strings[r]
				data.WriteString(s)
				data.Write(make([]byte, c.Repeat-len(s)))
				continue
			}
			row := c.Floats[r]
			for k := 0; k < c.Repeat; k++ {
				v := 0.0
				if k < len(row) {
					v = row[k]
				}
				switch c.Type {
				case 'D':
					_ = binary.Write(&data, binary.BigEndian, v)
				case 'E':
					_ = binary.Write(&data, binary.BigEndian, float32(v))
				case 'J':
					_ = binary.Write(&data, binary.BigEndian, int32(v))
				case 'I':
					_ = binary.Write(&data, binary.BigEndian, int16(v))
				}
			}
		}
	}
	return append(encodeHeader(cards), pad(data.Bytes(), 0)...)
}

// Build serializes a primary HDU followed by any extensions.
func Build(primary *Image, exts ...HDU) []byte {
	if primary == nil {
		primary = &Image{}
	}
	out := primary.encode(true)
	for _, ext := range exts {
		out = append(out, ext.encode(false)...)
	}
	return out
}

// WriteFile stores data under name in a per-test temporary directory and
// returns the path.
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

// Merge returns base with extra applied: cards whose key already exists are
// replaced in place, the rest are appended. A nil Value removes the key.
func Merge(base []Card, extra ...Card) []Card {
	out := append([]Card(nil), base...)
	for _, e := range extra {
		idx := -1
		for i, c := range out {
			if strings.EqualFold(c.Key, e.Key) {
				idx = i
				break
			}
		}
		switch {
		case idx >= 0 && e.Value == nil:
			out = append(out[:idx], out[idx+1:]...)
		case idx >= 0:
			out[idx] = e
		case e.Value != nil:
			out = append(out, e)
		}
	}
	return out
}

func encodeHeader(cards []Card) []byte {
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(c.encode())
	}
	b.WriteString(fmt.Sprintf("%-80s", "END"))
	return pad([]byte(b.String()), ' ')
}

func pad(b []byte, fill byte) []byte {
	rem := len(b) % blockSize
	if rem == 0 {
		return b
	}
	extra := bytes.Repeat([]byte{fill}, blockSize-rem)
	return append(b, extra...)
}

// Ramp returns n values start, start+step, ...
func Ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// Wave returns n positive flux-like values with a gentle modulation so
// fixtures are not flat.
func Wave(n int, level float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = level * (1 + 0.25*math.Sin(float64(i)/7))
	}
	return out
}
