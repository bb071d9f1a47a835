// Package metrics tallies batch read results per format and serializes them
// so an index run can be archived and compared later.
package metrics

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Columns of every Row, in order.
var Columns = []string{"files", "samples", "failures"}

// OverallRow names the row that totals every format.
const OverallRow = "Overall"

// Report is the outcome of one batch run.
type Report struct {
	Scope    string    `json:"scope"`
	Columns  []string  `json:"columns"`
	Rows     []Row     `json:"rows"`
	Failures []Failure `json:"failures"`
}

// Row is a single named row of metric values.
type Row struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	N      int       `json:"n,omitempty"`
}

// Failure records one file that could not be read.
type Failure struct {
	Path    string `json:"path"`
	Format  string `json:"format,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Value returns the named column of r, or 0 when absent.
func (r Row) Value(column string) float64 {
	for i, c := range Columns {
		if c == column && i < len(r.Values) {
			return r.Values[i]
		}
	}
	return 0
}

// Row returns the row with the given name.
func (r *Report) Row(name string) (Row, bool) {
	for _, row := range r.Rows {
		if row.Name == name {
			return row, true
		}
	}
	return Row{}, false
}

// Parse decodes metrics JSON into a Report.
func Parse(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse metrics: %w", err)
	}
	return &r, nil
}

// Marshal encodes r as indented JSON.
func Marshal(r *Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal metrics: %w", err)
	}
	return append(data, '\n'), nil
}

type tally struct {
	files, samples, failures int
}

// Collector accumulates observations into a Report. It is not safe for
// concurrent use.
type Collector struct {
	byFormat map[string]*tally
	failures []Failure
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{byFormat: make(map[string]*tally)}
}

func (c *Collector) tally(format string) *tally {
	if format == "" {
		format = "unknown"
	}
	t, ok := c.byFormat[format]
	if !ok {
		t = &tally{}
		c.byFormat[format] = t
	}
	return t
}

// Add records a successful read.
func (c *Collector) Add(format string, samples int) {
	t := c.tally(format)
	t.files++
	t.samples += samples
}

// Fail records a failed read. format may be empty when detection failed.
func (c *Collector) Fail(path, format, kind string, err error) {
	t := c.tally(format)
	t.files++
	t.failures++
	f := Failure{Path: path, Format: format, Kind: kind}
	if err != nil {
		f.Message = err.Error()
	}
	c.failures = append(c.failures, f)
}

// Report builds the report: the Overall row first, then one row per format
// in name order.
func (c *Collector) Report() *Report {
	names := make([]string, 0, len(c.byFormat))
	var total tally
	for name, t := range c.byFormat {
		names = append(names, name)
		total.files += t.files
		total.samples += t.samples
		total.failures += t.failures
	}
	sort.Strings(names)

	rows := []Row{row(OverallRow, total)}
	for _, name := range names {
		rows = append(rows, row(name, *c.byFormat[name]))
	}
	failures := append([]Failure(nil), c.failures...)
	if failures == nil {
		failures = []Failure{}
	}
	return &Report{
		Scope:    fmt.Sprintf("%d files · %d formats", total.files, len(names)),
		Columns:  append([]string(nil), Columns...),
		Rows:     rows,
		Failures: failures,
	}
}

func row(name string, t tally) Row {
	return Row{
		Name:   name,
		Values: []float64{float64(t.files), float64(t.samples), float64(t.failures)},
		N:      t.files,
	}
}
