package ecsv

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	version = "1.0"
	schema  = "astropy-2.0"
)

// WriteFile writes t to path, replacing any existing file.
func WriteFile(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create ecsv file: %w", err)
	}
	if err := Write(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write serializes t. Floats use the shortest representation that parses
// back to the same value.
func Write(w io.Writer, t *Table) error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("write ecsv: table has no columns")
	}
	rows := t.Rows()
	for _, c := range t.Columns {
		if !isKnownType(c.Datatype) {
			return fmt.Errorf("write ecsv: column %q: unknown datatype %q", c.Name, c.Datatype)
		}
		if c.Len() != rows {
			return fmt.Errorf("write ecsv: column %q has %d rows, want %d", c.Name, c.Len(), rows)
		}
	}

	hdr, err := encodeHeader(t)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s %s\n# ---\n", Signature, version)
	for _, line := range strings.Split(strings.TrimRight(string(hdr), "\n"), "\n") {
		if line == "" {
			bw.WriteString("#\n")
			continue
		}
		bw.WriteString("# " + line + "\n")
	}

	sep := string(t.delimiter())
	fields := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		fields[i] = quote(c.Name, t.delimiter())
	}
	bw.WriteString(strings.Join(fields, sep) + "\n")

	for r := 0; r < rows; r++ {
		for i, c := range t.Columns {
			if c.IsNumeric() {
				fields[i] = formatNumber(c.Values[r], c.Datatype)
			} else {
				fields[i] = quote(c.Strings[r], t.delimiter())
			}
		}
		bw.WriteString(strings.Join(fields, sep) + "\n")
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write ecsv: %w", err)
	}
	return nil
}

func encodeHeader(t *Table) ([]byte, error) {
	cols := &yaml.Node{Kind: yaml.SequenceNode}
	for _, c := range t.Columns {
		item := &yaml.Node{Kind: yaml.MappingNode, Style: yaml.FlowStyle}
		item.Content = append(item.Content, str("name"), str(c.Name))
		if c.Unit != "" {
			item.Content = append(item.Content, str("unit"), str(c.Unit))
		}
		item.Content = append(item.Content, str("datatype"), str(c.Datatype))
		if c.Format != "" {
			item.Content = append(item.Content, str("format"), str(c.Format))
		}
		if c.Description != "" {
			item.Content = append(item.Content, str("description"), str(c.Description))
		}
		cols.Content = append(cols.Content, item)
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	if t.delimiter() != ' ' {
		root.Content = append(root.Content, str("delimiter"), str(string(t.delimiter())))
	}
	root.Content = append(root.Content, str("datatype"), cols)
	if len(t.Meta) > 0 {
		keys := make([]string, 0, len(t.Meta))
		for k := range t.Meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		meta := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range keys {
			meta.Content = append(meta.Content, str(k), str(t.Meta[k]))
		}
		root.Content = append(root.Content, str("meta"), meta)
	}
	root.Content = append(root.Content, str("schema"), str(schema))

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("encode ecsv header: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode ecsv header: %w", err)
	}
	return buf.Bytes(), nil
}

func str(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func formatNumber(v float64, datatype string) string {
	if math.IsNaN(v) {
		return "nan"
	}
	if strings.HasPrefix(datatype, "int") || strings.HasPrefix(datatype, "uint") {
		return strconv.FormatInt(int64(v), 10)
	}
	bits := 64
	if datatype == "float32" || datatype == "float16" {
		bits = 32
	}
	return strconv.FormatFloat(v, 'g', -1, bits)
}

func quote(s string, delim rune) string {
	if s != "" && s[0] != '#' && !strings.ContainsAny(s, `"`+string(delim)+" \t\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
