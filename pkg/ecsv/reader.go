package ecsv

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Signature is the first line prefix of every ECSV file.
const Signature = "# %ECSV"

type header struct {
	Delimiter string       `yaml:"delimiter"`
	Datatype  []columnSpec `yaml:"datatype"`
	Meta      yaml.Node    `yaml:"meta"`
	Schema    string       `yaml:"schema"`
}

type columnSpec struct {
	Name        string `yaml:"name"`
	Unit        string `yaml:"unit,omitempty"`
	Datatype    string `yaml:"datatype"`
	Format      string `yaml:"format,omitempty"`
	Description string `yaml:"description,omitempty"`
	Subtype     string `yaml:"subtype,omitempty"`
}

// ReadFile parses an ECSV file from disk.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ecsv file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses an ECSV table from r.
func Read(r io.Reader) (*Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var yamlLines, body []string
	lineNo := 0
	inYAML := false
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		lineNo++
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
			if !strings.HasPrefix(line, Signature) {
				return nil, fmt.Errorf("%w: missing %q signature", ErrMalformed, Signature)
			}
			continue
		}
		if strings.HasPrefix(line, "#") && body == nil {
			content := strings.TrimPrefix(strings.TrimPrefix(line, "#"), " ")
			if !inYAML {
				if strings.TrimSpace(content) == "---" {
					inYAML = true
				}
				continue
			}
			yamlLines = append(yamlLines, content)
			continue
		}
		if line == "" {
			continue
		}
		body = append(body, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ecsv: %w", err)
	}
	if !inYAML {
		return nil, fmt.Errorf("%w: missing header start marker", ErrMalformed)
	}

	var hdr header
	if err := yaml.Unmarshal([]byte(strings.Join(yamlLines, "\n")), &hdr); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformed, err)
	}
	if len(hdr.Datatype) == 0 {
		return nil, fmt.Errorf("%w: header declares no columns", ErrMalformed)
	}

	tbl := &Table{Meta: flattenMeta(&hdr.Meta)}
	switch hdr.Delimiter {
	case "", " ":
		tbl.Delimiter = ' '
	case ",":
		tbl.Delimiter = ','
	default:
		return nil, fmt.Errorf("%w: unsupported delimiter %q", ErrMalformed, hdr.Delimiter)
	}
	for _, spec := range hdr.Datatype {
		if spec.Subtype != "" {
			return nil, fmt.Errorf("%w: column %q: subtype %q not supported", ErrMalformed, spec.Name, spec.Subtype)
		}
		if !isKnownType(spec.Datatype) {
			return nil, fmt.Errorf("%w: column %q: unknown datatype %q", ErrMalformed, spec.Name, spec.Datatype)
		}
		tbl.Columns = append(tbl.Columns, &Column{
			Name:        spec.Name,
			Unit:        spec.Unit,
			Datatype:    spec.Datatype,
			Format:      spec.Format,
			Description: spec.Description,
		})
	}

	if err := readBody(tbl, body); err != nil {
		return nil, err
	}
	return tbl, nil
}

func readBody(tbl *Table, body []string) error {
	if len(body) == 0 {
		return fmt.Errorf("%w: missing column name row", ErrMalformed)
	}
	cr := csv.NewReader(strings.NewReader(strings.Join(body, "\n")))
	cr.Comma = tbl.Delimiter
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = len(tbl.Columns)
	cr.ReuseRecord = true

	names, err := cr.Read()
	if err != nil {
		return fmt.Errorf("%w: column names: %v", ErrMalformed, err)
	}
	for i, name := range names {
		if name != tbl.Columns[i].Name {
			return fmt.Errorf("%w: column %d is %q in body but %q in header", ErrMalformed, i, name, tbl.Columns[i].Name)
		}
	}

	for row := 1; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: row %d: %v", ErrMalformed, row, err)
		}
		for i, field := range rec {
			col := tbl.Columns[i]
			if !col.IsNumeric() {
				col.Strings = append(col.Strings, field)
				continue
			}
			v, err := parseNumber(field)
			if err != nil {
				return fmt.Errorf("%w: row %d column %q: %v", ErrMalformed, row, col.Name, err)
			}
			col.Values = append(col.Values, v)
		}
	}
}

func parseNumber(field string) (float64, error) {
	if field == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(field, 64)
}

// flattenMeta turns the header meta block into string pairs. Astropy writes
// an ordered map (!!omap) as a sequence of one-key mappings; plain mappings
// are accepted too. Nested values are re-encoded as YAML flow text.
func flattenMeta(n *yaml.Node) map[string]string {
	out := map[string]string{}
	var add func(k, v *yaml.Node)
	add = func(k, v *yaml.Node) {
		if v.Kind == yaml.ScalarNode {
			out[k.Value] = v.Value
			return
		}
		if b, err := yaml.Marshal(v); err == nil {
			out[k.Value] = strings.TrimSpace(string(b))
		}
	}
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			add(n.Content[i], n.Content[i+1])
		}
	case yaml.SequenceNode:
		for _, item := range n.Content {
			if item.Kind == yaml.MappingNode && len(item.Content) == 2 {
				add(item.Content[0], item.Content[1])
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
