package fitsutil

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/astrogo/fitsio"
)

// Column is one decoded table column. Numeric cells become float slices
// (length 1 for scalars); text cells fill Strings.
type Column struct {
	Name    string
	Unit    string
	Format  string
	Floats  [][]float64
	Strings []string
}

// IsText reports whether the column decoded as strings.
func (c *Column) IsText() bool { return c.Strings != nil }

// Table is a fully decoded binary table.
type Table struct {
	Columns []*Column
	Rows    int
}

// Column finds a column by case-insensitive name, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// Names lists column names in file order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Table decodes every row of a table HDU.
func (h HDU) Table() (*Table, error) {
	tbl, ok := h.hdu.(*fitsio.Table)
	if !ok {
		return nil, fmt.Errorf("fits hdu %d: not a table", h.index)
	}
	hdr := h.Header()
	cols := tbl.Cols()
	out := &Table{Rows: int(tbl.NumRows())}
	for i, c := range cols {
		unit, _ := hdr.String("TUNIT" + strconv.Itoa(i+1))
		out.Columns = append(out.Columns, &Column{Name: c.Name, Unit: strings.TrimSpace(unit), Format: c.Format})
	}

	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return nil, fmt.Errorf("read fits table %d: %w", h.index, err)
	}
	defer rows.Close()

	for r := 0; rows.Next(); r++ {
		cells := map[string]any{}
		if err := rows.Scan(&cells); err != nil {
			return nil, fmt.Errorf("scan fits table %d row %d: %w", h.index, r, err)
		}
		for _, col := range out.Columns {
			if err := col.append(cells[col.Name]); err != nil {
				return nil, fmt.Errorf("fits table %d row %d column %s: %w", h.index, r, col.Name, err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read fits table %d: %w", h.index, err)
	}
	return out, nil
}

func (c *Column) append(cell any) error {
	if s, ok := cell.(string); ok {
		c.Strings = append(c.Strings, strings.TrimRight(s, " \x00"))
		return nil
	}
	vals, err := floats(reflect.ValueOf(cell))
	if err != nil {
		return err
	}
	c.Floats = append(c.Floats, vals)
	return nil
}

func floats(v reflect.Value) ([]float64, error) {
	switch v.Kind() {
	case reflect.Array, reflect.Slice:
		out := make([]float64, v.Len())
		for i := range out {
			f, err := scalar(v.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	default:
		f, err := scalar(v)
		if err != nil {
			return nil, err
		}
		return []float64{f}, nil
	}
}

func scalar(v reflect.Value) (float64, error) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), nil
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	case reflect.Invalid:
		return 0, fmt.Errorf("missing cell")
	}
	return 0, fmt.Errorf("unsupported cell type %s", v.Type())
}
