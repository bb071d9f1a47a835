package fitstest

import "fmt"

// WCS1D is a linear 1-D spectrum image in the primary HDU: n pixels starting
// at 3500 with a step of 2. Extra cards are merged into the header.
func WCS1D(n int, extra ...Card) []byte {
	header := Merge([]Card{
		{Key: "OBJECT", Value: "2MASS J03552337+1133437"},
		{Key: "CTYPE1", Value: "LINEAR"},
		{Key: "CRVAL1", Value: 3500.0},
		{Key: "CDELT1", Value: 2.0},
		{Key: "CRPIX1", Value: 1.0},
	}, extra...)
	return Build(&Image{Shape: []int{n}, Data: Wave(n, 1e-15), Header: header})
}

// segment is one row of an x1d table.
type segment struct {
	name  string
	order int
	start float64
	step  float64
	n     int
}

// x1d builds the primary and SCI extension shared by COS and STIS x1d files.
// Rows are padded to width elements; NELEM marks the valid prefix.
func x1d(instrument, detector, grating, labelCol string, width int, segs []segment) []byte {
	primary := &Image{Header: []Card{
		{Key: "TELESCOP", Value: "HST"},
		{Key: "INSTRUME", Value: instrument},
		{Key: "DETECTOR", Value: detector},
		{Key: "OPT_ELEM", Value: grating},
		{Key: "TARGNAME", Value: "WD1057+719"},
	}}

	var wave, flux, errs, dq [][]float64
	var nelem []float64
	var labels []string
	var orders []float64
	for _, s := range segs {
		w := Ramp(s.n, s.start, s.step)
		f := Wave(s.n, 2e-14)
		e := make([]float64, s.n)
		q := make([]float64, s.n)
		for i := range e {
			e[i] = 1e-15
			if i%50 == 7 {
				q[i] = 16
			}
		}
		wave = append(wave, w)
		flux = append(flux, f)
		errs = append(errs, e)
		dq = append(dq, q)
		nelem = append(nelem, float64(s.n))
		labels = append(labels, s.name)
		orders = append(orders, float64(s.order))
	}

	dqCol := Vector("DQ", "", dq...)
	dqCol.Type = 'I'
	cols := []Column{}
	if labelCol == "SEGMENT" {
		cols = append(cols, Text("SEGMENT", labels...))
	} else {
		cols = append(cols, Scalar("SPORDER", "", 'I', orders...))
	}
	cols = append(cols,
		Scalar("NELEM", "", 'J', nelem...),
		padded(Vector("WAVELENGTH", "Angstrom", wave...), width),
		padded(Vector("FLUX", "erg /s /cm**2 /Angstrom", flux...), width),
		padded(Vector("ERROR", "erg /s /cm**2 /Angstrom", errs...), width),
		padded(dqCol, width),
	)
	return Build(primary, &Table{Columns: cols, Header: []Card{{Key: "EXTNAME", Value: "SCI"}}})
}

func padded(c Column, width int) Column {
	if width > c.Repeat {
		c.Repeat = width
	}
	return c
}

// COS builds a COS x1d file. FUV has two segments (FUVA, FUVB), NUV three
// stripes (NUVA, NUVB, NUVC).
func COS(detector string) []byte {
	switch detector {
	case "FUV":
		return x1d("COS", "FUV", "G130M", "SEGMENT", 512, []segment{
			{name: "FUVA", start: 1300, step: 0.01, n: 480},
			{name: "FUVB", start: 1150, step: 0.01, n: 500},
		})
	case "NUV":
		return x1d("COS", "NUV", "G185M", "SEGMENT", 320, []segment{
			{name: "NUVA", start: 1700, step: 0.04, n: 300},
			{name: "NUVB", start: 1800, step: 0.04, n: 300},
			{name: "NUVC", start: 1900, step: 0.04, n: 300},
		})
	}
	panic(fmt.Sprintf("fitstest: unknown COS detector %q", detector))
}

// STIS builds a first-order STIS x1d file for FUV-MAMA, NUV-MAMA or CCD.
func STIS(detector string) []byte {
	switch detector {
	case "FUV-MAMA":
		return x1d("STIS", detector, "G140L", "SPORDER", 1024, []segment{
			{order: 1, start: 1150, step: 0.58, n: 1024},
		})
	case "NUV-MAMA":
		return x1d("STIS", detector, "G230L", "SPORDER", 1024, []segment{
			{order: 1, start: 1570, step: 1.55, n: 1024},
		})
	case "CCD":
		return x1d("STIS", detector, "G430L", "SPORDER", 1024, []segment{
			{order: 1, start: 2900, step: 2.73, n: 1024},
		})
	}
	panic(fmt.Sprintf("fitstest: unknown STIS detector %q", detector))
}

// STISEchelle builds an echelle x1d with three overlapping orders.
func STISEchelle() []byte {
	return x1d("STIS", "FUV-MAMA", "E140M", "SPORDER", 256, []segment{
		{order: 120, start: 1400, step: 0.01, n: 256},
		{order: 121, start: 1402, step: 0.01, n: 256},
		{order: 122, start: 1404, step: 0.01, n: 256},
	})
}
