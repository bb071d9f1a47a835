// Package detect sniffs leading bytes to determine the container format.
package detect

import (
	"bytes"
)

// Format represents a recognized container format.
type Format int

const (
	Unknown Format = iota
	ECSV           // "# %ECSV" text table
	FITS           // FITS primary header
)

func (f Format) String() string {
	switch f {
	case ECSV:
		return "ecsv"
	case FITS:
		return "fits"
	default:
		return "unknown"
	}
}

// SniffSize is enough leading bytes for Sniff to decide.
const SniffSize = 80

var (
	ecsvSignature = []byte("# %ECSV")
	fitsSignature = []byte("SIMPLE  =")
)

// Sniff examines the first bytes of input to determine format.
func Sniff(data []byte) Format {
	// ECSV writers sometimes emit a UTF-8 BOM
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	switch {
	case bytes.HasPrefix(data, fitsSignature) && isFITSPrimary(data):
		return FITS
	case bytes.HasPrefix(data, ecsvSignature):
		return ECSV
	default:
		return Unknown
	}
}

// isFITSPrimary checks the SIMPLE card carries a logical T.
func isFITSPrimary(data []byte) bool {
	if len(data) < 30 {
		return false
	}
	return string(bytes.TrimSpace(data[10:30])) == "T"
}
