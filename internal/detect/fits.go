package detect

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	fitsBlock = 2880
	fitsCard  = 80

	// maxHeaderBlocks bounds a single header so garbage input fails fast.
	maxHeaderBlocks = 256
)

// ErrNotFITS is returned by PeekFITS when the stream is not FITS.
var ErrNotFITS = errors.New("not a FITS stream")

// Header is the keyword view of one HDU header. Values keep their card text
// with string quotes removed.
type Header struct {
	Index int
	Kind  string // PRIMARY, IMAGE, BINTABLE or TABLE
	Cards map[string]string
}

// Get returns the value of key.
func (h Header) Get(key string) (string, bool) {
	v, ok := h.Cards[key]
	return v, ok
}

// Int returns key as an integer.
func (h Header) Int(key string) (int, bool) {
	v, ok := h.Cards[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

// Columns lists the TTYPEn names of a table header.
func (h Header) Columns() []string {
	n, _ := h.Int("TFIELDS")
	cols := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		cols = append(cols, h.Cards["TTYPE"+strconv.Itoa(i)])
	}
	return cols
}

// PeekFITS reads at most maxHDUs headers from r without decoding data units.
// It stops early at end of stream.
func PeekFITS(r io.Reader, maxHDUs int) ([]Header, error) {
	var out []Header
	for i := 0; i < maxHDUs; i++ {
		h, err := readHeader(r, i)
		if errors.Is(err, io.EOF) && i > 0 {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, h)
		if err := skipData(r, h); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return out, nil
			}
			return out, err
		}
	}
	return out, nil
}

func readHeader(r io.Reader, index int) (Header, error) {
	h := Header{Index: index, Cards: map[string]string{}}
	block := make([]byte, fitsBlock)
	for n := 0; n < maxHeaderBlocks; n++ {
		if _, err := io.ReadFull(r, block); err != nil {
			if n == 0 && errors.Is(err, io.EOF) {
				return h, io.EOF
			}
			return h, fmt.Errorf("read fits header %d: %w", index, err)
		}
		if n == 0 {
			if err := h.setKind(block, index); err != nil {
				return h, err
			}
		}
		for off := 0; off < fitsBlock; off += fitsCard {
			card := string(block[off : off+fitsCard])
			key := strings.TrimSpace(card[:8])
			if key == "END" {
				return h, nil
			}
			if key == "" || card[8:10] != "= " {
				continue
			}
			h.Cards[key] = cardValue(card[10:])
		}
	}
	return h, fmt.Errorf("%w: header %d has no END card", ErrNotFITS, index)
}

func (h *Header) setKind(block []byte, index int) error {
	first := string(block[:fitsCard])
	switch {
	case index == 0 && strings.HasPrefix(first, "SIMPLE  ="):
		h.Kind = "PRIMARY"
	case index > 0 && strings.HasPrefix(first, "XTENSION="):
		h.Kind = cardValue(first[10:])
	default:
		return fmt.Errorf("%w: header %d starts with %q", ErrNotFITS, index, strings.TrimSpace(first[:10]))
	}
	return nil
}

// cardValue strips the comment and quotes from a card value field.
func cardValue(field string) string {
	field = strings.TrimSpace(field)
	if strings.HasPrefix(field, "'") {
		var b strings.Builder
		for i := 1; i < len(field); i++ {
			if field[i] == '\'' {
				if i+1 < len(field) && field[i+1] == '\'' {
					b.WriteByte('\'')
					i++
					continue
				}
				break
			}
			b.WriteByte(field[i])
		}
		return strings.TrimRight(b.String(), " ")
	}
	if i := strings.Index(field, "/"); i >= 0 {
		field = field[:i]
	}
	return strings.TrimSpace(field)
}

func skipData(r io.Reader, h Header) error {
	bitpix, _ := h.Int("BITPIX")
	naxis, _ := h.Int("NAXIS")
	if naxis == 0 {
		return nil
	}
	size := int64(1)
	for i := 1; i <= naxis; i++ {
		n, _ := h.Int("NAXIS" + strconv.Itoa(i))
		size *= int64(n)
	}
	pcount, _ := h.Int("PCOUNT")
	gcount, ok := h.Int("GCOUNT")
	if !ok {
		gcount = 1
	}
	size = int64(abs(bitpix)/8) * int64(gcount) * (int64(pcount) + size)
	if rem := size % fitsBlock; rem != 0 {
		size += fitsBlock - rem
	}
	_, err := io.CopyN(io.Discard, r, size)
	return err
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
