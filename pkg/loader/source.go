package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/dkoosis/specio/internal/detect"
	"github.com/dkoosis/specio/internal/fitsutil"
)

// Source locates the bytes to read. Open may be called several times per
// Read (once per detection probe and once to parse); every call's handle is
// closed before Read returns.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

type fileSource string

// File is a Source backed by a path on disk.
func File(path string) Source { return fileSource(path) }

func (f fileSource) Name() string                 { return string(f) }
func (f fileSource) Open() (io.ReadCloser, error) { return os.Open(string(f)) }

type bytesSource struct {
	name string
	data []byte
}

// Bytes is a Source backed by an in-memory buffer.
func Bytes(name string, data []byte) Source { return bytesSource{name: name, data: data} }

func (b bytesSource) Name() string { return b.name }
func (b bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

func open(src Source) (io.ReadCloser, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableSource, err)
	}
	return rc, nil
}

// sniff reports the container format from the first bytes of src.
// Unreadable sources sniff as detect.Unknown.
func sniff(src Source) detect.Format {
	rc, err := src.Open()
	if err != nil {
		return detect.Unknown
	}
	defer rc.Close()

	head := make([]byte, detect.SniffSize)
	n, _ := io.ReadFull(rc, head)
	return detect.Sniff(head[:n])
}

// peekFITS returns up to n headers, or nil when src is not FITS.
func peekFITS(src Source, n int) []detect.Header {
	rc, err := src.Open()
	if err != nil {
		return nil
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, 2880)
	head, _ := br.Peek(detect.SniffSize)
	if detect.Sniff(head) != detect.FITS {
		return nil
	}
	hdrs, err := detect.PeekFITS(br, n)
	if err != nil && len(hdrs) == 0 {
		return nil
	}
	return hdrs
}

// openFITS decodes src. The returned closer releases both the FITS file and
// the underlying handle.
func openFITS(src Source) (*fitsutil.File, func(), error) {
	rc, err := open(src)
	if err != nil {
		return nil, nil, err
	}
	f, err := fitsutil.Open(rc)
	if err != nil {
		rc.Close()
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformedSource, err)
	}
	if f.Len() == 0 {
		f.Close()
		rc.Close()
		return nil, nil, malformed("no HDUs")
	}
	return f, func() {
		_ = f.Close()
		_ = rc.Close()
	}, nil
}

// checkReadable opens and closes src once.
func checkReadable(src Source) error {
	rc, err := open(src)
	if err != nil {
		return err
	}
	_ = rc.Close()
	return nil
}
