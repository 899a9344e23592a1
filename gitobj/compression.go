package gitobj

import (
	"io"

	kzlib "github.com/klauspost/compress/zlib"
	kflate "github.com/klauspost/compress/flate"
)

// Compression is the injected capability for deflating and inflating
// object bytes (spec.md §6). Loose objects use zlib-wrapped deflate; pack
// payloads use raw deflate. Passing this as an explicit collaborator,
// rather than reaching for a package-level compressor, is spec.md §9's
// "Global compression provider" note acted on: every store that needs
// compression takes one of these at construction.
type Compression interface {
	// Deflate wraps w so that bytes written to the result are compressed
	// into w. If raw is true, no zlib header/trailer is emitted (the form
	// pack-file payloads use); otherwise the payload is zlib-wrapped (the
	// form loose objects use).
	Deflate(w io.Writer, raw bool) (io.WriteCloser, error)
	// Inflate wraps r so that bytes read from the result are decompressed
	// from r, matching the raw/zlib-wrapped distinction Deflate makes.
	Inflate(r io.Reader, raw bool) (io.ReadCloser, error)
}

// klauspostCompression implements Compression using klauspost/compress,
// a drop-in-faster replacement for the standard library's compress/zlib and
// compress/flate with the same Reader/Writer shapes.
type klauspostCompression struct{}

// NewCompression returns the default Compression provider.
func NewCompression() Compression {
	return klauspostCompression{}
}

func (klauspostCompression) Deflate(w io.Writer, raw bool) (io.WriteCloser, error) {
	if raw {
		return kflate.NewWriter(w, kflate.DefaultCompression)
	}
	return kzlib.NewWriter(w), nil
}

func (klauspostCompression) Inflate(r io.Reader, raw bool) (io.ReadCloser, error) {
	if raw {
		return kflate.NewReader(r), nil
	}
	return kzlib.NewReader(r)
}
