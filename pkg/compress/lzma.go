package compress

import (
	"bytes"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// lzmaCompressor wraps an LZMA encoder in the classic "alone" container
// (magic-less properties byte + 4-byte dictionary size + 8-byte
// uncompressed size, as github.com/ulikunitz/xz/lzma.NewWriter emits).
// The encoder buffers internally, so Feed never returns output; Finish
// closes the stream and hands back everything at once.
type lzmaCompressor struct {
	buf *bytes.Buffer
	w   *lzma.Writer
}

func newLZMACompressor() (*lzmaCompressor, error) {
	buf := new(bytes.Buffer)
	w, err := lzma.NewWriter(buf)
	if err != nil {
		return nil, err
	}
	return &lzmaCompressor{buf: buf, w: w}, nil
}

func (c *lzmaCompressor) Feed(chunk []byte) ([]byte, error) {
	if _, err := c.w.Write(chunk); err != nil {
		return nil, err
	}
	return nil, nil
}

func (c *lzmaCompressor) Finish() ([]byte, error) {
	if err := c.w.Close(); err != nil {
		return nil, err
	}
	return c.buf.Bytes(), nil
}

func decompressLZMA(compressed []byte) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
