package compress

import (
	"bytes"

	"github.com/blockpatch/detools/pkg/dterrors"
	"github.com/blockpatch/detools/pkg/size"
)

// crleRunThreshold is the minimum run length that pays for a repeated
// section's header overhead (a negative size marker, a run-length size
// field, and the repeated byte itself) instead of just appending the bytes
// to the current scattered section.
const crleRunThreshold = 8

// crleCompressor is a constant run-length encoder (spec.md §4.D): the
// stream alternates scattered sections (a non-negative size-encoded length
// followed by that many literal bytes) and repeated sections (a negative
// size-encoded marker whose magnitude is the repeat count, a size-encoded
// run length — always 1 for a single repeated byte — and that byte).
//
// It buffers everything fed to it and encodes on Finish, since a run can
// span a Feed boundary and the section header must be written before the
// section's bytes.
type crleCompressor struct {
	pending bytes.Buffer
}

func newCRLECompressor() *crleCompressor {
	return &crleCompressor{}
}

func (c *crleCompressor) Feed(chunk []byte) ([]byte, error) {
	c.pending.Write(chunk)
	return nil, nil
}

func (c *crleCompressor) Finish() ([]byte, error) {
	return EncodeCRLE(c.pending.Bytes()), nil
}

// EncodeCRLE runs the constant-run-length encoding over buf in one shot.
func EncodeCRLE(buf []byte) []byte {
	var out bytes.Buffer
	var scattered []byte

	flushScattered := func() {
		if len(scattered) == 0 {
			return
		}
		out.Write(size.Encode(int64(len(scattered))))
		out.Write(scattered)
		scattered = nil
	}

	i := 0
	n := len(buf)

	for i < n {
		j := i + 1
		for j < n && buf[j] == buf[i] {
			j++
		}
		runLen := j - i

		if runLen >= crleRunThreshold {
			flushScattered()
			out.Write(size.Encode(-int64(runLen)))
			out.Write(size.Encode(1))
			out.WriteByte(buf[i])
		} else {
			scattered = append(scattered, buf[i:j]...)
		}

		i = j
	}

	flushScattered()

	return out.Bytes()
}

// decompressCRLE is the inverse of EncodeCRLE.
func decompressCRLE(compressed []byte) ([]byte, error) {
	var out bytes.Buffer
	pos := 0

	for pos < len(compressed) {
		marker, n, err := size.Decode(compressed[pos:])
		if err != nil {
			return nil, err
		}
		pos += n

		if marker >= 0 {
			length := int(marker)
			if pos+length > len(compressed) {
				return nil, dterrors.MalformedSize
			}
			out.Write(compressed[pos : pos+length])
			pos += length
			continue
		}

		repeatCount := -marker
		runLength, n, err := size.Decode(compressed[pos:])
		if err != nil {
			return nil, err
		}
		pos += n

		if pos+int(runLength) > len(compressed) {
			return nil, dterrors.MalformedSize
		}
		unit := compressed[pos : pos+int(runLength)]
		pos += int(runLength)

		for k := int64(0); k < repeatCount; k++ {
			out.Write(unit)
		}
	}

	return out.Bytes(), nil
}
