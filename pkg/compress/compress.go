// Package compress provides the uniform streaming compressor interface the
// patch container embeds (spec.md §4.D): feed bytes in, get compressed
// bytes out, and flush a trailer once at the end.
package compress

import "github.com/blockpatch/detools/pkg/dterrors"

// Identifiers, fixed by spec.md §6.3. The wire format depends on these
// exact values; never renumber them.
const (
	IDNone = 0
	IDLZMA = 1
	IDCRLE = 2
)

// Names, matching the identifiers above.
const (
	NameNone = "none"
	NameLZMA = "lzma"
	NameCRLE = "crle"
)

// Compressor is fed chunks in order and produces the patch's compressed
// payload. Feed may return an empty slice if the adapter buffers
// internally; Finish must be called exactly once, after the last Feed.
type Compressor interface {
	Feed(chunk []byte) ([]byte, error)
	Finish() ([]byte, error)
}

// Decompressor is the inverse of Compressor: a single-shot expansion of a
// compressed payload back to its plain bytes. Unlike Compressor this need
// not stream, since the patch body is read whole during apply.
type Decompressor func(compressed []byte) ([]byte, error)

// NewCompressor returns the adapter for name, or BadCompression if name is
// not one of "none", "lzma", "crle".
func NewCompressor(name string) (Compressor, error) {
	switch name {
	case NameNone:
		return &noneCompressor{}, nil
	case NameLZMA:
		return newLZMACompressor()
	case NameCRLE:
		return newCRLECompressor(), nil
	default:
		return nil, &dterrors.BadCompression{Name: name}
	}
}

// Decompress expands compressed according to the named scheme.
func Decompress(name string, compressed []byte) ([]byte, error) {
	switch name {
	case NameNone:
		return compressed, nil
	case NameLZMA:
		return decompressLZMA(compressed)
	case NameCRLE:
		return decompressCRLE(compressed)
	default:
		return nil, &dterrors.BadCompression{Name: name}
	}
}

// IDToName maps a wire compression_id to its adapter name, failing with
// BadCompression if id is not one of the three assigned values.
func IDToName(id int64) (string, error) {
	switch id {
	case IDNone:
		return NameNone, nil
	case IDLZMA:
		return NameLZMA, nil
	case IDCRLE:
		return NameCRLE, nil
	default:
		return "", &dterrors.BadCompression{Name: "<unknown id>"}
	}
}

// NameToID is the inverse of IDToName.
func NameToID(name string) (int64, error) {
	switch name {
	case NameNone:
		return IDNone, nil
	case NameLZMA:
		return IDLZMA, nil
	case NameCRLE:
		return IDCRLE, nil
	default:
		return 0, &dterrors.BadCompression{Name: name}
	}
}
