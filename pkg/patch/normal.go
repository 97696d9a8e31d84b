package patch

import (
	"bytes"

	"github.com/blockpatch/detools/pkg/bsdiff"
	"github.com/blockpatch/detools/pkg/compress"
	"github.com/blockpatch/detools/pkg/dataformat"
	"github.com/blockpatch/detools/pkg/dataformat/armcortexm4"
	"github.com/blockpatch/detools/pkg/sais"
	"github.com/blockpatch/detools/pkg/size"
)

// createNormal writes a full normal patch body: header, size_encoded
// to_size, and the compressed data-format block plus bsdiff stream.
// Grounded on create_patch_normal/create_patch_normal_data.
func createNormal(from, to []byte, compressionID int64, compressionName, dataFormat string, dfOpts armcortexm4.Options) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(PackHeader(TypeNormal, compressionID))
	buf.Write(size.Encode(int64(len(to))))

	body, err := createNormalData(from, to, compressionName, dataFormat, dfOpts)
	if err != nil {
		return nil, err
	}
	buf.Write(body)

	return buf.Bytes(), nil
}

// createNormalData is the inner body shared by both the top-level normal
// patch and every in-place segment: the data_format_block (size_encoded(0)
// for "no preprocessor", or the encoded preprocessor payload) followed by
// the bsdiff stream, both passed through one compressor. Returns nil for an
// empty to (spec.md §4.E
// "Empty to_size short-circuits").
func createNormalData(from, to []byte, compressionName, dataFormat string, dfOpts armcortexm4.Options) ([]byte, error) {
	if len(to) == 0 {
		return nil, nil
	}

	compressor, err := compress.NewCompressor(compressionName)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	feed := func(chunk []byte) error {
		out, ferr := compressor.Feed(chunk)
		if ferr != nil {
			return ferr
		}
		_, werr := buf.Write(out)
		return werr
	}

	useFrom, useTo := from, to

	var dfBlock []byte
	if dataFormat == "" {
		dfBlock = size.Encode(0)
	} else {
		id, derr := dataformat.NameToID(dataFormat)
		if derr != nil {
			return nil, derr
		}

		newFrom, newTo, payload := armcortexm4.Encode(from, to, dfOpts)
		useFrom, useTo = newFrom, newTo

		dfBlock = make([]byte, 0, len(payload)+2*size.MaxBytes)
		dfBlock = append(dfBlock, size.Encode(int64(len(payload)))...)
		dfBlock = append(dfBlock, size.Encode(id)...)
		dfBlock = append(dfBlock, payload...)
	}

	if err := feed(dfBlock); err != nil {
		return nil, err
	}

	sa := sais.Build(useFrom)
	if err := bsdiff.Create(sa, useFrom, useTo, feed); err != nil {
		return nil, err
	}

	tail, err := compressor.Finish()
	if err != nil {
		return nil, err
	}
	buf.Write(tail)

	return buf.Bytes(), nil
}
