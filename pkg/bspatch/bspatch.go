// Package bspatch reconstructs a to image from a from image and a patch
// produced by pkg/patch. spec.md treats the production decoder as an
// external collaborator out of scope for the core; this package exists so
// this module's own tests can exercise round-trip correctness end to end.
// Grounded in shape on the teacher's bspatch.go (control-triple walk,
// add-diff-to-copied-bytes reconstruction), adapted to the size-encoded,
// single-stream container this module writes instead of BSDIFF40's three
// bzip2 streams.
package bspatch

import (
	"bytes"
	"io"

	"github.com/blockpatch/detools/pkg/compress"
	"github.com/blockpatch/detools/pkg/dataformat"
	"github.com/blockpatch/detools/pkg/dataformat/armcortexm4"
	"github.com/blockpatch/detools/pkg/dterrors"
	"github.com/blockpatch/detools/pkg/inplace"
	"github.com/blockpatch/detools/pkg/patch"
	"github.com/blockpatch/detools/pkg/size"
)

// Bytes applies patchBytes to from and returns the reconstructed to image.
func Bytes(from, patchBytes []byte) ([]byte, error) {
	r := bytes.NewReader(patchBytes)

	header, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	patchType, compressionID := patch.UnpackHeader(header)

	compressionName, err := compress.IDToName(compressionID)
	if err != nil {
		return nil, err
	}

	switch patchType {
	case patch.TypeNormal:
		return applyNormal(from, r, compressionName)
	case patch.TypeInPlace:
		return applyInPlace(from, r, compressionName)
	default:
		return nil, &dterrors.BadPatchType{Name: "<unknown type>"}
	}
}

func applyNormal(from []byte, r *bytes.Reader, compressionName string) ([]byte, error) {
	toSize, err := size.ReadFrom(r)
	if err != nil {
		return nil, err
	}
	if toSize == 0 {
		return []byte{}, nil
	}

	rest := make([]byte, r.Len())
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}

	plain, err := compress.Decompress(compressionName, rest)
	if err != nil {
		return nil, err
	}

	return applyNormalData(from, bytes.NewReader(plain), toSize)
}

func applyInPlace(from []byte, r *bytes.Reader, compressionName string) ([]byte, error) {
	memorySize, err := size.ReadFrom(r)
	if err != nil {
		return nil, err
	}
	segmentSize, err := size.ReadFrom(r)
	if err != nil {
		return nil, err
	}
	shiftSize, err := size.ReadFrom(r)
	if err != nil {
		return nil, err
	}
	fromSize, err := size.ReadFrom(r)
	if err != nil {
		return nil, err
	}
	toSize, err := size.ReadFrom(r)
	if err != nil {
		return nil, err
	}

	if toSize == 0 {
		return []byte{}, nil
	}

	rest := make([]byte, r.Len())
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}

	plain, err := compress.Decompress(compressionName, rest)
	if err != nil {
		return nil, err
	}
	pr := bytes.NewReader(plain)

	shiftedSize := memorySize - shiftSize
	if shiftedSize < 0 {
		shiftedSize = 0
	}
	if shiftedSize > fromSize {
		shiftedSize = fromSize
	}
	if shiftedSize > int64(len(from)) {
		shiftedSize = int64(len(from))
	}
	shiftedFrom := from[:shiftedSize]

	segments := inplace.Plan(segmentSize, shiftSize, int64(len(shiftedFrom)), toSize)

	to := make([]byte, 0, toSize)

	for _, seg := range segments {
		segToSize, err := size.ReadFrom(pr)
		if err != nil {
			return nil, err
		}

		var fromSeg []byte
		if seg.FromOffset < int64(len(shiftedFrom)) {
			fromSeg = shiftedFrom[seg.FromOffset:]
		}

		segTo, err := applyNormalData(fromSeg, pr, segToSize)
		if err != nil {
			return nil, err
		}

		to = append(to, segTo...)
	}

	return to, nil
}

// applyNormalData reconstructs a toSize-byte image from the data_format_block
// and bsdiff stream that follow a normal patch's to_size field.
func applyNormalData(from []byte, r *bytes.Reader, toSize int64) ([]byte, error) {
	payloadLen, err := size.ReadFrom(r)
	if err != nil {
		return nil, err
	}

	useFrom := from
	var overlay *armcortexm4.Overlay

	if payloadLen != 0 {
		dfID, err := size.ReadFrom(r)
		if err != nil {
			return nil, err
		}
		if _, err := dataformat.IDToName(dfID); err != nil {
			return nil, err
		}

		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}

		ov, err := armcortexm4.Decode(from, payload, toSize)
		if err != nil {
			return nil, err
		}
		overlay = &ov
		useFrom = ov.MaskedFrom
	}

	to, err := applyBsdiff(useFrom, r, toSize)
	if err != nil {
		return nil, err
	}

	if overlay != nil {
		for i := range to {
			to[i] += overlay.Diff[i]
		}
	}

	return to, nil
}

// applyBsdiff walks size-encoded (copy_len, extra_len, seek_adjust) triples,
// adding each diff byte to its corresponding from byte and copying literal
// extra bytes, until toSize bytes of to have been produced.
func applyBsdiff(from []byte, r *bytes.Reader, toSize int64) ([]byte, error) {
	to := make([]byte, toSize)
	var oldpos, newpos int64

	for newpos < toSize {
		copyLen, err := size.ReadFrom(r)
		if err != nil {
			return nil, err
		}
		extraLen, err := size.ReadFrom(r)
		if err != nil {
			return nil, err
		}
		seekAdjust, err := size.ReadFrom(r)
		if err != nil {
			return nil, err
		}

		if copyLen < 0 || extraLen < 0 || newpos+copyLen > toSize {
			return nil, dterrors.Internal
		}

		diff := make([]byte, copyLen)
		if _, err := io.ReadFull(r, diff); err != nil {
			return nil, err
		}

		for i := int64(0); i < copyLen; i++ {
			var fb byte
			if idx := oldpos + i; idx >= 0 && idx < int64(len(from)) {
				fb = from[idx]
			}
			to[newpos+i] = diff[i] + fb
		}

		newpos += copyLen
		oldpos += copyLen

		if newpos+extraLen > toSize {
			return nil, dterrors.Internal
		}

		if extraLen > 0 {
			if _, err := io.ReadFull(r, to[newpos:newpos+extraLen]); err != nil {
				return nil, err
			}
		}

		newpos += extraLen
		oldpos += seekAdjust
	}

	return to, nil
}
