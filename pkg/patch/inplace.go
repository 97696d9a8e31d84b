package patch

import (
	"bytes"

	"github.com/blockpatch/detools/pkg/compress"
	"github.com/blockpatch/detools/pkg/dataformat/armcortexm4"
	"github.com/blockpatch/detools/pkg/inplace"
	"github.com/blockpatch/detools/pkg/size"
)

// createInPlace writes a full in-place patch body: header, the five sizing
// fields, and the compressed concatenation of every segment's normal-inner
// body (each produced with compression=none, per spec.md §4.E). Grounded on
// create_patch_in_place.
func createInPlace(from, to []byte, compressionID int64, compressionName string, memorySize, segmentSize, minimumShiftSize int64, dataFormat string, dfOpts armcortexm4.Options) ([]byte, error) {
	if err := inplace.Validate(memorySize, segmentSize, minimumShiftSize); err != nil {
		return nil, err
	}

	if minimumShiftSize == 0 {
		minimumShiftSize = inplace.DefaultMinimumShiftSize(segmentSize)
	}

	fromSize := int64(len(from))
	toSize := int64(len(to))

	shiftSize := inplace.CalcShift(memorySize, segmentSize, minimumShiftSize, fromSize)

	shiftedSize := memorySize - shiftSize
	if shiftedSize < 0 {
		shiftedSize = 0
	}
	if shiftedSize > fromSize {
		shiftedSize = fromSize
	}
	shiftedFrom := from[:shiftedSize]

	var header bytes.Buffer
	header.WriteByte(PackHeader(TypeInPlace, compressionID))
	header.Write(size.Encode(memorySize))
	header.Write(size.Encode(segmentSize))
	header.Write(size.Encode(shiftSize))
	header.Write(size.Encode(fromSize))
	header.Write(size.Encode(toSize))

	if toSize == 0 {
		return header.Bytes(), nil
	}

	segments := inplace.Plan(segmentSize, shiftSize, int64(len(shiftedFrom)), toSize)

	var payload bytes.Buffer
	for _, seg := range segments {
		toSeg := to[seg.ToOffset:seg.ToEnd]

		var fromSeg []byte
		if seg.FromOffset < int64(len(shiftedFrom)) {
			fromSeg = shiftedFrom[seg.FromOffset:]
		}

		body, err := createNormalData(fromSeg, toSeg, compress.NameNone, dataFormat, dfOpts)
		if err != nil {
			return nil, err
		}

		payload.Write(size.Encode(int64(len(toSeg))))
		payload.Write(body)
	}

	compressor, err := compress.NewCompressor(compressionName)
	if err != nil {
		return nil, err
	}

	fed, err := compressor.Feed(payload.Bytes())
	if err != nil {
		return nil, err
	}

	tail, err := compressor.Finish()
	if err != nil {
		return nil, err
	}

	header.Write(fed)
	header.Write(tail)

	return header.Bytes(), nil
}
