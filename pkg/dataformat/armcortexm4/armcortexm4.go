// Package armcortexm4 implements the "arm-cortex-m4" data-format
// preprocessor (spec.md §4.F): it identifies PC-relative Thumb-2 branch
// immediates, literal-pool loads, and data/code pointer words, rewrites
// them to from-to residuals recorded in a block map, and zeros the source
// words so the generic bsdiff pass doesn't waste bytes re-encoding values
// that change on every relocation. Grounded directly on
// original_source/detools/data_format/arm.py.
package armcortexm4

import (
	"bytes"
	"encoding/binary"

	"github.com/blockpatch/detools/pkg/size"
)

// Options describes the data and code regions of both images, mirroring
// cortex_m4_encode's parameters in arm.py. A zero DataEnd/CodeEnd disables
// that region's scan, matching the original's from_data_end==0 convention.
type Options struct {
	FromDataOffset, FromDataBegin, FromDataEnd int64
	FromCodeBegin, FromCodeEnd                 int64
	ToDataOffset, ToDataBegin, ToDataEnd       int64
	ToCodeBegin, ToCodeEnd                     int64
}

// Encode disassembles from and to, substitutes relocatable fields with
// residuals, and returns copy-on-entry from/to buffers with the matched
// words zeroed plus the data-format payload to embed in the patch.
func Encode(from, to []byte, opts Options) (newFrom, newTo, payload []byte) {
	newFrom = append([]byte(nil), from...)
	newTo = append([]byte(nil), to...)

	fromAnn := disassemble(newFrom, opts.FromDataOffset, opts.FromDataBegin, opts.FromDataEnd, opts.FromCodeBegin, opts.FromCodeEnd)
	toAnn := disassemble(newTo, opts.ToDataOffset, opts.ToDataBegin, opts.ToDataEnd, opts.ToCodeBegin, opts.ToCodeEnd)

	var buf bytes.Buffer

	if opts.FromDataEnd == 0 {
		buf.WriteByte(0)
	} else {
		buf.WriteByte(1)
		buf.Write(size.Encode(opts.FromDataOffset))
		buf.Write(size.Encode(opts.FromDataBegin))
		buf.Write(size.Encode(opts.FromDataEnd))
		buf.Write(encodeBlocks(buildBlocks(newFrom, newTo, fromAnn.dataPointers, toAnn.dataPointers)))
	}

	if opts.FromCodeEnd == 0 {
		buf.WriteByte(0)
	} else {
		buf.WriteByte(1)
		buf.Write(size.Encode(opts.FromCodeBegin))
		buf.Write(size.Encode(opts.FromCodeEnd))
		buf.Write(encodeBlocks(buildBlocks(newFrom, newTo, fromAnn.codePointers, toAnn.codePointers)))
	}

	buf.Write(encodeBlocks(buildBlocks(newFrom, newTo, fromAnn.bw, toAnn.bw)))
	buf.Write(encodeBlocks(buildBlocks(newFrom, newTo, fromAnn.bl, toAnn.bl)))
	buf.Write(encodeBlocks(buildBlocks(newFrom, newTo, fromAnn.ldr, toAnn.ldr)))
	buf.Write(encodeBlocks(buildBlocks(newFrom, newTo, fromAnn.ldrW, toAnn.ldrW)))

	return newFrom, newTo, buf.Bytes()
}

// Overlay is the decode-side reconstruction of a Cortex-M4 data-format
// payload: MaskedFrom is a copy of the original from image with every
// matched relocatable word zeroed (the same view the encoder's bsdiff pass
// ran over), and Diff is a to-sized, zero-filled buffer holding the
// real values at their to-addresses. A correct apply adds Diff onto the
// bsdiff-reconstructed (still masked) to image.
type Overlay struct {
	MaskedFrom []byte
	Diff       []byte
}

// Decode reverses Encode given the original (unmodified) from image, the
// payload Encode produced, and the size of the to image.
func Decode(from []byte, payload []byte, toSize int64) (Overlay, error) {
	r := bytes.NewReader(payload)

	dataPresent, err := readFlag(r)
	if err != nil {
		return Overlay{}, err
	}

	var dataOffset, dataBegin, dataEnd int64
	var dataBlocks []block

	if dataPresent {
		if dataOffset, err = size.ReadFrom(r); err != nil {
			return Overlay{}, err
		}
		if dataBegin, err = size.ReadFrom(r); err != nil {
			return Overlay{}, err
		}
		if dataEnd, err = size.ReadFrom(r); err != nil {
			return Overlay{}, err
		}
		if dataBlocks, err = decodeBlocks(r); err != nil {
			return Overlay{}, err
		}
	}

	codePresent, err := readFlag(r)
	if err != nil {
		return Overlay{}, err
	}

	var codeBegin, codeEnd int64
	var codeBlocks []block

	if codePresent {
		if codeBegin, err = size.ReadFrom(r); err != nil {
			return Overlay{}, err
		}
		if codeEnd, err = size.ReadFrom(r); err != nil {
			return Overlay{}, err
		}
		if codeBlocks, err = decodeBlocks(r); err != nil {
			return Overlay{}, err
		}
	}

	bwBlocks, err := decodeBlocks(r)
	if err != nil {
		return Overlay{}, err
	}
	blBlocks, err := decodeBlocks(r)
	if err != nil {
		return Overlay{}, err
	}
	ldrBlocks, err := decodeBlocks(r)
	if err != nil {
		return Overlay{}, err
	}
	ldrWBlocks, err := decodeBlocks(r)
	if err != nil {
		return Overlay{}, err
	}

	ann := disassemble(from, dataOffset, dataBegin, dataEnd, codeBegin, codeEnd)

	maskedFrom := append([]byte(nil), from...)
	diff := make([]byte, toSize)

	applyZeroFrom(maskedFrom, ann.bw, bwBlocks)
	applyZeroFrom(maskedFrom, ann.bl, blBlocks)
	applyZeroFrom(maskedFrom, ann.ldr, ldrBlocks)
	applyZeroFrom(maskedFrom, ann.ldrW, ldrWBlocks)
	applyZeroFrom(maskedFrom, ann.dataPointers, dataBlocks)
	applyZeroFrom(maskedFrom, ann.codePointers, codeBlocks)

	applyOverlayWord(diff, ann.ldr, ldrBlocks, packWord)
	applyOverlayWord(diff, ann.ldrW, ldrWBlocks, packWord)
	applyOverlayWord(diff, ann.bl, blBlocks, packBLBytes)
	applyOverlayWord(diff, ann.bw, bwBlocks, packBWBytes)
	applyOverlayWord(diff, ann.dataPointers, dataBlocks, packWord)
	applyOverlayWord(diff, ann.codePointers, codeBlocks, packWord)

	return Overlay{MaskedFrom: maskedFrom, Diff: diff}, nil
}

func readFlag(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	return b == 1, nil
}

func applyZeroFrom(from []byte, fromMap map[int64]int64, blocks []block) {
	sorted := sortMap(fromMap)
	for _, b := range blocks {
		for i := range b.Residuals {
			zeroWord(from, sorted.addrs[b.FromOffset+int64(i)])
		}
	}
}

func applyOverlayWord(diff []byte, fromMap map[int64]int64, blocks []block, pack func(int64) []byte) {
	sorted := sortMap(fromMap)

	for _, b := range blocks {
		baseAddr := sorted.addrs[b.FromOffset]

		for i, residual := range b.Residuals {
			fromAddr := sorted.addrs[b.FromOffset+int64(i)]
			fromValue := sorted.values[b.FromOffset+int64(i)]
			toValue := fromValue - residual
			toAddr := b.ToAddress + (fromAddr - baseAddr)
			copy(diff[toAddr:toAddr+4], pack(toValue))
		}
	}
}

func packWord(v int64) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(int32(v)))
	return buf
}

func packBWBytes(v int64) []byte {
	upper, lower := packBW(v)
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:2], upper)
	binary.LittleEndian.PutUint16(buf[2:4], lower)
	return buf
}

func packBLBytes(v int64) []byte {
	upper, lower := packBL(v)
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:2], upper)
	binary.LittleEndian.PutUint16(buf[2:4], lower)
	return buf
}

func encodeBlocks(blocks []block) []byte {
	var buf bytes.Buffer
	buf.Write(size.Encode(int64(len(blocks))))

	for _, b := range blocks {
		buf.Write(size.Encode(b.FromOffset))
		buf.Write(size.Encode(b.ToAddress))
		buf.Write(size.Encode(int64(len(b.Residuals))))
		for _, r := range b.Residuals {
			buf.Write(size.Encode(r))
		}
	}

	return buf.Bytes()
}

func decodeBlocks(r *bytes.Reader) ([]block, error) {
	count, err := size.ReadFrom(r)
	if err != nil {
		return nil, err
	}

	blocks := make([]block, count)

	for i := range blocks {
		fromOffset, err := size.ReadFrom(r)
		if err != nil {
			return nil, err
		}
		toAddress, err := size.ReadFrom(r)
		if err != nil {
			return nil, err
		}
		valueCount, err := size.ReadFrom(r)
		if err != nil {
			return nil, err
		}

		residuals := make([]int64, valueCount)
		for j := range residuals {
			residuals[j], err = size.ReadFrom(r)
			if err != nil {
				return nil, err
			}
		}

		blocks[i] = block{FromOffset: fromOffset, ToAddress: toAddress, Residuals: residuals}
	}

	return blocks, nil
}
