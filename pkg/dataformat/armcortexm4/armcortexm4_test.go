package armcortexm4

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// blInstr encodes a BL targeting a PC-relative imm32 at a given instruction
// address, little-endian, matching unpackBL/packBL's bit layout.
func blInstr(imm32 int64) []byte {
	upper, lower := packBL(imm32)
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:2], upper)
	binary.LittleEndian.PutUint16(buf[2:4], lower)
	return buf
}

// buildImage lays out n BL instructions back to back, each with the
// immediate produced by imm(i).
func buildImage(n int, imm func(i int) int64) []byte {
	buf := make([]byte, 0, n*4)
	for i := 0; i < n; i++ {
		buf = append(buf, blInstr(imm(i))...)
	}
	return buf
}

func reconstruct(maskedTo, diff []byte) []byte {
	out := make([]byte, len(maskedTo))
	for i := range out {
		out[i] = maskedTo[i] + diff[i]
	}
	return out
}

func TestEncodeDecodeRoundTripBL(t *testing.T) {
	const n = 8 // == minBlockRun, so the run is accepted into a block

	from := buildImage(n, func(i int) int64 { return int64(100 + i*4) })
	to := buildImage(n, func(i int) int64 { return int64(100 + i*4 + 0x1000) })

	origFrom := append([]byte(nil), from...)
	origTo := append([]byte(nil), to...)

	newFrom, newTo, payload := Encode(from, to, Options{})

	if bytes.Equal(newFrom, origFrom) {
		t.Fatalf("Encode did not zero any matched words in from")
	}
	if bytes.Equal(newTo, origTo) {
		t.Fatalf("Encode did not zero any matched words in to")
	}

	overlay, err := Decode(origFrom, payload, int64(len(origTo)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if !bytes.Equal(overlay.MaskedFrom, newFrom) {
		t.Fatalf("Decode's maskedFrom does not match Encode's newFrom:\n got %x\nwant %x", overlay.MaskedFrom, newFrom)
	}

	got := reconstruct(newTo, overlay.Diff)
	if !bytes.Equal(got, origTo) {
		t.Fatalf("reconstructed to does not match original:\n got %x\nwant %x", got, origTo)
	}
}

func TestEncodeDecodeRoundTripShortRunIsNotBlocked(t *testing.T) {
	// Fewer than minBlockRun matches: no block should be built, so nothing
	// is zeroed and the payload carries only empty block lists.
	const n = 3

	from := buildImage(n, func(i int) int64 { return int64(100 + i*4) })
	to := buildImage(n, func(i int) int64 { return int64(100 + i*4 + 0x1000) })

	origFrom := append([]byte(nil), from...)
	origTo := append([]byte(nil), to...)

	newFrom, newTo, payload := Encode(from, to, Options{})

	if !bytes.Equal(newFrom, origFrom) {
		t.Fatalf("short run should not be zeroed in from")
	}
	if !bytes.Equal(newTo, origTo) {
		t.Fatalf("short run should not be zeroed in to")
	}

	overlay, err := Decode(origFrom, payload, int64(len(origTo)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	got := reconstruct(newTo, overlay.Diff)
	if !bytes.Equal(got, origTo) {
		t.Fatalf("reconstructed to does not match original:\n got %x\nwant %x", got, origTo)
	}
}

func TestEncodeDecodeRoundTripDataPointers(t *testing.T) {
	// A data-pointer table: each word points into [dataBegin, dataEnd).
	const n = 8
	const dataBegin = int64(0)
	const dataEnd = int64(0x10000)

	mkImage := func(delta int64) []byte {
		buf := make([]byte, n*4)
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint32(buf[i*4:], uint32(0x1000+int64(i)*0x100+delta))
		}
		return buf
	}

	from := mkImage(0)
	to := mkImage(0x10)

	origFrom := append([]byte(nil), from...)
	origTo := append([]byte(nil), to...)

	opts := Options{
		FromDataOffset: 0, FromDataBegin: dataBegin, FromDataEnd: dataEnd,
		ToDataOffset: 0, ToDataBegin: dataBegin, ToDataEnd: dataEnd,
	}

	newFrom, newTo, payload := Encode(from, to, opts)

	if bytes.Equal(newFrom, origFrom) {
		t.Fatalf("Encode did not zero any matched data pointer words in from")
	}

	overlay, err := Decode(origFrom, payload, int64(len(origTo)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	got := reconstruct(newTo, overlay.Diff)
	if !bytes.Equal(got, origTo) {
		t.Fatalf("reconstructed to does not match original:\n got %x\nwant %x", got, origTo)
	}
}

func TestDecodeTruncatedPayloadFails(t *testing.T) {
	from := buildImage(8, func(i int) int64 { return int64(100 + i*4) })
	to := buildImage(8, func(i int) int64 { return int64(100 + i*4 + 0x1000) })
	origFrom := append([]byte(nil), from...)

	_, _, payload := Encode(from, to, Options{})

	if _, err := Decode(origFrom, payload[:len(payload)-2], int64(len(to))); err == nil {
		t.Fatalf("expected error decoding a truncated payload")
	}
}
