// Package inplace computes the segment plan and forward-copy shift an
// in-place patch needs so a decoder can apply it into the same flash region
// it is updating without ever reading a byte it has already overwritten.
// See spec.md §4.G; grounded on original_source/detools/create.py's
// calc_shift and create_patch_in_place.
package inplace

import "github.com/blockpatch/detools/pkg/dterrors"

// Validate checks the alignment preconditions spec.md §4.G requires before
// a shift can be computed: memorySize and minimumShiftSize (when non-zero)
// must both be multiples of segmentSize.
func Validate(memorySize, segmentSize, minimumShiftSize int64) error {
	if segmentSize <= 0 || memorySize%segmentSize != 0 {
		return &dterrors.BadAlignment{Field: "memory_size", Value: memorySize, Modulus: segmentSize}
	}

	if minimumShiftSize != 0 && minimumShiftSize%segmentSize != 0 {
		return &dterrors.BadAlignment{Field: "minimum_shift_size", Value: minimumShiftSize, Modulus: segmentSize}
	}

	return nil
}

// DefaultMinimumShiftSize is used when the caller passes 0, matching the
// original's "2 * segment_size" default margin (spec.md §9 "Open question").
func DefaultMinimumShiftSize(segmentSize int64) int64 {
	return 2 * segmentSize
}

// CalcShift shifts from as many whole segments as memory allows, clamped to
// at least minimumShiftSize, so the decoder always has unwritten headroom
// ahead of its write cursor.
func CalcShift(memorySize, segmentSize, minimumShiftSize, fromSize int64) int64 {
	memorySegments := divCeil(memorySize, segmentSize)
	fromSegments := divCeil(fromSize, segmentSize)

	shiftSize := (memorySegments - fromSegments) * segmentSize
	if shiftSize < minimumShiftSize {
		shiftSize = minimumShiftSize
	}

	return shiftSize
}

// Segment describes the from/to slice bounds for one in-place segment: the
// to-side window [ToOffset, ToEnd) and the from-side window starting at
// FromOffset (running to the end of the shifted from buffer).
type Segment struct {
	ToOffset, ToEnd int64
	FromOffset      int64
}

// Plan lays out every segment of a to-sized image of toSize bytes,
// segmentSize bytes at a time, each paired with the from-side window it may
// copy from after shifting by shiftSize. shiftedSize is the length of the
// (already shifted) from buffer the caller is slicing FromOffset against.
func Plan(segmentSize, shiftSize, shiftedSize, toSize int64) []Segment {
	n := divCeil(toSize, segmentSize)
	segments := make([]Segment, n)

	for k := int64(0); k < n; k++ {
		toOffset := k * segmentSize
		toEnd := toOffset + segmentSize
		if toEnd > toSize {
			toEnd = toSize
		}

		fromOffset := toOffset + segmentSize - shiftSize
		if fromOffset < 0 {
			fromOffset = 0
		}
		if fromOffset > shiftedSize {
			fromOffset = shiftedSize
		}

		segments[k] = Segment{ToOffset: toOffset, ToEnd: toEnd, FromOffset: fromOffset}
	}

	return segments
}

func divCeil(a, b int64) int64 {
	return (a + b - 1) / b
}
