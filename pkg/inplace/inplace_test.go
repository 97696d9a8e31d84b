package inplace

import (
	"errors"
	"testing"

	"github.com/blockpatch/detools/pkg/dterrors"
)

func TestValidateRejectsMisalignedMemorySize(t *testing.T) {
	// S5: memory_size=1024, segment_size=300 -> BadAlignment.
	err := Validate(1024, 300, 0)
	var badAlign *dterrors.BadAlignment
	if !errors.As(err, &badAlign) {
		t.Fatalf("Validate(1024, 300, 0) = %v, want *BadAlignment", err)
	}
}

func TestValidateRejectsMisalignedMinimumShift(t *testing.T) {
	err := Validate(1024, 256, 100)
	var badAlign *dterrors.BadAlignment
	if !errors.As(err, &badAlign) {
		t.Fatalf("Validate(1024, 256, 100) = %v, want *BadAlignment", err)
	}
}

func TestValidateAcceptsAlignedSizes(t *testing.T) {
	if err := Validate(1024, 256, 512); err != nil {
		t.Fatalf("Validate(1024, 256, 512) = %v, want nil", err)
	}
	if err := Validate(1024, 256, 0); err != nil {
		t.Fatalf("Validate(1024, 256, 0) = %v, want nil", err)
	}
}

func TestCalcShiftUsesMinimumWhenLarger(t *testing.T) {
	// from occupies almost all of memory: little room to shift, so the
	// minimum dominates.
	got := CalcShift(1024, 256, 512, 1000)
	if got != 512 {
		t.Fatalf("CalcShift = %d, want 512", got)
	}
}

func TestCalcShiftUsesComputedWhenLarger(t *testing.T) {
	// from is much smaller than memory: plenty of room to shift by whole
	// segments, exceeding the minimum.
	got := CalcShift(2048, 256, 256, 256)
	want := int64((2048/256 - 1) * 256) // 7 segments of headroom
	if got != want {
		t.Fatalf("CalcShift = %d, want %d", got, want)
	}
}

func TestPlanCoversEveryByteInOrder(t *testing.T) {
	segments := Plan(256, 512, 1536, 1000)

	if len(segments) != 4 {
		t.Fatalf("len(segments) = %d, want 4", len(segments))
	}

	var prevEnd int64
	for i, seg := range segments {
		if seg.ToOffset != prevEnd {
			t.Fatalf("segment %d: ToOffset = %d, want %d", i, seg.ToOffset, prevEnd)
		}
		if seg.ToEnd <= seg.ToOffset {
			t.Fatalf("segment %d: ToEnd %d <= ToOffset %d", i, seg.ToEnd, seg.ToOffset)
		}
		if seg.FromOffset < 0 {
			t.Fatalf("segment %d: FromOffset %d < 0", i, seg.FromOffset)
		}
		prevEnd = seg.ToEnd
	}

	if prevEnd != 1000 {
		t.Fatalf("last ToEnd = %d, want 1000 (to_size)", prevEnd)
	}
}

func TestPlanFromOffsetGrowsWithSegment(t *testing.T) {
	// Each successive segment's from-window starts later, by exactly
	// segment_size, since to_offset advances by segment_size each time and
	// shift_size is constant.
	segments := Plan(256, 256, 4096, 2000)

	for i := 1; i < len(segments); i++ {
		if segments[i].FromOffset-segments[i-1].FromOffset != 256 {
			t.Fatalf("segment %d FromOffset %d, want segment %d FromOffset %d + 256",
				i, segments[i].FromOffset, i-1, segments[i-1].FromOffset)
		}
	}
}
