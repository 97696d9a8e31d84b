package patch

import "github.com/blockpatch/detools/pkg/dataformat/armcortexm4"

// Settings mirrors create_patch's keyword arguments: everything needed to
// pick a patch shape and, for in-place patches, plan the segment shift.
// DataFormat is empty to disable the preprocessor; DataFormatOptions is
// ignored in that case.
type Settings struct {
	Compression string
	PatchType   string

	MemorySize       int64
	SegmentSize      int64
	MinimumShiftSize int64

	DataFormat        string
	DataFormatOptions armcortexm4.Options
}

// DefaultSettings matches detools.create_patch's defaults: lzma compression,
// a normal (non in-place) patch, and no data-format preprocessor.
func DefaultSettings() Settings {
	return Settings{
		Compression: "lzma",
		PatchType:   NameNormal,
	}
}
