package patch

import "github.com/blockpatch/detools/pkg/compress"

// Create builds a full patch transforming from into to under settings,
// dispatching to the normal or in-place body shape. Grounded on
// create_patch.
func Create(from, to []byte, settings Settings) ([]byte, error) {
	compressionID, err := compress.NameToID(settings.Compression)
	if err != nil {
		return nil, err
	}

	patchType := settings.PatchType
	if patchType == "" {
		patchType = NameNormal
	}

	switch patchType {
	case NameNormal:
		return createNormal(from, to, compressionID, settings.Compression, settings.DataFormat, settings.DataFormatOptions)
	case NameInPlace:
		return createInPlace(from, to, compressionID, settings.Compression,
			settings.MemorySize, settings.SegmentSize, settings.MinimumShiftSize,
			settings.DataFormat, settings.DataFormatOptions)
	default:
		_, terr := NameToType(patchType)
		return nil, terr
	}
}
