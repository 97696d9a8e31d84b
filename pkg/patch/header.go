// Package patch assembles the patch container (spec.md §4.E): the header
// byte, the normal and in-place body shapes, and the dispatch between them.
// Grounded on original_source/detools/create.py's pack_header,
// create_patch_normal(_data), create_patch_in_place and create_patch.
package patch

import "github.com/blockpatch/detools/pkg/dterrors"

// Patch type identifiers, fixed by spec.md §4.E.
const (
	TypeNormal  = 0
	TypeInPlace = 1
)

// Patch type names.
const (
	NameNormal  = "normal"
	NameInPlace = "in-place"
)

// NameToType maps a patch type name to its wire identifier.
func NameToType(name string) (int64, error) {
	switch name {
	case NameNormal:
		return TypeNormal, nil
	case NameInPlace:
		return TypeInPlace, nil
	default:
		return 0, &dterrors.BadPatchType{Name: name}
	}
}

// TypeToName is the inverse of NameToType.
func TypeToName(id int64) (string, error) {
	switch id {
	case TypeNormal:
		return NameNormal, nil
	case TypeInPlace:
		return NameInPlace, nil
	default:
		return "", &dterrors.BadPatchType{Name: "<unknown type>"}
	}
}

// PackHeader builds the header byte: 1 reserved bit (0), 3 bits patch_type,
// 4 bits compression_id.
func PackHeader(patchType, compressionID int64) byte {
	return byte(patchType&0x7)<<4 | byte(compressionID&0xf)
}

// UnpackHeader is the inverse of PackHeader.
func UnpackHeader(b byte) (patchType, compressionID int64) {
	return int64((b >> 4) & 0x7), int64(b & 0xf)
}
