// Package dataformat holds the identifiers for data-format preprocessors
// (spec.md §6.4) and the registry used to look them up by name or id.
// Only "arm-cortex-m4" exists today; future identifiers are reserved and
// fail to decode as UnknownDataFormat.
package dataformat

import "github.com/blockpatch/detools/pkg/dterrors"

const (
	NameArmCortexM4 = "arm-cortex-m4"
	IDArmCortexM4   = 0
)

// NameToID maps a data-format name to its wire identifier.
func NameToID(name string) (int64, error) {
	switch name {
	case NameArmCortexM4:
		return IDArmCortexM4, nil
	default:
		return 0, &dterrors.UnknownDataFormat{ID: -1}
	}
}

// IDToName maps a wire identifier to its data-format name, failing with
// UnknownDataFormat for any reserved/unrecognized id.
func IDToName(id int64) (string, error) {
	switch id {
	case IDArmCortexM4:
		return NameArmCortexM4, nil
	default:
		return "", &dterrors.UnknownDataFormat{ID: id}
	}
}
