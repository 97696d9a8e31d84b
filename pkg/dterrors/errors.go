// Package dterrors defines the error kinds the detools core can raise, as
// laid out in spec.md §7. Each kind is its own type so callers can
// errors.As() the one they care about instead of string-matching.
package dterrors

import "fmt"

// MalformedSize is returned when a size-encoded integer runs past the end
// of its stream before a terminal byte is seen.
var MalformedSize = fmt.Errorf("detools: malformed size")

// Internal marks an invariant violated inside SA-IS or the bsdiff walker on
// otherwise well-formed input. It should never surface in practice.
var Internal = fmt.Errorf("detools: internal invariant violated")

// BadCompression names an unknown compression selector.
type BadCompression struct {
	Name string
}

func (e *BadCompression) Error() string {
	return fmt.Sprintf("detools: bad compression %q", e.Name)
}

// BadPatchType names an unknown patch type selector.
type BadPatchType struct {
	Name string
}

func (e *BadPatchType) Error() string {
	return fmt.Sprintf("detools: bad patch type %q", e.Name)
}

// BadAlignment reports an in-place sizing field that is not a multiple of
// the required modulus.
type BadAlignment struct {
	Field   string
	Value   int64
	Modulus int64
}

func (e *BadAlignment) Error() string {
	return fmt.Sprintf("detools: %s %d is not a multiple of %d", e.Field, e.Value, e.Modulus)
}

// UnknownDataFormat names a reserved or unrecognized data-format identifier.
type UnknownDataFormat struct {
	ID int64
}

func (e *UnknownDataFormat) Error() string {
	return fmt.Sprintf("detools: unknown data format id %d", e.ID)
}

// ShortRead reports a truncated image read during preprocessing.
type ShortRead struct {
	Expected int
	Got      int
}

func (e *ShortRead) Error() string {
	return fmt.Sprintf("detools: short read: expected %d bytes, got %d", e.Expected, e.Got)
}
