package wire

import (
	"errors"
	"fmt"
)

// ErrInvalidVarInt reports a variable-length integer whose fifth byte still
// carries the continuation bit, which no 32-bit value can produce.
var ErrInvalidVarInt = errors.New("varint continues past 5 bytes")

// ErrInvalidUTF8 reports a text payload that is not well-formed UTF-8.
var ErrInvalidUTF8 = errors.New("text is not valid UTF-8")

// IncompleteBytesError reports that the input ended before a block, field, or
// declared length could be satisfied. Needed is the byte count the decoder
// required and Available is what actually remained.
type IncompleteBytesError struct {
	Needed    int
	Available int
}

func (e *IncompleteBytesError) Error() string {
	return fmt.Sprintf("incomplete bytes: need %d, have %d", e.Needed, e.Available)
}

// InvalidEnumError reports a discriminant with no corresponding variant. Raw
// preserves the rejected wire value for diagnostics.
type InvalidEnumError struct {
	Raw int64
}

func (e *InvalidEnumError) Error() string {
	return fmt.Sprintf("unknown variant tag %d", e.Raw)
}

// StringTooLongError reports a bounded text or byte field whose declared
// length exceeds its limit. It is raised before any allocation happens.
type StringTooLongError struct {
	Length int
	Limit  int
}

func (e *StringTooLongError) Error() string {
	return fmt.Sprintf("length %d exceeds limit %d", e.Length, e.Limit)
}

// PaddingOverrunError reports a field whose codec consumed or produced more
// bytes than its reserved slot in the fixed block. This is always a schema
// defect, never a property of the input, so callers must not swallow it.
type PaddingOverrunError struct {
	Field    string
	Consumed int
	Padding  int
}

func (e *PaddingOverrunError) Error() string {
	return fmt.Sprintf("field %q used %d bytes of a %d byte slot", e.Field, e.Consumed, e.Padding)
}
