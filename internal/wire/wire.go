// Package wire implements the primitive layer of the Veilgate network
// protocol: little-endian scalar encoding, LEB128 variable-length integers,
// length-prefixed text and byte blocks, masked records (a constant-length
// fixed block with a null-bitmask plus an offset-addressed variable block),
// and tag-dispatched variants.
//
// Everything in this package is a pure transformation over caller-owned
// buffers: no I/O, no logging, no shared state. Encode and decode calls may
// run concurrently on any number of goroutines because each call owns its
// Writer or Reader outright.
package wire

// VarIntMaxLen is the largest number of bytes a variable-length integer may
// occupy on the wire. A continuation bit on the final byte is a decode error.
const VarIntMaxLen = 5

// Canonical inline sizes of the fixed-width primitives.
const (
	SizeU8   = 1
	SizeU16  = 2
	SizeU32  = 4
	SizeU64  = 8
	SizeF32  = 4
	SizeF64  = 8
	SizeBool = 1
	SizeUUID = 16
)
