package wire

import (
	"bytes"
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Reader is a cursor over one immutable payload. A successful read consumes
// exactly the bytes it reports; once any read fails the whole decode is
// abandoned and the cursor is only useful for diagnostics. The Reader never
// writes to or retains the input slice.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader positioned at the start of p.
func NewReader(p []byte) *Reader {
	return &Reader{buf: p}
}

// Pos returns the number of bytes consumed so far.
func (r *Reader) Pos() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// Rest consumes and returns every unread byte. The result aliases the input.
func (r *Reader) Rest() []byte {
	p := r.buf[r.pos:]
	r.pos = len(r.buf)
	return p
}

func (r *Reader) take(n int) ([]byte, error) {
	if rem := len(r.buf) - r.pos; rem < n {
		return nil, &IncompleteBytesError{Needed: n, Available: rem}
	}
	p := r.buf[r.pos : r.pos+n]
	r.pos += n
	return p, nil
}

// Skip advances the cursor past n bytes without interpreting them.
func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}

// U8 reads one unsigned byte.
func (r *Reader) U8() (uint8, error) {
	p, err := r.take(SizeU8)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// U16 reads a little-endian 16-bit unsigned integer.
func (r *Reader) U16() (uint16, error) {
	p, err := r.take(SizeU16)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(p), nil
}

// U32 reads a little-endian 32-bit unsigned integer.
func (r *Reader) U32() (uint32, error) {
	p, err := r.take(SizeU32)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}

// U64 reads a little-endian 64-bit unsigned integer.
func (r *Reader) U64() (uint64, error) {
	p, err := r.take(SizeU64)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(p), nil
}

// I8 reads one signed byte.
func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

// I16 reads a little-endian 16-bit signed integer.
func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

// I32 reads a little-endian 32-bit signed integer.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// I64 reads a little-endian 64-bit signed integer.
func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

// F32 reads an IEEE-754 single.
func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	return math.Float32frombits(v), err
}

// F64 reads an IEEE-754 double.
func (r *Reader) F64() (float64, error) {
	v, err := r.U64()
	return math.Float64frombits(v), err
}

// Bool reads one byte and reports whether it was non-zero.
func (r *Reader) Bool() (bool, error) {
	v, err := r.U8()
	return v != 0, err
}

// VarInt reads an LEB128 varint of at most five bytes and reinterprets the
// accumulated unsigned value as a signed 32-bit integer.
func (r *Reader) VarInt() (int32, error) {
	var u uint32
	for i := 0; i < VarIntMaxLen; i++ {
		b, err := r.U8()
		if err != nil {
			return 0, err
		}
		u |= uint32(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return int32(u), nil
		}
	}
	return 0, ErrInvalidVarInt
}

// ASCII reads a fixed block of n bytes and returns the text before the first
// zero byte. The whole block is always consumed.
func (r *Reader) ASCII(n int) (string, error) {
	p, err := r.take(n)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(p, 0); i >= 0 {
		p = p[:i]
	}
	return string(p), nil
}

// UUID reads a 128-bit identifier.
func (r *Reader) UUID() (uuid.UUID, error) {
	p, err := r.take(SizeUUID)
	if err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	copy(id[:], p)
	return id, nil
}

// length reads a varint byte-length prefix. A prefix whose unsigned value
// cannot fit the remaining input is reported as incomplete before any
// allocation.
func (r *Reader) length() (int, error) {
	v, err := r.VarInt()
	if err != nil {
		return 0, err
	}
	n := int(int64(uint32(v)))
	if n > r.Remaining() {
		return 0, &IncompleteBytesError{Needed: n, Available: r.Remaining()}
	}
	return n, nil
}

// count reads a varint element count and returns it with a capacity hint
// clamped to the remaining input. The count itself is not trusted for
// allocation because element sizes are not known up front.
func (r *Reader) count() (n, hint int, err error) {
	v, err := r.VarInt()
	if err != nil {
		return 0, 0, err
	}
	n = int(int64(uint32(v)))
	return n, min(n, r.Remaining()), nil
}

// String reads a varint-prefixed UTF-8 string.
func (r *Reader) String() (string, error) {
	n, err := r.length()
	if err != nil {
		return "", err
	}
	p, err := r.take(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(p) {
		return "", ErrInvalidUTF8
	}
	return string(p), nil
}

// BoundedString reads a varint-prefixed UTF-8 string, rejecting any declared
// length above limit before the bytes are touched.
func (r *Reader) BoundedString(limit int) (string, error) {
	n, err := r.length()
	if err != nil {
		return "", err
	}
	if n > limit {
		return "", &StringTooLongError{Length: n, Limit: limit}
	}
	p, err := r.take(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(p) {
		return "", ErrInvalidUTF8
	}
	return string(p), nil
}

// Blob reads a varint-prefixed byte block. The result is a copy and does not
// alias the input.
func (r *Reader) Blob() ([]byte, error) {
	n, err := r.length()
	if err != nil {
		return nil, err
	}
	return r.copyN(n)
}

// BoundedBlob reads a varint-prefixed byte block of at most limit bytes.
func (r *Reader) BoundedBlob(limit int) ([]byte, error) {
	n, err := r.length()
	if err != nil {
		return nil, err
	}
	if n > limit {
		return nil, &StringTooLongError{Length: n, Limit: limit}
	}
	return r.copyN(n)
}

func (r *Reader) copyN(n int) ([]byte, error) {
	p, err := r.take(n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), p...), nil
}
