package wire

import (
	"encoding/binary"
	"math"

	"github.com/google/uuid"
)

// Writer accumulates the encoding of one message into a growing buffer.
// Scalar methods chain so composite encoders read in wire order. A Writer
// is single-use per message and never shared between goroutines.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with a small preallocated buffer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// NewWriterSize returns a Writer sized for a payload of roughly n bytes.
func NewWriterSize(n int) *Writer {
	return &Writer{buf: make([]byte, 0, n)}
}

// Bytes returns the encoded buffer. The slice aliases the Writer's storage
// and stays valid until the next write.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Reset discards the buffer contents but keeps the allocation.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

// U8 writes one unsigned byte.
func (w *Writer) U8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

// U16 writes a little-endian 16-bit unsigned integer.
func (w *Writer) U16(v uint16) *Writer {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
	return w
}

// U32 writes a little-endian 32-bit unsigned integer.
func (w *Writer) U32(v uint32) *Writer {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	return w
}

// U64 writes a little-endian 64-bit unsigned integer.
func (w *Writer) U64(v uint64) *Writer {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
	return w
}

// I8 writes one signed byte in two's complement.
func (w *Writer) I8(v int8) *Writer { return w.U8(uint8(v)) }

// I16 writes a little-endian 16-bit signed integer.
func (w *Writer) I16(v int16) *Writer { return w.U16(uint16(v)) }

// I32 writes a little-endian 32-bit signed integer.
func (w *Writer) I32(v int32) *Writer { return w.U32(uint32(v)) }

// I64 writes a little-endian 64-bit signed integer.
func (w *Writer) I64(v int64) *Writer { return w.U64(uint64(v)) }

// F32 writes an IEEE-754 single in little-endian bit order.
func (w *Writer) F32(v float32) *Writer { return w.U32(math.Float32bits(v)) }

// F64 writes an IEEE-754 double in little-endian bit order.
func (w *Writer) F64(v float64) *Writer { return w.U64(math.Float64bits(v)) }

// Bool writes a single byte, 1 for true and 0 for false.
func (w *Writer) Bool(v bool) *Writer {
	if v {
		return w.U8(1)
	}
	return w.U8(0)
}

// Raw appends p verbatim.
func (w *Writer) Raw(p []byte) *Writer {
	w.buf = append(w.buf, p...)
	return w
}

// Zero appends n zero bytes.
func (w *Writer) Zero(n int) *Writer {
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, 0)
	}
	return w
}

// VarInt writes v as an LEB128 varint. The signed value is reinterpreted as
// unsigned first, so small negatives cost the full five bytes.
func (w *Writer) VarInt(v int32) *Writer {
	u := uint32(v)
	for u >= 0x80 {
		w.buf = append(w.buf, byte(u)|0x80)
		u >>= 7
	}
	w.buf = append(w.buf, byte(u))
	return w
}

// ASCII writes s into a fixed block of n bytes, zero padded on the right.
// Strings longer than the block are truncated to fit.
func (w *Writer) ASCII(s string, n int) *Writer {
	if len(s) > n {
		s = s[:n]
	}
	w.buf = append(w.buf, s...)
	return w.Zero(n - len(s))
}

// UUID writes the 16 identifier bytes in their canonical order.
func (w *Writer) UUID(id uuid.UUID) *Writer {
	w.buf = append(w.buf, id[:]...)
	return w
}

// String writes a varint byte length followed by the UTF-8 bytes of s.
func (w *Writer) String(s string) *Writer {
	w.VarInt(int32(len(s)))
	w.buf = append(w.buf, s...)
	return w
}

// Blob writes a varint byte length followed by p verbatim.
func (w *Writer) Blob(p []byte) *Writer {
	w.VarInt(int32(len(p)))
	w.buf = append(w.buf, p...)
	return w
}

// BoundedString writes s like String after checking it against limit.
func (w *Writer) BoundedString(s string, limit int) error {
	if len(s) > limit {
		return &StringTooLongError{Length: len(s), Limit: limit}
	}
	w.String(s)
	return nil
}

// BoundedBlob writes p like Blob after checking it against limit.
func (w *Writer) BoundedBlob(p []byte, limit int) error {
	if len(p) > limit {
		return &StringTooLongError{Length: len(p), Limit: limit}
	}
	w.Blob(p)
	return nil
}

// ReserveU32 appends a zeroed 32-bit slot and returns its position for a
// later PatchU32. Offset tables are written this way.
func (w *Writer) ReserveU32() int {
	pos := len(w.buf)
	w.Zero(SizeU32)
	return pos
}

// PatchU32 overwrites a previously reserved slot with v.
func (w *Writer) PatchU32(pos int, v uint32) {
	binary.LittleEndian.PutUint32(w.buf[pos:], v)
}
