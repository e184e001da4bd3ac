package wire

import (
	"cmp"

	"github.com/google/uuid"
)

// Typed field constructors. Message layouts are built from these so the
// declaration reads like the wire format itself; anything they cannot
// express uses a Field literal directly.

func bindEnc[T any](v *T, enc func(*T, *Writer) error) func(*Writer) error {
	return func(w *Writer) error { return enc(v, w) }
}

func bindDec[T any](v *T, dec func(*T, *Reader) error) func(*Reader) error {
	return func(r *Reader) error { return dec(v, r) }
}

// Req declares a required fixed-block field with canonical size and raw
// encode/decode closures. Composite types pass their bound methods here.
func Req(name string, size int, enc func(*Writer) error, dec func(*Reader) error) Field {
	return Field{Name: name, Block: Fixed, Bit: Required, Size: size, Encode: enc, Decode: dec}
}

// Opt declares an optional fixed-block field stored behind a pointer. The
// field is present exactly when the pointer is non-nil; decoding a set
// presence bit allocates the value.
func Opt[T any](name string, bit, size int, v **T, enc func(*T, *Writer) error, dec func(*T, *Reader) error) Field {
	return OptPad(name, bit, size, 0, v, enc, dec)
}

// OptPad is Opt with an explicit reserved slot width wider than the
// canonical size.
func OptPad[T any](name string, bit, size, pad int, v **T, enc func(*T, *Writer) error, dec func(*T, *Reader) error) Field {
	return Field{
		Name:    name,
		Block:   Fixed,
		Bit:     bit,
		Size:    size,
		Pad:     pad,
		Present: func() bool { return *v != nil },
		Encode:  func(w *Writer) error { return enc(*v, w) },
		Decode: func(r *Reader) error {
			x := new(T)
			if err := dec(x, r); err != nil {
				return err
			}
			*v = x
			return nil
		},
	}
}

// ReqVar declares a required variable-block field.
func ReqVar(name string, enc func(*Writer) error, dec func(*Reader) error) Field {
	return Field{Name: name, Block: Variable, Bit: Required, Encode: enc, Decode: dec}
}

// OptVar declares an optional variable-block field with an explicit
// presence closure.
func OptVar(name string, bit int, present func() bool, enc func(*Writer) error, dec func(*Reader) error) Field {
	return Field{Name: name, Block: Variable, Bit: bit, Present: present, Encode: enc, Decode: dec}
}

func U8(name string, v *uint8) Field   { return Req(name, SizeU8, bindEnc(v, EncodeU8), bindDec(v, DecodeU8)) }
func U16(name string, v *uint16) Field { return Req(name, SizeU16, bindEnc(v, EncodeU16), bindDec(v, DecodeU16)) }
func U32(name string, v *uint32) Field { return Req(name, SizeU32, bindEnc(v, EncodeU32), bindDec(v, DecodeU32)) }
func U64(name string, v *uint64) Field { return Req(name, SizeU64, bindEnc(v, EncodeU64), bindDec(v, DecodeU64)) }
func I32(name string, v *int32) Field  { return Req(name, SizeU32, bindEnc(v, EncodeI32), bindDec(v, DecodeI32)) }
func I64(name string, v *int64) Field  { return Req(name, SizeU64, bindEnc(v, EncodeI64), bindDec(v, DecodeI64)) }
func F32(name string, v *float32) Field {
	return Req(name, SizeF32, bindEnc(v, EncodeF32), bindDec(v, DecodeF32))
}
func F64(name string, v *float64) Field {
	return Req(name, SizeF64, bindEnc(v, EncodeF64), bindDec(v, DecodeF64))
}
func Bool(name string, v *bool) Field {
	return Req(name, SizeBool, bindEnc(v, EncodeBool), bindDec(v, DecodeBool))
}
func ID(name string, v *uuid.UUID) Field {
	return Req(name, SizeUUID, bindEnc(v, EncodeID), bindDec(v, DecodeID))
}

func OptU8(name string, bit int, v **uint8) Field   { return Opt(name, bit, SizeU8, v, EncodeU8, DecodeU8) }
func OptU16(name string, bit int, v **uint16) Field { return Opt(name, bit, SizeU16, v, EncodeU16, DecodeU16) }
func OptU32(name string, bit int, v **uint32) Field { return Opt(name, bit, SizeU32, v, EncodeU32, DecodeU32) }
func OptU64(name string, bit int, v **uint64) Field { return Opt(name, bit, SizeU64, v, EncodeU64, DecodeU64) }
func OptF32(name string, bit int, v **float32) Field {
	return Opt(name, bit, SizeF32, v, EncodeF32, DecodeF32)
}
func OptF64(name string, bit int, v **float64) Field {
	return Opt(name, bit, SizeF64, v, EncodeF64, DecodeF64)
}
func OptBool(name string, bit int, v **bool) Field {
	return Opt(name, bit, SizeBool, v, EncodeBool, DecodeBool)
}
func OptID(name string, bit int, v **uuid.UUID) Field {
	return Opt(name, bit, SizeUUID, v, EncodeID, DecodeID)
}

// ASCIIBlock declares a fixed-width ASCII field of n bytes, zero padded on
// the wire and cut at the first zero byte on decode.
func ASCIIBlock(name string, v *string, n int) Field {
	return Req(name, n,
		func(w *Writer) error { w.ASCII(*v, n); return nil },
		func(r *Reader) error {
			s, err := r.ASCII(n)
			if err != nil {
				return err
			}
			*v = s
			return nil
		})
}

// EnumU8 declares a one-byte enum field whose wire values run 0 through
// last.
func EnumU8[E ~uint8](name string, v *E, last E) Field {
	return Req(name, SizeU8,
		func(w *Writer) error { w.U8(uint8(*v)); return nil },
		func(r *Reader) error {
			x, err := Enum8(r, last)
			if err != nil {
				return err
			}
			*v = x
			return nil
		})
}

// EnumU16 declares a two-byte enum field whose wire values run 0 through
// last.
func EnumU16[E ~uint16](name string, v *E, last E) Field {
	return Req(name, SizeU16,
		func(w *Writer) error { w.U16(uint16(*v)); return nil },
		func(r *Reader) error {
			x, err := Enum16(r, last)
			if err != nil {
				return err
			}
			*v = x
			return nil
		})
}

// Str declares a required variable-block string field.
func Str(name string, v *string) Field {
	return ReqVar(name, bindEnc(v, EncodeString), bindDec(v, DecodeString))
}

// StrMax declares a required string field with a byte-length bound enforced
// in both directions.
func StrMax(name string, v *string, limit int) Field {
	return ReqVar(name,
		func(w *Writer) error { return w.BoundedString(*v, limit) },
		func(r *Reader) error {
			s, err := r.BoundedString(limit)
			if err != nil {
				return err
			}
			*v = s
			return nil
		})
}

// OptStr declares an optional variable-block string field.
func OptStr(name string, bit int, v **string) Field {
	return OptVar(name, bit,
		func() bool { return *v != nil },
		func(w *Writer) error { w.String(**v); return nil },
		func(r *Reader) error {
			s, err := r.String()
			if err != nil {
				return err
			}
			*v = &s
			return nil
		})
}

// OptStrMax declares an optional bounded string field.
func OptStrMax(name string, bit int, v **string, limit int) Field {
	return OptVar(name, bit,
		func() bool { return *v != nil },
		func(w *Writer) error { return w.BoundedString(**v, limit) },
		func(r *Reader) error {
			s, err := r.BoundedString(limit)
			if err != nil {
				return err
			}
			*v = &s
			return nil
		})
}

// Bytes declares a required variable-block byte field.
func Bytes(name string, v *[]byte) Field {
	return ReqVar(name,
		func(w *Writer) error { w.Blob(*v); return nil },
		func(r *Reader) error {
			p, err := r.Blob()
			if err != nil {
				return err
			}
			*v = p
			return nil
		})
}

// BytesMax declares a required byte field with a length bound.
func BytesMax(name string, v *[]byte, limit int) Field {
	return ReqVar(name,
		func(w *Writer) error { return w.BoundedBlob(*v, limit) },
		func(r *Reader) error {
			p, err := r.BoundedBlob(limit)
			if err != nil {
				return err
			}
			*v = p
			return nil
		})
}

// SeqOf declares a required variable-block sequence field.
func SeqOf[T any](name string, v *[]T, enc func(*T, *Writer) error, dec func(*T, *Reader) error) Field {
	return ReqVar(name,
		func(w *Writer) error { return WriteSeq(w, *v, enc) },
		func(r *Reader) error {
			xs, err := ReadSeq(r, dec)
			if err != nil {
				return err
			}
			*v = xs
			return nil
		})
}

// MapOf declares a required variable-block mapping field.
func MapOf[K cmp.Ordered, V any](name string, v *map[K]V, encK func(*K, *Writer) error, decK func(*K, *Reader) error, encV func(*V, *Writer) error, decV func(*V, *Reader) error) Field {
	return ReqVar(name,
		func(w *Writer) error { return WriteMap(w, *v, encK, encV) },
		func(r *Reader) error {
			m, err := ReadMap(r, decK, decV)
			if err != nil {
				return err
			}
			*v = m
			return nil
		})
}
