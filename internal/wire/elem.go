package wire

import "github.com/google/uuid"

// Element codecs shared by sequences, mappings, options, and the typed field
// constructors. The pointer-first signatures line up with method expressions
// on composite types, so (*Vec3).encode and EncodeU32 plug into the same
// slots.

func EncodeU8(v *uint8, w *Writer) error { w.U8(*v); return nil }

func DecodeU8(v *uint8, r *Reader) error {
	x, err := r.U8()
	if err != nil {
		return err
	}
	*v = x
	return nil
}

func EncodeU16(v *uint16, w *Writer) error { w.U16(*v); return nil }

func DecodeU16(v *uint16, r *Reader) error {
	x, err := r.U16()
	if err != nil {
		return err
	}
	*v = x
	return nil
}

func EncodeU32(v *uint32, w *Writer) error { w.U32(*v); return nil }

func DecodeU32(v *uint32, r *Reader) error {
	x, err := r.U32()
	if err != nil {
		return err
	}
	*v = x
	return nil
}

func EncodeU64(v *uint64, w *Writer) error { w.U64(*v); return nil }

func DecodeU64(v *uint64, r *Reader) error {
	x, err := r.U64()
	if err != nil {
		return err
	}
	*v = x
	return nil
}

func EncodeI32(v *int32, w *Writer) error { w.I32(*v); return nil }

func DecodeI32(v *int32, r *Reader) error {
	x, err := r.I32()
	if err != nil {
		return err
	}
	*v = x
	return nil
}

func EncodeI64(v *int64, w *Writer) error { w.I64(*v); return nil }

func DecodeI64(v *int64, r *Reader) error {
	x, err := r.I64()
	if err != nil {
		return err
	}
	*v = x
	return nil
}

func EncodeF32(v *float32, w *Writer) error { w.F32(*v); return nil }

func DecodeF32(v *float32, r *Reader) error {
	x, err := r.F32()
	if err != nil {
		return err
	}
	*v = x
	return nil
}

func EncodeF64(v *float64, w *Writer) error { w.F64(*v); return nil }

func DecodeF64(v *float64, r *Reader) error {
	x, err := r.F64()
	if err != nil {
		return err
	}
	*v = x
	return nil
}

func EncodeBool(v *bool, w *Writer) error { w.Bool(*v); return nil }

func DecodeBool(v *bool, r *Reader) error {
	x, err := r.Bool()
	if err != nil {
		return err
	}
	*v = x
	return nil
}

func EncodeID(v *uuid.UUID, w *Writer) error { w.UUID(*v); return nil }

func DecodeID(v *uuid.UUID, r *Reader) error {
	x, err := r.UUID()
	if err != nil {
		return err
	}
	*v = x
	return nil
}

func EncodeString(v *string, w *Writer) error { w.String(*v); return nil }

func DecodeString(v *string, r *Reader) error {
	x, err := r.String()
	if err != nil {
		return err
	}
	*v = x
	return nil
}
