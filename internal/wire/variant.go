package wire

// WriteVariant writes a varint case tag followed by the payload encoding.
// Nested sums inside message payloads all share this shape.
func WriteVariant(w *Writer, tag int32, enc func(*Writer) error) error {
	w.VarInt(tag)
	return enc(w)
}

// ReadVariant reads a varint case tag and decodes the payload through the
// decoder pick returns for it. A nil decoder rejects the tag: unlike the
// top-level message catalog, nested sums have no raw passthrough, because an
// unknown case leaves the rest of the payload unparseable.
func ReadVariant(r *Reader, pick func(tag int32) func(*Reader) error) error {
	tag, err := r.VarInt()
	if err != nil {
		return err
	}
	dec := pick(tag)
	if dec == nil {
		return &InvalidEnumError{Raw: int64(tag)}
	}
	return dec(r)
}

// Enum8 reads a one-byte enum, rejecting wire values above last.
func Enum8[E ~uint8](r *Reader, last E) (E, error) {
	v, err := r.U8()
	if err != nil {
		return 0, err
	}
	if E(v) > last {
		return 0, &InvalidEnumError{Raw: int64(v)}
	}
	return E(v), nil
}

// Enum16 reads a two-byte little-endian enum, rejecting values above last.
func Enum16[E ~uint16](r *Reader, last E) (E, error) {
	v, err := r.U16()
	if err != nil {
		return 0, err
	}
	if E(v) > last {
		return 0, &InvalidEnumError{Raw: int64(v)}
	}
	return E(v), nil
}
