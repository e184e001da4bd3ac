package wire

// WriteOption writes a presence byte and, when v is non-nil, the value
// itself. This is the standalone optional used inside variant payloads and
// sequence elements, where no record bitmask is available.
func WriteOption[T any](w *Writer, v *T, enc func(*T, *Writer) error) error {
	if v == nil {
		w.Bool(false)
		return nil
	}
	w.Bool(true)
	return enc(v, w)
}

// ReadOption reads an optional written by WriteOption, returning nil when
// the presence byte was zero.
func ReadOption[T any](r *Reader, dec func(*T, *Reader) error) (*T, error) {
	ok, err := r.Bool()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	v := new(T)
	if err := dec(v, r); err != nil {
		return nil, err
	}
	return v, nil
}
