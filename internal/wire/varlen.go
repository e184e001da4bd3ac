package wire

import (
	"cmp"
	"fmt"
	"slices"
)

// WriteSeq writes a varint element count followed by each element in slice
// order.
func WriteSeq[T any](w *Writer, xs []T, enc func(*T, *Writer) error) error {
	w.VarInt(int32(len(xs)))
	for i := range xs {
		if err := enc(&xs[i], w); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// ReadSeq reads a sequence written by WriteSeq. The declared count is only
// a capacity hint, clamped to the remaining input, so a hostile prefix can
// never force a large allocation.
func ReadSeq[T any](r *Reader, dec func(*T, *Reader) error) ([]T, error) {
	n, hint, err := r.count()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	xs := make([]T, 0, hint)
	for i := 0; i < n; i++ {
		var x T
		if err := dec(&x, r); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		xs = append(xs, x)
	}
	return xs, nil
}

// WriteMap writes a varint entry count followed by key/value pairs in
// ascending key order, so equal maps always produce identical bytes.
func WriteMap[K cmp.Ordered, V any](w *Writer, m map[K]V, encK func(*K, *Writer) error, encV func(*V, *Writer) error) error {
	w.VarInt(int32(len(m)))
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := encK(&k, w); err != nil {
			return fmt.Errorf("key %v: %w", k, err)
		}
		v := m[k]
		if err := encV(&v, w); err != nil {
			return fmt.Errorf("value of %v: %w", k, err)
		}
	}
	return nil
}

// ReadMap reads a mapping written by WriteMap. Duplicate keys keep the last
// value seen, matching plain map insertion.
func ReadMap[K cmp.Ordered, V any](r *Reader, decK func(*K, *Reader) error, decV func(*V, *Reader) error) (map[K]V, error) {
	n, hint, err := r.count()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	m := make(map[K]V, hint)
	for i := 0; i < n; i++ {
		var k K
		if err := decK(&k, r); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		var v V
		if err := decV(&v, r); err != nil {
			return nil, fmt.Errorf("entry %d (%v): %w", i, k, err)
		}
		m[k] = v
	}
	return m, nil
}
