package wire

import "fmt"

// Block selects which half of a masked record a field lives in.
type Block uint8

const (
	// Fixed fields occupy a constant-size slot whether present or not.
	Fixed Block = iota
	// Variable fields contribute bytes only while present and are reached
	// through the offset table when the record has more than one of them.
	Variable
)

// Required marks a field that is always present and owns no bitmask bit.
const Required = -1

// Field binds one record field to its wire behavior. The closures capture a
// pointer into the concrete message, so a Field value is built fresh for
// every encode or decode call.
type Field struct {
	Name  string
	Block Block

	// Bit is the field's index into the null bitmask, or Required.
	Bit int

	// Size is the canonical inline size of a fixed-block field.
	Size int

	// Pad overrides the reserved slot width of an optional fixed-block
	// field. Zero means the slot is exactly Size bytes.
	Pad int

	Present func() bool
	Encode  func(w *Writer) error
	Decode  func(r *Reader) error
}

// slot returns the reserved width of a fixed-block field.
func (f *Field) slot() int {
	if f.Pad > 0 {
		return f.Pad
	}
	return f.Size
}

func (f *Field) present() bool {
	return f.Bit == Required || f.Present()
}

// Layout is the complete wire shape of one record type: the declared bitmask
// width and the fields in declaration order.
type Layout struct {
	MaskLen int
	Fields  []Field
}

// Validate checks the layout invariants that message definitions must hold:
// a bitmask wide enough for the highest presence bit, no duplicate bits, a
// canonical size on every fixed field, and padding never narrower than the
// field it reserves room for. Message registration runs this once per type
// during startup.
func (l *Layout) Validate() error {
	maxBit := Required
	bits := map[int]string{}
	for i := range l.Fields {
		f := &l.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("field %d has no name", i)
		}
		if f.Bit != Required {
			if f.Bit < 0 {
				return fmt.Errorf("field %q: negative presence bit %d", f.Name, f.Bit)
			}
			if prev, dup := bits[f.Bit]; dup {
				return fmt.Errorf("field %q: presence bit %d already used by %q", f.Name, f.Bit, prev)
			}
			bits[f.Bit] = f.Name
			if f.Present == nil {
				return fmt.Errorf("field %q: optional field without a presence closure", f.Name)
			}
			if f.Bit > maxBit {
				maxBit = f.Bit
			}
		}
		switch f.Block {
		case Fixed:
			if f.Size <= 0 {
				return fmt.Errorf("field %q: fixed-block field needs a canonical size", f.Name)
			}
			if f.Pad > 0 && f.Pad < f.Size {
				return fmt.Errorf("field %q: padding %d narrower than size %d", f.Name, f.Pad, f.Size)
			}
		case Variable:
			if f.Size != 0 || f.Pad != 0 {
				return fmt.Errorf("field %q: variable-block field has no inline size", f.Name)
			}
		default:
			return fmt.Errorf("field %q: unknown block %d", f.Name, f.Block)
		}
	}
	if min := maskLenFor(maxBit); l.MaskLen < min {
		return fmt.Errorf("bitmask of %d bytes cannot hold presence bit %d", l.MaskLen, maxBit)
	}
	return nil
}

// maskLenFor returns the minimum bitmask width that holds bit maxBit.
func maskLenFor(maxBit int) int {
	if maxBit == Required {
		return 0
	}
	return maxBit/8 + 1
}

// FixedLen returns the constant byte length of the bitmask plus the fixed
// block. Every encoding of the record starts with exactly this many bytes.
func (l *Layout) FixedLen() int {
	n := l.MaskLen
	for i := range l.Fields {
		if l.Fields[i].Block == Fixed {
			n += l.Fields[i].slot()
		}
	}
	return n
}

func (l *Layout) variableFields() []*Field {
	var vs []*Field
	for i := range l.Fields {
		if l.Fields[i].Block == Variable {
			vs = append(vs, &l.Fields[i])
		}
	}
	return vs
}

// EncodeRecord writes one record: bitmask, constant-length fixed block, then
// the offset table and variable block when the layout calls for them. Fixed
// slots of absent fields are zero filled, and present fields shorter than
// their slot are zero padded up to it, so the fixed block length never
// depends on which fields are present.
func EncodeRecord(w *Writer, l *Layout) error {
	if l.MaskLen > 0 {
		mask := make([]byte, l.MaskLen)
		for i := range l.Fields {
			f := &l.Fields[i]
			if f.Bit != Required && f.Present() {
				mask[f.Bit/8] |= 1 << (f.Bit % 8)
			}
		}
		w.Raw(mask)
	}

	for i := range l.Fields {
		f := &l.Fields[i]
		if f.Block != Fixed {
			continue
		}
		if !f.present() {
			w.Zero(f.slot())
			continue
		}
		start := w.Len()
		if err := f.Encode(w); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
		used := w.Len() - start
		if used > f.slot() {
			return &PaddingOverrunError{Field: f.Name, Consumed: used, Padding: f.slot()}
		}
		w.Zero(f.slot() - used)
	}

	vs := l.variableFields()
	if len(vs) > 1 {
		table := w.Len()
		for range vs {
			w.ReserveU32()
		}
		origin := w.Len()
		for i, f := range vs {
			if !f.present() {
				continue
			}
			w.PatchU32(table+i*SizeU32, uint32(w.Len()-origin))
			if err := f.Encode(w); err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
		}
	} else if len(vs) == 1 {
		f := vs[0]
		if f.present() {
			if err := f.Encode(w); err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
		}
	}
	return nil
}

// DecodeRecord reads one record laid out by EncodeRecord. The bitmask and
// full fixed block must be available up front. Absent fixed fields are
// skipped over their reserved slots without interpreting the padding, and a
// present field that reads past its slot is a PaddingOverrunError. Offsets
// in the variable block are verified to never point backwards.
func DecodeRecord(r *Reader, l *Layout) error {
	if need := l.FixedLen(); r.Remaining() < need {
		return &IncompleteBytesError{Needed: need, Available: r.Remaining()}
	}

	var mask []byte
	if l.MaskLen > 0 {
		mask, _ = r.take(l.MaskLen)
	}
	present := func(f *Field) bool {
		return f.Bit == Required || mask[f.Bit/8]&(1<<(f.Bit%8)) != 0
	}

	for i := range l.Fields {
		f := &l.Fields[i]
		if f.Block != Fixed {
			continue
		}
		if !present(f) {
			if err := r.Skip(f.slot()); err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			continue
		}
		start := r.Pos()
		if err := f.Decode(r); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
		used := r.Pos() - start
		if used > f.slot() {
			return &PaddingOverrunError{Field: f.Name, Consumed: used, Padding: f.slot()}
		}
		if err := r.Skip(f.slot() - used); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}

	vs := l.variableFields()
	if len(vs) > 1 {
		offsets := make([]uint32, len(vs))
		for i := range offsets {
			v, err := r.U32()
			if err != nil {
				return fmt.Errorf("offset table: %w", err)
			}
			offsets[i] = v
		}
		origin := r.Pos()
		for i, f := range vs {
			if !present(f) {
				continue
			}
			consumed := r.Pos() - origin
			off := int(offsets[i])
			if off < consumed {
				return fmt.Errorf("%s: offset %d points behind position %d: %w",
					f.Name, off, consumed, &IncompleteBytesError{Needed: off, Available: consumed})
			}
			if err := r.Skip(off - consumed); err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			if err := f.Decode(r); err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
		}
	} else if len(vs) == 1 {
		f := vs[0]
		if present(f) {
			if err := f.Decode(r); err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
		}
	}
	return nil
}
