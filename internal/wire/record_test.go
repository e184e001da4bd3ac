package wire_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veilgate-project/veilgate/internal/wire"
)

// pairRecord is the smallest interesting masked record: one required and one
// optional 4-byte integer.
type pairRecord struct {
	Count uint32
	Bonus *uint32
}

func (p *pairRecord) layout() wire.Layout {
	return wire.Layout{MaskLen: 1, Fields: []wire.Field{
		wire.U32("count", &p.Count),
		wire.OptU32("bonus", 0, &p.Bonus),
	}}
}

func encodeRecord(t *testing.T, l wire.Layout) []byte {
	t.Helper()
	require.NoError(t, l.Validate())
	w := wire.NewWriter()
	require.NoError(t, wire.EncodeRecord(w, &l))
	return w.Bytes()
}

func decodeRecord(t *testing.T, l wire.Layout, p []byte) {
	t.Helper()
	r := wire.NewReader(p)
	require.NoError(t, wire.DecodeRecord(r, &l))
	require.Equal(t, 0, r.Remaining())
}

func TestRecordAbsentOptionalFixed(t *testing.T) {
	rec := pairRecord{Count: 7}
	got := encodeRecord(t, rec.layout())
	require.Equal(t, []byte{
		0x00,                   // bitmask, bonus absent
		0x07, 0x00, 0x00, 0x00, // count
		0x00, 0x00, 0x00, 0x00, // zero padding for bonus
	}, got)

	var back pairRecord
	decodeRecord(t, back.layout(), got)
	require.Equal(t, rec, back)
}

func TestRecordPresentOptionalFixed(t *testing.T) {
	nine := uint32(9)
	rec := pairRecord{Count: 7, Bonus: &nine}
	got := encodeRecord(t, rec.layout())
	require.Equal(t, []byte{
		0x01,
		0x07, 0x00, 0x00, 0x00,
		0x09, 0x00, 0x00, 0x00,
	}, got)

	var back pairRecord
	decodeRecord(t, back.layout(), got)
	require.Equal(t, rec, back)
}

// textsRecord has two required variable fields, so its encoding carries an
// offset table and nothing else.
type textsRecord struct {
	A string
	B string
}

func (x *textsRecord) layout() wire.Layout {
	return wire.Layout{Fields: []wire.Field{
		wire.Str("a", &x.A),
		wire.Str("b", &x.B),
	}}
}

func TestRecordOffsetTable(t *testing.T) {
	rec := textsRecord{A: "a", B: "bb"}
	got := encodeRecord(t, rec.layout())
	require.Equal(t, []byte{
		0x00, 0x00, 0x00, 0x00, // offset of a
		0x02, 0x00, 0x00, 0x00, // offset of b, past len+1 byte of a
		0x01, 'a',
		0x02, 'b', 'b',
	}, got)

	var back textsRecord
	decodeRecord(t, back.layout(), got)
	require.Equal(t, rec, back)
}

// optTextsRecord is the optional flavor of textsRecord; the shared bitmask
// precedes the offset table.
type optTextsRecord struct {
	A *string
	B *string
}

func (x *optTextsRecord) layout() wire.Layout {
	return wire.Layout{MaskLen: 1, Fields: []wire.Field{
		wire.OptStr("a", 0, &x.A),
		wire.OptStr("b", 1, &x.B),
	}}
}

func strptr(s string) *string { return &s }

func TestRecordOptionalVariableFields(t *testing.T) {
	cases := []struct {
		name  string
		rec   optTextsRecord
		bytes []byte
	}{
		{
			name: "both present",
			rec:  optTextsRecord{A: strptr("a"), B: strptr("bb")},
			bytes: []byte{
				0x03,
				0x00, 0x00, 0x00, 0x00,
				0x02, 0x00, 0x00, 0x00,
				0x01, 'a',
				0x02, 'b', 'b',
			},
		},
		{
			name: "first absent",
			rec:  optTextsRecord{B: strptr("bb")},
			bytes: []byte{
				0x02,
				0x00, 0x00, 0x00, 0x00, // slot of absent a, never read
				0x00, 0x00, 0x00, 0x00, // b starts at the origin
				0x02, 'b', 'b',
			},
		},
		{
			name:  "both absent",
			rec:   optTextsRecord{},
			bytes: []byte{0x00, 0, 0, 0, 0, 0, 0, 0, 0},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := encodeRecord(t, tc.rec.layout())
			require.Equal(t, tc.bytes, got)

			var back optTextsRecord
			decodeRecord(t, back.layout(), got)
			require.Equal(t, tc.rec, back)
		})
	}
}

func TestRecordFixedBlockConstantLength(t *testing.T) {
	var absent pairRecord
	nine := uint32(9)
	present := pairRecord{Bonus: &nine}

	la, lp := absent.layout(), present.layout()
	require.Equal(t, la.FixedLen(), lp.FixedLen())
	require.Len(t, encodeRecord(t, la), la.FixedLen())
	require.Len(t, encodeRecord(t, lp), la.FixedLen())
}

// paddedRecord reserves an 8-byte slot for a 4-byte value.
type paddedRecord struct {
	Health *float32
}

func (p *paddedRecord) layout() wire.Layout {
	return wire.Layout{MaskLen: 1, Fields: []wire.Field{
		wire.OptPad("health", 0, wire.SizeF32, 8, &p.Health, wire.EncodeF32, wire.DecodeF32),
	}}
}

func TestRecordPaddingOverride(t *testing.T) {
	t.Run("present fills the slot", func(t *testing.T) {
		h := float32(0.5)
		rec := paddedRecord{Health: &h}
		got := encodeRecord(t, rec.layout())
		require.Equal(t, []byte{
			0x01,
			0x00, 0x00, 0x00, 0x3f, // 0.5 as LE float
			0x00, 0x00, 0x00, 0x00, // fill to the 8-byte slot
		}, got)

		var back paddedRecord
		decodeRecord(t, back.layout(), got)
		require.Equal(t, rec, back)
	})

	t.Run("absent skips the slot", func(t *testing.T) {
		got := encodeRecord(t, (&paddedRecord{}).layout())
		require.Equal(t, make([]byte, 9), got)

		var back paddedRecord
		decodeRecord(t, back.layout(), got)
		require.Nil(t, back.Health)
	})
}

func TestRecordDecodedMoreThanPadding(t *testing.T) {
	// The field claims a 2-byte slot but its decoder eats 4 bytes.
	l := wire.Layout{MaskLen: 1, Fields: []wire.Field{{
		Name:    "squeezed",
		Block:   wire.Fixed,
		Bit:     0,
		Size:    2,
		Present: func() bool { return true },
		Encode:  func(w *wire.Writer) error { w.U16(1); return nil },
		Decode: func(r *wire.Reader) error {
			_, err := r.U32()
			return err
		},
	}}}
	require.NoError(t, l.Validate())

	r := wire.NewReader([]byte{0x01, 1, 2, 3, 4})
	err := wire.DecodeRecord(r, &l)
	var overrun *wire.PaddingOverrunError
	require.ErrorAs(t, err, &overrun)
	require.Equal(t, "squeezed", overrun.Field)
	require.Equal(t, 4, overrun.Consumed)
	require.Equal(t, 2, overrun.Padding)
}

func TestRecordOffsetBehindCursor(t *testing.T) {
	// Hand-built frame: "aa" consumes 3 bytes but the second offset claims 1.
	raw := []byte{
		0x00, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00,
		0x02, 'a', 'a',
		0x01, 'b',
	}
	var back textsRecord
	l := back.layout()
	err := wire.DecodeRecord(wire.NewReader(raw), &l)
	var incomplete *wire.IncompleteBytesError
	require.ErrorAs(t, err, &incomplete)
	require.Contains(t, err.Error(), "points behind")
}

func TestRecordForwardGapIsSkipped(t *testing.T) {
	// Offsets may leap forward past bytes no field claims.
	raw := []byte{
		0x00, 0x00, 0x00, 0x00,
		0x04, 0x00, 0x00, 0x00, // 2 bytes of slack after a
		0x01, 'a', 0xde, 0xad,
		0x02, 'b', 'b',
	}
	var back textsRecord
	l := back.layout()
	r := wire.NewReader(raw)
	require.NoError(t, wire.DecodeRecord(r, &l))
	require.Equal(t, textsRecord{A: "a", B: "bb"}, back)
}

func TestRecordTruncatedFixedBlock(t *testing.T) {
	var back pairRecord
	l := back.layout()
	err := wire.DecodeRecord(wire.NewReader([]byte{0x00, 0x07}), &l)
	var incomplete *wire.IncompleteBytesError
	require.ErrorAs(t, err, &incomplete)
	require.Equal(t, 9, incomplete.Needed)
	require.Equal(t, 2, incomplete.Available)
}

func TestRecordErrorNamesField(t *testing.T) {
	raw := []byte{
		0x00, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
		0x01, 'a',
		0x05, 'b', // b claims 5 bytes, 1 remains
	}
	var back textsRecord
	l := back.layout()
	err := wire.DecodeRecord(wire.NewReader(raw), &l)
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "b:"), err.Error())
}

func TestLayoutValidate(t *testing.T) {
	opt := func(bit int) wire.Field {
		var v *uint32
		return wire.OptU32("f", bit, &v)
	}
	cases := []struct {
		name   string
		layout wire.Layout
		ok     bool
	}{
		{"mask narrower than highest bit", wire.Layout{MaskLen: 1, Fields: []wire.Field{opt(8)}}, false},
		{"mask exactly wide enough", wire.Layout{MaskLen: 2, Fields: []wire.Field{opt(8)}}, true},
		{"mask widened beyond minimum", wire.Layout{MaskLen: 4, Fields: []wire.Field{opt(0)}}, true},
		{"duplicate bit", wire.Layout{MaskLen: 1, Fields: []wire.Field{opt(3), opt(3)}}, false},
		{"no mask for required only", wire.Layout{Fields: []wire.Field{wire.U32("n", new(uint32))}}, true},
		{"fixed field without size", wire.Layout{Fields: []wire.Field{{Name: "broken", Block: wire.Fixed}}}, false},
		{"padding narrower than size", wire.Layout{MaskLen: 1, Fields: []wire.Field{
			wire.OptPad("p", 0, 4, 2, new(*uint32), wire.EncodeU32, wire.DecodeU32),
		}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.layout.Validate()
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestWidenedMaskReservedBitsZero(t *testing.T) {
	var v *uint32
	l := wire.Layout{MaskLen: 2, Fields: []wire.Field{wire.OptU32("only", 0, &v)}}
	require.NoError(t, l.Validate())

	w := wire.NewWriter()
	require.NoError(t, wire.EncodeRecord(w, &l))
	require.Equal(t, []byte{0x00, 0x00, 0, 0, 0, 0}, w.Bytes())

	// Decoder ignores whatever the reserved byte holds.
	var got *uint32
	l2 := wire.Layout{MaskLen: 2, Fields: []wire.Field{wire.OptU32("only", 0, &got)}}
	r := wire.NewReader([]byte{0x01, 0xff, 0x2a, 0, 0, 0})
	require.NoError(t, wire.DecodeRecord(r, &l2))
	require.NotNil(t, got)
	require.Equal(t, uint32(42), *got)
}
