package wire_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veilgate-project/veilgate/internal/wire"
)

func TestSeqRoundTrip(t *testing.T) {
	xs := []uint32{3, 1, 4, 1, 5}
	w := wire.NewWriter()
	require.NoError(t, wire.WriteSeq(w, xs, wire.EncodeU32))

	r := wire.NewReader(w.Bytes())
	got, err := wire.ReadSeq(r, wire.DecodeU32)
	require.NoError(t, err)
	require.Equal(t, xs, got)
	require.Equal(t, 0, r.Remaining())
}

func TestSeqEmpty(t *testing.T) {
	w := wire.NewWriter()
	require.NoError(t, wire.WriteSeq(w, nil, wire.EncodeU32))
	require.Equal(t, []byte{0x00}, w.Bytes())

	got, err := wire.ReadSeq(wire.NewReader(w.Bytes()), wire.DecodeU32)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestSeqHostileCount(t *testing.T) {
	// Count claims two million elements backed by three bytes. The decode
	// must fail with a truncation error, not allocate two million slots.
	w := wire.NewWriter()
	w.VarInt(2_000_000).U8(1).U8(2).U8(3)

	_, err := wire.ReadSeq(wire.NewReader(w.Bytes()), wire.DecodeU64)
	var incomplete *wire.IncompleteBytesError
	require.ErrorAs(t, err, &incomplete)
}

func TestSeqElementErrorNamesIndex(t *testing.T) {
	w := wire.NewWriter()
	w.VarInt(2).U32(1) // second element missing

	_, err := wire.ReadSeq(wire.NewReader(w.Bytes()), wire.DecodeU32)
	require.Error(t, err)
	require.Contains(t, err.Error(), "element 1")
}

func TestMapDeterministicEncoding(t *testing.T) {
	m := map[string]float64{"speed": 1.5, "armor": 20, "mass": 70}
	var first []byte
	for i := 0; i < 8; i++ {
		w := wire.NewWriter()
		require.NoError(t, wire.WriteMap(w, m, wire.EncodeString, wire.EncodeF64))
		if first == nil {
			first = append([]byte(nil), w.Bytes()...)
			continue
		}
		require.Equal(t, first, w.Bytes(), "map encoding must not depend on iteration order")
	}

	// Keys come out in ascending order: armor, mass, speed.
	r := wire.NewReader(first)
	n, err := r.VarInt()
	require.NoError(t, err)
	require.Equal(t, int32(3), n)
	k, err := r.String()
	require.NoError(t, err)
	require.Equal(t, "armor", k)
}

func TestMapRoundTrip(t *testing.T) {
	m := map[string]string{"region": "eu-west", "tier": "gold"}
	w := wire.NewWriter()
	require.NoError(t, wire.WriteMap(w, m, wire.EncodeString, wire.EncodeString))

	got, err := wire.ReadMap(wire.NewReader(w.Bytes()), wire.DecodeString, wire.DecodeString)
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestMapEmpty(t *testing.T) {
	w := wire.NewWriter()
	require.NoError(t, wire.WriteMap(w, map[string]string(nil), wire.EncodeString, wire.EncodeString))
	require.Equal(t, []byte{0x00}, w.Bytes())

	got, err := wire.ReadMap(wire.NewReader(w.Bytes()), wire.DecodeString, wire.DecodeString)
	require.NoError(t, err)
	require.Nil(t, got)
}
