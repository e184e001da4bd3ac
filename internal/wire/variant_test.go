package wire_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veilgate-project/veilgate/internal/wire"
)

type testMode uint8

const (
	modeIdle testMode = iota
	modeActive
	modeDrain
)

func TestNestedVariantDispatch(t *testing.T) {
	w := wire.NewWriter()
	err := wire.WriteVariant(w, 1, func(w *wire.Writer) error {
		w.U16(0x2a2a)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x2a, 0x2a}, w.Bytes())

	var got uint16
	err = wire.ReadVariant(wire.NewReader(w.Bytes()), func(tag int32) func(*wire.Reader) error {
		if tag != 1 {
			return nil
		}
		return func(r *wire.Reader) error {
			v, err := r.U16()
			got = v
			return err
		}
	})
	require.NoError(t, err)
	require.Equal(t, uint16(0x2a2a), got)
}

func TestNestedVariantUnknownTagRejected(t *testing.T) {
	w := wire.NewWriter()
	w.VarInt(99)

	err := wire.ReadVariant(wire.NewReader(w.Bytes()), func(tag int32) func(*wire.Reader) error {
		return nil
	})
	var unknown *wire.InvalidEnumError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, int64(99), unknown.Raw)
}

func TestEnum8RejectsOutOfRange(t *testing.T) {
	v, err := wire.Enum8(wire.NewReader([]byte{1}), modeDrain)
	require.NoError(t, err)
	require.Equal(t, modeActive, v)

	_, err = wire.Enum8(wire.NewReader([]byte{3}), modeDrain)
	var unknown *wire.InvalidEnumError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, int64(3), unknown.Raw)
}

func TestEnum16RejectsOutOfRange(t *testing.T) {
	type kind uint16
	_, err := wire.Enum16(wire.NewReader([]byte{0xff, 0x7f}), kind(12))
	var unknown *wire.InvalidEnumError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, int64(0x7fff), unknown.Raw)
}
