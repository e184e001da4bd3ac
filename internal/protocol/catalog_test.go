package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veilgate-project/veilgate/internal/protocol"
)

func TestCatalogMetadata(t *testing.T) {
	require.True(t, protocol.Known(protocol.TypePing))
	require.False(t, protocol.Known(0x7777))

	require.True(t, protocol.Compressed(protocol.TypeChunkData))
	require.True(t, protocol.Compressed(protocol.TypeBlockBatch))
	require.False(t, protocol.Compressed(protocol.TypePlayerMove))
	require.False(t, protocol.Compressed(0x7777), "unknown ids are never compressed")

	require.Equal(t, "chunk_data", protocol.Name(protocol.TypeChunkData))
	require.Equal(t, "unknown_0x7777", protocol.Name(0x7777))
}

func TestCatalogNewMatchesID(t *testing.T) {
	ids := protocol.TypeIDs()
	require.NotEmpty(t, ids)
	for _, id := range ids {
		m := protocol.New(id)
		require.NotNil(t, m)
		require.Equal(t, id, m.TypeID())
	}
	require.IsType(t, &protocol.ClientHello{}, protocol.New(protocol.TypeClientHello))
	require.Nil(t, protocol.New(0x7777))
}

func TestCatalogTypeIDsSorted(t *testing.T) {
	ids := protocol.TypeIDs()
	for i := 1; i < len(ids); i++ {
		require.Less(t, ids[i-1], ids[i])
	}
}

func TestUnknownTypePassthrough(t *testing.T) {
	raw := []byte{0x13, 0x37, 0x00, 0xff, 0x42}
	m, err := protocol.Decode(0x7777, raw)
	require.NoError(t, err)

	pass, ok := m.(*protocol.RawMessage)
	require.True(t, ok)
	require.Equal(t, uint32(0x7777), pass.TypeID())
	require.Equal(t, raw, pass.Payload)

	// Mutating the original buffer must not leak into the capture.
	raw[0] = 0x00
	require.Equal(t, byte(0x13), pass.Payload[0])

	out, err := protocol.Encode(pass)
	require.NoError(t, err)
	require.Equal(t, []byte{0x13, 0x37, 0x00, 0xff, 0x42}, out)
}

func TestKnownTypeNotRaw(t *testing.T) {
	payload, err := protocol.Encode(&protocol.Ping{Nonce: 1, SentAt: 2})
	require.NoError(t, err)
	m, err := protocol.Decode(protocol.TypePing, payload)
	require.NoError(t, err)
	require.IsType(t, &protocol.Ping{}, m)
}
