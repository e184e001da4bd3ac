package frame_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veilgate-project/veilgate/internal/frame"
)

func TestWriteGoldenBytes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, frame.Write(&buf, 0x0110, []byte{0xaa, 0xbb, 0xcc}))
	require.Equal(t, []byte{
		0x03, 0x00, 0x00, 0x00, // payload length
		0x10, 0x01, 0x00, 0x00, // type id
		0xaa, 0xbb, 0xcc,
	}, buf.Bytes())
}

func TestReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, frame.Write(&buf, 7, []byte("payload")))
	require.NoError(t, frame.Write(&buf, 8, []byte{0x01}))

	h, p, err := frame.Read(&buf)
	require.NoError(t, err)
	require.Equal(t, uint32(7), h.TypeID)
	require.Equal(t, []byte("payload"), p)

	h, p, err = frame.Read(&buf)
	require.NoError(t, err)
	require.Equal(t, uint32(8), h.TypeID)
	require.Equal(t, []byte{0x01}, p)
}

func TestRejectZeroLength(t *testing.T) {
	raw := []byte{0, 0, 0, 0, 1, 0, 0, 0}
	_, err := frame.ReadHeader(bytes.NewReader(raw))
	require.ErrorIs(t, err, frame.ErrEmptyPayload)

	err = frame.Write(io.Discard, 1, nil)
	require.ErrorIs(t, err, frame.ErrEmptyPayload)
}

func TestRejectOversizedLengthBeforeReading(t *testing.T) {
	// 0xffffffff declared bytes; only the header is actually present.
	raw := []byte{0xff, 0xff, 0xff, 0xff, 1, 0, 0, 0}
	_, err := frame.ReadHeader(bytes.NewReader(raw))
	require.ErrorIs(t, err, frame.ErrOversizedPayload)
}

func TestTruncatedPayload(t *testing.T) {
	raw := frame.Append(nil, 9, []byte{1, 2, 3, 4})
	_, _, err := frame.Read(bytes.NewReader(raw[:len(raw)-2]))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestTruncatedHeader(t *testing.T) {
	_, err := frame.ReadHeader(bytes.NewReader([]byte{1, 0}))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestAppendMatchesWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, frame.Write(&buf, 42, []byte{9, 9}))
	require.Equal(t, buf.Bytes(), frame.Append(nil, 42, []byte{9, 9}))
}
