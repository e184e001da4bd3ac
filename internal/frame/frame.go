// Package frame implements the wire envelope around protocol messages: a
// little-endian u32 payload length, a little-endian u32 type id, then
// exactly length payload bytes. The length is validated before any receive
// buffer is sized, so a hostile header can never force a large allocation.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderLen is the fixed size of the frame envelope.
const HeaderLen = 8

// MaxPayload is the ceiling on a frame's declared payload length.
const MaxPayload = 0x60000000

var (
	// ErrEmptyPayload rejects frames declaring a zero-byte payload; no
	// message encodes to nothing.
	ErrEmptyPayload = errors.New("zero-length frame payload")

	// ErrOversizedPayload rejects frames declaring more than MaxPayload
	// bytes.
	ErrOversizedPayload = errors.New("frame payload exceeds ceiling")
)

// Header is the decoded frame envelope.
type Header struct {
	Length uint32
	TypeID uint32
}

func (h Header) validate() error {
	if h.Length == 0 {
		return ErrEmptyPayload
	}
	if h.Length > MaxPayload {
		return fmt.Errorf("%w: %d bytes", ErrOversizedPayload, h.Length)
	}
	return nil
}

// ReadHeader reads and validates one frame envelope.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [HeaderLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, fmt.Errorf("failed to read frame header: %w", err)
	}
	h := Header{
		Length: binary.LittleEndian.Uint32(buf[0:4]),
		TypeID: binary.LittleEndian.Uint32(buf[4:8]),
	}
	if err := h.validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}

// Read reads one complete frame, returning its header and payload.
func Read(r io.Reader) (Header, []byte, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return Header{}, nil, err
	}
	payload := make([]byte, h.Length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Header{}, nil, fmt.Errorf("failed to read %d byte payload of type 0x%04x: %w", h.Length, h.TypeID, err)
	}
	return h, payload, nil
}

// Write writes one complete frame.
func Write(w io.Writer, typeID uint32, payload []byte) error {
	h := Header{Length: uint32(len(payload)), TypeID: typeID}
	if err := h.validate(); err != nil {
		return err
	}
	var buf [HeaderLen]byte
	binary.LittleEndian.PutUint32(buf[0:4], h.Length)
	binary.LittleEndian.PutUint32(buf[4:8], h.TypeID)
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("failed to write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write frame payload: %w", err)
	}
	return nil
}

// Append serializes one complete frame onto dst and returns the extended
// slice. Capture replay and tests use this to build frame streams in
// memory.
func Append(dst []byte, typeID uint32, payload []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(payload)))
	dst = binary.LittleEndian.AppendUint32(dst, typeID)
	return append(dst, payload...)
}
