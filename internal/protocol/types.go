// Package protocol defines the Veilgate message catalog: every message type
// carried by the frame layer, the composite values and enums they are built
// from, and the nested action variants. Each message describes its own wire
// shape as a field layout and the shared record engine in internal/wire does
// the actual byte work.
package protocol

import (
	"github.com/veilgate-project/veilgate/internal/wire"
)

// Canonical sizes of the composite fixed-block values.
const (
	SizeVec3        = 3 * wire.SizeF32
	SizeIVec3       = 3 * wire.SizeU32
	SizeOrientation = 2 * wire.SizeF32
	SizeChunkPos    = 2 * wire.SizeU32
)

// Byte-length caps on attacker-controlled variable fields, enforced before
// anything is allocated.
const (
	MaxDisplayName = 48
	MaxWorldName   = 64
	MaxMOTD        = 256
	MaxDetailText  = 256
	MaxAuthToken   = 512
	MaxItemName    = 64
	MaxWindowTitle = 64
	MaxChatText    = 1024
	MaxCommandText = 1024
	MaxBlockBytes  = 1 << 20
)

// Vec3 is a world-space position, velocity, or direction.
type Vec3 struct {
	X, Y, Z float32
}

func (v *Vec3) encode(w *wire.Writer) error {
	w.F32(v.X).F32(v.Y).F32(v.Z)
	return nil
}

func (v *Vec3) decode(r *wire.Reader) error {
	var err error
	if v.X, err = r.F32(); err != nil {
		return err
	}
	if v.Y, err = r.F32(); err != nil {
		return err
	}
	v.Z, err = r.F32()
	return err
}

// IVec3 is a block coordinate.
type IVec3 struct {
	X, Y, Z int32
}

func (v *IVec3) encode(w *wire.Writer) error {
	w.I32(v.X).I32(v.Y).I32(v.Z)
	return nil
}

func (v *IVec3) decode(r *wire.Reader) error {
	var err error
	if v.X, err = r.I32(); err != nil {
		return err
	}
	if v.Y, err = r.I32(); err != nil {
		return err
	}
	v.Z, err = r.I32()
	return err
}

// Orientation is a view direction in degrees.
type Orientation struct {
	Yaw   float32
	Pitch float32
}

func (o *Orientation) encode(w *wire.Writer) error {
	w.F32(o.Yaw).F32(o.Pitch)
	return nil
}

func (o *Orientation) decode(r *wire.Reader) error {
	var err error
	if o.Yaw, err = r.F32(); err != nil {
		return err
	}
	o.Pitch, err = r.F32()
	return err
}

// ChunkPos addresses one vertical chunk column.
type ChunkPos struct {
	X, Z int32
}

func (c *ChunkPos) encode(w *wire.Writer) error {
	w.I32(c.X).I32(c.Z)
	return nil
}

func (c *ChunkPos) decode(r *wire.Reader) error {
	var err error
	if c.X, err = r.I32(); err != nil {
		return err
	}
	c.Z, err = r.I32()
	return err
}

// BlockChange is one entry of a batched block update: a position packed
// relative to its chunk origin plus the new block state.
type BlockChange struct {
	Packed uint16
	State  uint32
}

func (b *BlockChange) encode(w *wire.Writer) error {
	w.U16(b.Packed).U32(b.State)
	return nil
}

func (b *BlockChange) decode(r *wire.Reader) error {
	var err error
	if b.Packed, err = r.U16(); err != nil {
		return err
	}
	b.State, err = r.U32()
	return err
}
