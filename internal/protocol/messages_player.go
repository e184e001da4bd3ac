package protocol

import (
	"github.com/google/uuid"

	"github.com/veilgate-project/veilgate/internal/wire"
)

// PlayerJoin announces a player entering the world.
type PlayerJoin struct {
	Player uuid.UUID
	Name   string
	Mode   GameMode
	Pos    Vec3
	Look   Orientation
}

func (m *PlayerJoin) TypeID() uint32 { return TypePlayerJoin }

func (m *PlayerJoin) Layout() wire.Layout {
	return wire.Layout{Fields: []wire.Field{
		wire.ID("player", &m.Player),
		wire.EnumU8("mode", &m.Mode, ModeSpectator),
		wire.Req("pos", SizeVec3, m.Pos.encode, m.Pos.decode),
		wire.Req("look", SizeOrientation, m.Look.encode, m.Look.decode),
		wire.StrMax("name", &m.Name, MaxDisplayName),
	}}
}

// PlayerLeave announces a player leaving the world.
type PlayerLeave struct {
	Player uuid.UUID
	Reason DisconnectReason
}

func (m *PlayerLeave) TypeID() uint32 { return TypePlayerLeave }

func (m *PlayerLeave) Layout() wire.Layout {
	return wire.Layout{Fields: []wire.Field{
		wire.ID("player", &m.Player),
		wire.EnumU8("reason", &m.Reason, DisconnectShutdown),
	}}
}

// PlayerMove is the high-rate movement update. Every component is optional
// so an unchanged part of the pose costs only its padding bytes, never a
// re-encode of the full pose.
type PlayerMove struct {
	Player   uuid.UUID
	Pos      *Vec3
	Look     *Orientation
	Velocity *Vec3
	OnGround bool
}

func (m *PlayerMove) TypeID() uint32 { return TypePlayerMove }

func (m *PlayerMove) Layout() wire.Layout {
	return wire.Layout{MaskLen: 1, Fields: []wire.Field{
		wire.ID("player", &m.Player),
		wire.Opt("pos", 0, SizeVec3, &m.Pos, (*Vec3).encode, (*Vec3).decode),
		wire.Opt("look", 1, SizeOrientation, &m.Look, (*Orientation).encode, (*Orientation).decode),
		wire.Opt("velocity", 2, SizeVec3, &m.Velocity, (*Vec3).encode, (*Vec3).decode),
		wire.Bool("on_ground", &m.OnGround),
	}}
}

// PlayerTeleport forces an absolute pose. Everything is required, so the
// record degenerates to plain primitive composition with no bitmask.
type PlayerTeleport struct {
	Player uuid.UUID
	Pos    Vec3
	Look   Orientation
	Cause  uint8
}

func (m *PlayerTeleport) TypeID() uint32 { return TypePlayerTeleport }

func (m *PlayerTeleport) Layout() wire.Layout {
	return wire.Layout{Fields: []wire.Field{
		wire.ID("player", &m.Player),
		wire.Req("pos", SizeVec3, m.Pos.encode, m.Pos.decode),
		wire.Req("look", SizeOrientation, m.Look.encode, m.Look.decode),
		wire.U8("cause", &m.Cause),
	}}
}
