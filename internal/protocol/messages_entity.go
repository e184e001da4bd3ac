package protocol

import (
	"github.com/google/uuid"

	"github.com/veilgate-project/veilgate/internal/wire"
)

// EntitySpawn introduces an entity to a client's view.
type EntitySpawn struct {
	Entity     uint64
	Kind       EntityKind
	Pos        Vec3
	Owner      *uuid.UUID
	Attributes map[string]float64
	Name       *string
}

func (m *EntitySpawn) TypeID() uint32 { return TypeEntitySpawn }

func (m *EntitySpawn) Layout() wire.Layout {
	return wire.Layout{MaskLen: 1, Fields: []wire.Field{
		wire.U64("entity", &m.Entity),
		wire.EnumU16("kind", &m.Kind, KindMarker),
		wire.Req("pos", SizeVec3, m.Pos.encode, m.Pos.decode),
		wire.OptID("owner", 0, &m.Owner),
		wire.MapOf("attributes", &m.Attributes,
			wire.EncodeString, wire.DecodeString, wire.EncodeF64, wire.DecodeF64),
		wire.OptStrMax("name", 1, &m.Name, MaxDisplayName),
	}}
}

// EntityDelta is the incremental entity update. Nine optional fields push
// the presence bits past one byte, so the bitmask is two bytes wide; the
// health slot is padded to eight bytes, the width of the combined
// health/max-health pair it replaced.
type EntityDelta struct {
	Entity   uint64
	Pos      *Vec3
	Look     *Orientation
	Velocity *Vec3
	Health   *float32
	Armor    *uint16
	Effect   *uint32
	Target   *uint64
	Scale    *float32
	Name     *string
}

func (m *EntityDelta) TypeID() uint32 { return TypeEntityDelta }

func (m *EntityDelta) Layout() wire.Layout {
	return wire.Layout{MaskLen: 2, Fields: []wire.Field{
		wire.U64("entity", &m.Entity),
		wire.Opt("pos", 0, SizeVec3, &m.Pos, (*Vec3).encode, (*Vec3).decode),
		wire.Opt("look", 1, SizeOrientation, &m.Look, (*Orientation).encode, (*Orientation).decode),
		wire.Opt("velocity", 2, SizeVec3, &m.Velocity, (*Vec3).encode, (*Vec3).decode),
		wire.OptPad("health", 3, wire.SizeF32, 8, &m.Health, wire.EncodeF32, wire.DecodeF32),
		wire.OptU16("armor", 4, &m.Armor),
		wire.OptU32("effect", 5, &m.Effect),
		wire.OptU64("target", 6, &m.Target),
		wire.OptF32("scale", 7, &m.Scale),
		wire.OptStrMax("name", 8, &m.Name, MaxDisplayName),
	}}
}

// EntityRemove drops entities from a client's view.
type EntityRemove struct {
	Entities []uint64
}

func (m *EntityRemove) TypeID() uint32 { return TypeEntityRemove }

func (m *EntityRemove) Layout() wire.Layout {
	return wire.Layout{Fields: []wire.Field{
		wire.SeqOf("entities", &m.Entities, wire.EncodeU64, wire.DecodeU64),
	}}
}
