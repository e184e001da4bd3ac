package protocol

import (
	"github.com/veilgate-project/veilgate/internal/wire"
)

// ChunkRequest asks the server to stream one chunk column.
type ChunkRequest struct {
	Pos    ChunkPos
	Detail uint8
}

func (m *ChunkRequest) TypeID() uint32 { return TypeChunkRequest }

func (m *ChunkRequest) Layout() wire.Layout {
	return wire.Layout{Fields: []wire.Field{
		wire.Req("pos", SizeChunkPos, m.Pos.encode, m.Pos.decode),
		wire.U8("detail", &m.Detail),
	}}
}

// ChunkData carries one serialized chunk column. Frames of this type are
// compressed on the wire; by the time the payload reaches the codec it has
// already been inflated.
type ChunkData struct {
	Pos      ChunkPos
	Revision uint32
	Palette  []uint32
	Blocks   []byte
	Lights   []byte
}

func (m *ChunkData) TypeID() uint32 { return TypeChunkData }

func (m *ChunkData) Layout() wire.Layout {
	return wire.Layout{MaskLen: 1, Fields: []wire.Field{
		wire.Req("pos", SizeChunkPos, m.Pos.encode, m.Pos.decode),
		wire.U32("revision", &m.Revision),
		wire.SeqOf("palette", &m.Palette, wire.EncodeU32, wire.DecodeU32),
		wire.BytesMax("blocks", &m.Blocks, MaxBlockBytes),
		wire.OptVar("lights", 0,
			func() bool { return m.Lights != nil },
			func(w *wire.Writer) error { return w.BoundedBlob(m.Lights, MaxBlockBytes) },
			func(r *wire.Reader) error {
				p, err := r.BoundedBlob(MaxBlockBytes)
				if err != nil {
					return err
				}
				m.Lights = p
				return nil
			}),
	}}
}

// BlockUpdate changes a single block.
type BlockUpdate struct {
	Pos   IVec3
	State uint32
	Flags uint8
}

func (m *BlockUpdate) TypeID() uint32 { return TypeBlockUpdate }

func (m *BlockUpdate) Layout() wire.Layout {
	return wire.Layout{Fields: []wire.Field{
		wire.Req("pos", SizeIVec3, m.Pos.encode, m.Pos.decode),
		wire.U32("state", &m.State),
		wire.U8("flags", &m.Flags),
	}}
}

// BlockBatch changes many blocks of one chunk in a single compressed frame.
type BlockBatch struct {
	Chunk   ChunkPos
	Changes []BlockChange
}

func (m *BlockBatch) TypeID() uint32 { return TypeBlockBatch }

func (m *BlockBatch) Layout() wire.Layout {
	return wire.Layout{Fields: []wire.Field{
		wire.Req("chunk", SizeChunkPos, m.Chunk.encode, m.Chunk.decode),
		wire.SeqOf("changes", &m.Changes, (*BlockChange).encode, (*BlockChange).decode),
	}}
}

// TimeSync aligns the client clock with the world.
type TimeSync struct {
	WorldAge  uint64
	TimeOfDay uint32
	Paused    bool
}

func (m *TimeSync) TypeID() uint32 { return TypeTimeSync }

func (m *TimeSync) Layout() wire.Layout {
	return wire.Layout{Fields: []wire.Field{
		wire.U64("world_age", &m.WorldAge),
		wire.U32("time_of_day", &m.TimeOfDay),
		wire.Bool("paused", &m.Paused),
	}}
}
