package protocol

import (
	"fmt"
	"slices"

	"github.com/veilgate-project/veilgate/internal/wire"
)

// Version is the single schema generation this catalog speaks. A ClientHello
// carrying any other value is answered with a protocol_error Disconnect.
const Version uint32 = 9

// Message type ids as they appear in the frame header. The id space is
// grouped by concern: 0x00xx session, 0x01xx players and entities, 0x02xx
// world, 0x03xx interaction and windows, 0x04xx chat, 0x05xx status.
const (
	TypeClientHello     uint32 = 0x0001
	TypeHelloAck        uint32 = 0x0002
	TypePing            uint32 = 0x0003
	TypePong            uint32 = 0x0004
	TypeDisconnect      uint32 = 0x0005
	TypePlayerJoin      uint32 = 0x0101
	TypePlayerLeave     uint32 = 0x0102
	TypePlayerMove      uint32 = 0x0110
	TypePlayerTeleport  uint32 = 0x0111
	TypeEntitySpawn     uint32 = 0x0120
	TypeEntityDelta     uint32 = 0x0121
	TypeEntityRemove    uint32 = 0x0122
	TypeChunkRequest    uint32 = 0x0201
	TypeChunkData       uint32 = 0x0202
	TypeBlockUpdate     uint32 = 0x0210
	TypeBlockBatch      uint32 = 0x0211
	TypeTimeSync        uint32 = 0x0212
	TypeInteractRequest uint32 = 0x0301
	TypeInteractAck     uint32 = 0x0302
	TypeWindowOpen      uint32 = 0x0310
	TypeWindowAction    uint32 = 0x0311
	TypeWindowItems     uint32 = 0x0312
	TypeWindowResult    uint32 = 0x0313
	TypeChatSend        uint32 = 0x0401
	TypeChatBroadcast   uint32 = 0x0402
	TypeCommandRequest  uint32 = 0x0410
	TypeServerStatus    uint32 = 0x0500
)

// Message is one catalog message. Layout describes the wire shape of the
// value it is called on; the shared record engine drives both directions
// from it.
type Message interface {
	TypeID() uint32
	Layout() wire.Layout
}

// RawMessage preserves a frame whose type id is not in the catalog. It
// re-encodes to its original payload byte for byte, which lets relays and
// capture tooling pass unknown types through untouched.
type RawMessage struct {
	ID      uint32
	Payload []byte
}

func (m *RawMessage) TypeID() uint32 { return m.ID }

func (m *RawMessage) Layout() wire.Layout {
	return wire.Layout{Fields: []wire.Field{
		wire.ReqVar("raw",
			func(w *wire.Writer) error { w.Raw(m.Payload); return nil },
			func(r *wire.Reader) error {
				m.Payload = append([]byte(nil), r.Rest()...)
				return nil
			}),
	}}
}

type entry struct {
	name       string
	compressed bool
	factory    func() Message
}

var catalog = map[uint32]entry{}

func register(name string, compressed bool, factory func() Message) {
	m := factory()
	id := m.TypeID()
	if prev, dup := catalog[id]; dup {
		panic(fmt.Sprintf("protocol: type id 0x%04x of %s already registered as %s", id, name, prev.name))
	}
	l := m.Layout()
	if err := l.Validate(); err != nil {
		panic(fmt.Sprintf("protocol: invalid layout for %s: %v", name, err))
	}
	catalog[id] = entry{name: name, compressed: compressed, factory: factory}
}

// The catalog is assembled once here and never mutated afterwards, so all
// lookups are plain unsynchronized map reads.
func init() {
	register("client_hello", false, func() Message { return new(ClientHello) })
	register("hello_ack", false, func() Message { return new(HelloAck) })
	register("ping", false, func() Message { return new(Ping) })
	register("pong", false, func() Message { return new(Pong) })
	register("disconnect", false, func() Message { return new(Disconnect) })
	register("player_join", false, func() Message { return new(PlayerJoin) })
	register("player_leave", false, func() Message { return new(PlayerLeave) })
	register("player_move", false, func() Message { return new(PlayerMove) })
	register("player_teleport", false, func() Message { return new(PlayerTeleport) })
	register("entity_spawn", false, func() Message { return new(EntitySpawn) })
	register("entity_delta", false, func() Message { return new(EntityDelta) })
	register("entity_remove", false, func() Message { return new(EntityRemove) })
	register("chunk_request", false, func() Message { return new(ChunkRequest) })
	register("chunk_data", true, func() Message { return new(ChunkData) })
	register("block_update", false, func() Message { return new(BlockUpdate) })
	register("block_batch", true, func() Message { return new(BlockBatch) })
	register("time_sync", false, func() Message { return new(TimeSync) })
	register("interact_request", false, func() Message { return new(InteractRequest) })
	register("interact_ack", false, func() Message { return new(InteractAck) })
	register("window_open", false, func() Message { return new(WindowOpen) })
	register("window_action", false, func() Message { return new(WindowAction) })
	register("window_items", false, func() Message { return new(WindowItems) })
	register("window_result", false, func() Message { return new(WindowResult) })
	register("chat_send", false, func() Message { return new(ChatSend) })
	register("chat_broadcast", false, func() Message { return new(ChatBroadcast) })
	register("command_request", false, func() Message { return new(CommandRequest) })
	register("server_status", false, func() Message { return new(ServerStatus) })
}

// Known reports whether id has a registered message type.
func Known(id uint32) bool {
	_, ok := catalog[id]
	return ok
}

// Compressed reports whether frames of this type carry a compressed
// payload. The transport consults this before the codec ever sees the
// bytes; unknown ids are never compressed.
func Compressed(id uint32) bool {
	e, ok := catalog[id]
	return ok && e.compressed
}

// Name returns the catalog name for id, or a hex placeholder for unknown
// types.
func Name(id uint32) string {
	if e, ok := catalog[id]; ok {
		return e.name
	}
	return fmt.Sprintf("unknown_0x%04x", id)
}

// New returns a fresh zero value of the message type registered for id, or
// nil for unknown ids.
func New(id uint32) Message {
	e, ok := catalog[id]
	if !ok {
		return nil
	}
	return e.factory()
}

// TypeIDs returns every registered id in ascending order.
func TypeIDs() []uint32 {
	ids := make([]uint32, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Decode decodes one frame payload. Unknown type ids fall back to a
// RawMessage capturing the bytes verbatim; for known ids any wire
// malformation surfaces as an error wrapped with the message name.
func Decode(id uint32, payload []byte) (Message, error) {
	e, ok := catalog[id]
	if !ok {
		return &RawMessage{ID: id, Payload: append([]byte(nil), payload...)}, nil
	}
	m := e.factory()
	l := m.Layout()
	if err := wire.DecodeRecord(wire.NewReader(payload), &l); err != nil {
		return nil, fmt.Errorf("decode %s: %w", e.name, err)
	}
	return m, nil
}

// Encode returns the payload encoding of m, without the frame header.
func Encode(m Message) ([]byte, error) {
	w := wire.NewWriterSize(64)
	l := m.Layout()
	if err := wire.EncodeRecord(w, &l); err != nil {
		return nil, fmt.Errorf("encode %s: %w", Name(m.TypeID()), err)
	}
	return w.Bytes(), nil
}
