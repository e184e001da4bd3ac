package protocol_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/veilgate-project/veilgate/internal/protocol"
	"github.com/veilgate-project/veilgate/internal/wire"
)

func u16ptr(v uint16) *uint16       { return &v }
func f32ptr(v float32) *float32     { return &v }
func strptr(s string) *string       { return &s }
func idptr(id uuid.UUID) *uuid.UUID { return &id }

var testID = uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")

func roundTrip(t *testing.T, m protocol.Message) protocol.Message {
	t.Helper()
	payload, err := protocol.Encode(m)
	require.NoError(t, err)
	back, err := protocol.Decode(m.TypeID(), payload)
	require.NoError(t, err)
	require.Equal(t, m, back)
	return back
}

func TestMessageRoundTrips(t *testing.T) {
	cases := []struct {
		name string
		msg  protocol.Message
	}{
		{"client_hello minimal", &protocol.ClientHello{Protocol: 3, Locale: "en_US", DisplayName: "kestrel"}},
		{"client_hello full", &protocol.ClientHello{
			Protocol:    3,
			Locale:      "de_DE",
			DisplayName: "kestrel",
			AuthToken:   []byte{0xde, 0xad, 0xbe, 0xef},
			Features:    []string{"shaders", "telemetry"},
		}},
		{"hello_ack rejected", &protocol.HelloAck{Session: testID, HeartbeatMS: 5000, World: "veilgate"}},
		{"hello_ack with motd", &protocol.HelloAck{
			Session: testID, Accepted: true, HeartbeatMS: 5000,
			World: "veilgate", MOTD: strptr("welcome back"),
		}},
		{"ping", &protocol.Ping{Nonce: 7, SentAt: 1700000000}},
		{"pong", &protocol.Pong{Nonce: 7, SentAt: 1700000000, ServerTime: 1700000004}},
		{"disconnect bare", &protocol.Disconnect{Reason: protocol.DisconnectTimeout}},
		{"disconnect with detail", &protocol.Disconnect{
			Reason: protocol.DisconnectKicked, Detail: strptr("afk too long"),
		}},
		{"player_join", &protocol.PlayerJoin{
			Player: testID, Name: "kestrel", Mode: protocol.ModeCreative,
			Pos:  protocol.Vec3{X: 1, Y: 64, Z: -3.5},
			Look: protocol.Orientation{Yaw: 90, Pitch: -10},
		}},
		{"player_leave", &protocol.PlayerLeave{Player: testID, Reason: protocol.DisconnectQuit}},
		{"player_move empty", &protocol.PlayerMove{Player: testID, OnGround: true}},
		{"player_move partial", &protocol.PlayerMove{
			Player: testID,
			Look:   &protocol.Orientation{Yaw: 180},
		}},
		{"player_move full", &protocol.PlayerMove{
			Player:   testID,
			Pos:      &protocol.Vec3{X: 10.5, Y: 70, Z: 8},
			Look:     &protocol.Orientation{Yaw: 45, Pitch: 5},
			Velocity: &protocol.Vec3{Y: -0.4},
			OnGround: false,
		}},
		{"player_teleport", &protocol.PlayerTeleport{
			Player: testID, Pos: protocol.Vec3{X: 0, Y: 100, Z: 0},
			Look: protocol.Orientation{}, Cause: 2,
		}},
		{"entity_spawn minimal", &protocol.EntitySpawn{
			Entity: 991, Kind: protocol.KindCreature, Pos: protocol.Vec3{X: 5},
		}},
		{"entity_spawn full", &protocol.EntitySpawn{
			Entity: 991, Kind: protocol.KindItem, Pos: protocol.Vec3{Z: 2},
			Owner:      idptr(testID),
			Attributes: map[string]float64{"speed": 0.25, "mass": 12},
			Name:       strptr("dropped sword"),
		}},
		{"entity_delta sparse", &protocol.EntityDelta{Entity: 991, Health: f32ptr(19.5)}},
		{"entity_delta dense", &protocol.EntityDelta{
			Entity:   991,
			Pos:      &protocol.Vec3{X: 1, Y: 2, Z: 3},
			Look:     &protocol.Orientation{Pitch: 30},
			Velocity: &protocol.Vec3{X: -1},
			Health:   f32ptr(20),
			Armor:    u16ptr(5),
			Effect:   func() *uint32 { v := uint32(3); return &v }(),
			Target:   func() *uint64 { v := uint64(17); return &v }(),
			Scale:    f32ptr(1.5),
			Name:     strptr("elite"),
		}},
		{"entity_remove", &protocol.EntityRemove{Entities: []uint64{9, 11, 13}}},
		{"chunk_request", &protocol.ChunkRequest{Pos: protocol.ChunkPos{X: -4, Z: 12}, Detail: 1}},
		{"chunk_data", &protocol.ChunkData{
			Pos: protocol.ChunkPos{X: -4, Z: 12}, Revision: 9,
			Palette: []uint32{0, 1, 9},
			Blocks:  []byte{0, 0, 1, 2, 1, 0},
			Lights:  []byte{0xff, 0x0f},
		}},
		{"block_update", &protocol.BlockUpdate{
			Pos: protocol.IVec3{X: 1, Y: -60, Z: 2}, State: 88, Flags: 3,
		}},
		{"block_batch", &protocol.BlockBatch{
			Chunk: protocol.ChunkPos{X: 2, Z: 2},
			Changes: []protocol.BlockChange{
				{Packed: 0x0102, State: 4}, {Packed: 0x0203, State: 0},
			},
		}},
		{"time_sync", &protocol.TimeSync{WorldAge: 123456, TimeOfDay: 6000, Paused: true}},
		{"interact use_item", &protocol.InteractRequest{
			Seq: 41, Action: &protocol.UseItem{Slot: 2, Hand: 0},
		}},
		{"interact use_block with cursor", &protocol.InteractRequest{
			Seq: 42,
			Action: &protocol.UseBlock{
				Pos: protocol.IVec3{X: 8, Y: 64, Z: 8}, Face: protocol.FaceUp,
				Cursor: &protocol.Vec3{X: 0.5, Y: 1, Z: 0.5},
			},
		}},
		{"interact attack", &protocol.InteractRequest{Seq: 43, Action: &protocol.Attack{Entity: 991}}},
		{"interact harvest", &protocol.InteractRequest{
			Seq: 44, Action: &protocol.Harvest{Pos: protocol.IVec3{Y: 1}},
		}},
		{"interact drop", &protocol.InteractRequest{
			Seq: 45, Action: &protocol.DropItem{Slot: 1, All: true},
		}},
		{"interact_ack", &protocol.InteractAck{
			Seq: 41, Result: protocol.ResultOutOfRange, Tick: 400,
		}},
		{"window_open", &protocol.WindowOpen{
			Window: 3, Kind: protocol.WindowChest, Title: "Large Chest",
		}},
		{"window_action click", &protocol.WindowAction{
			Window: 3, Seq: 1, Op: &protocol.Click{Slot: 13, Button: protocol.ClickRight},
		}},
		{"window_action drag", &protocol.WindowAction{
			Window: 3, Seq: 2,
			Op: &protocol.Drag{Slots: []uint16{0, 1, 2}, Button: protocol.ClickLeft},
		}},
		{"window_action swap", &protocol.WindowAction{Window: 3, Seq: 3, Op: &protocol.SwapHands{}}},
		{"window_action close", &protocol.WindowAction{Window: 3, Seq: 4, Op: &protocol.CloseWindow{}}},
		{"window_items", &protocol.WindowItems{
			Window: 3, Revision: 7,
			Slots: []protocol.ItemStack{
				{Item: 0, Count: 0},
				{Item: 17, Count: 32, Durability: u16ptr(250)},
				{Item: 9, Count: 1, CustomName: strptr("Soulkeeper")},
			},
			Carried: &protocol.ItemStack{Item: 4, Count: 12},
		}},
		{"window_result", &protocol.WindowResult{Window: 3, Seq: 2, Accepted: true}},
		{"chat_send", &protocol.ChatSend{Channel: protocol.ChannelParty, Text: "on my way"}},
		{"chat_broadcast system", &protocol.ChatBroadcast{
			Channel: protocol.ChannelSystem, Text: "server restarting", Timestamp: 1700000300,
		}},
		{"chat_broadcast player", &protocol.ChatBroadcast{
			Channel: protocol.ChannelGlobal, Sender: idptr(testID),
			SenderName: strptr("kestrel"), Text: "hello", Timestamp: 1700000301,
		}},
		{"command bare", &protocol.CommandRequest{Seq: 9, Raw: "/time set day"}},
		{"command with anchor", &protocol.CommandRequest{
			Seq: 10, Raw: "/summon creature", Args: []string{"creature"},
			Anchor: &protocol.TargetOffset{
				Base:  &protocol.TargetBlock{Pos: protocol.IVec3{X: 1, Y: 2, Z: 3}},
				Delta: protocol.Vec3{Y: 1.5},
			},
		}},
		{"server_status", &protocol.ServerStatus{
			Players: 17, Capacity: 200, Tick: 88421, TPS: 19.97,
			Tags: map[string]string{"region": "eu-west", "build": "1.4.2"},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			roundTrip(t, tc.msg)
		})
	}
}

func TestDisconnectGoldenBytes(t *testing.T) {
	m := &protocol.Disconnect{Reason: protocol.DisconnectKicked, Detail: strptr("bye")}
	payload, err := protocol.Encode(m)
	require.NoError(t, err)
	// One optional variable field means no offset table, just the mask,
	// the reason byte, and the string.
	require.Equal(t, []byte{0x01, 0x01, 0x03, 'b', 'y', 'e'}, payload)
}

func TestPlayerMoveFixedLengthStable(t *testing.T) {
	empty, err := protocol.Encode(&protocol.PlayerMove{Player: testID})
	require.NoError(t, err)
	full, err := protocol.Encode(&protocol.PlayerMove{
		Player:   testID,
		Pos:      &protocol.Vec3{X: 1},
		Look:     &protocol.Orientation{Yaw: 2},
		Velocity: &protocol.Vec3{Z: 3},
	})
	require.NoError(t, err)
	require.Len(t, empty, len(full), "absent fields are padded, not omitted")

	// mask + uuid + three vectors + on_ground
	require.Len(t, full, 1+16+12+8+12+1)
}

func TestEntityDeltaMaskIsTwoBytes(t *testing.T) {
	payload, err := protocol.Encode(&protocol.EntityDelta{Entity: 1, Name: strptr("x")})
	require.NoError(t, err)
	// Presence bit 8 lives in the second mask byte.
	require.Equal(t, byte(0x00), payload[0])
	require.Equal(t, byte(0x01), payload[1])
}

func TestDecodeRejectsUnknownEnumValue(t *testing.T) {
	payload, err := protocol.Encode(&protocol.ChatSend{Channel: protocol.ChannelParty, Text: "hi"})
	require.NoError(t, err)
	payload[0] = 0xee // channel discriminant

	_, err = protocol.Decode(protocol.TypeChatSend, payload)
	var unknown *wire.InvalidEnumError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, int64(0xee), unknown.Raw)
	require.Contains(t, err.Error(), "channel")
}

func TestDecodeRejectsUnknownNestedTag(t *testing.T) {
	payload, err := protocol.Encode(&protocol.InteractRequest{
		Seq: 1, Action: &protocol.Attack{Entity: 5},
	})
	require.NoError(t, err)
	payload[4] = 0x63 // varint action tag right after the seq field

	_, err = protocol.Decode(protocol.TypeInteractRequest, payload)
	var unknown *wire.InvalidEnumError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, int64(0x63), unknown.Raw)
	require.Contains(t, err.Error(), "action")
}

func TestDecodeErrorNamesFieldPath(t *testing.T) {
	m := &protocol.WindowItems{
		Window: 1, Revision: 2,
		Slots: []protocol.ItemStack{{Item: 1, Count: 2, CustomName: strptr("abc")}},
	}
	payload, err := protocol.Encode(m)
	require.NoError(t, err)
	truncated := payload[:len(payload)-2]

	_, err = protocol.Decode(protocol.TypeWindowItems, truncated)
	require.Error(t, err)
	require.Contains(t, err.Error(), "slots")
	require.Contains(t, err.Error(), "custom_name")
}

func TestStringBoundEnforced(t *testing.T) {
	long := make([]byte, protocol.MaxChatText+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := protocol.Encode(&protocol.ChatSend{Text: string(long)})
	var tooLong *wire.StringTooLongError
	require.ErrorAs(t, err, &tooLong)
	require.Equal(t, protocol.MaxChatText, tooLong.Limit)
}

func TestTargetSelectorDepthCapped(t *testing.T) {
	var anchor protocol.TargetSelector = &protocol.TargetSelf{}
	for i := 0; i < 64; i++ {
		anchor = &protocol.TargetOffset{Base: anchor}
	}
	payload, err := protocol.Encode(&protocol.CommandRequest{Seq: 1, Raw: "/x", Anchor: anchor})
	require.NoError(t, err)

	_, err = protocol.Decode(protocol.TypeCommandRequest, payload)
	require.Error(t, err)
	require.Contains(t, err.Error(), "nested deeper")
}
