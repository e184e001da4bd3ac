package protocol

import (
	"github.com/google/uuid"

	"github.com/veilgate-project/veilgate/internal/wire"
)

// ChatSend is a client chat line.
type ChatSend struct {
	Channel Channel
	Text    string
}

func (m *ChatSend) TypeID() uint32 { return TypeChatSend }

func (m *ChatSend) Layout() wire.Layout {
	return wire.Layout{Fields: []wire.Field{
		wire.EnumU8("channel", &m.Channel, ChannelSystem),
		wire.StrMax("text", &m.Text, MaxChatText),
	}}
}

// ChatBroadcast is a chat line fanned out by the server. Sender and
// SenderName are absent for system messages.
type ChatBroadcast struct {
	Channel    Channel
	Sender     *uuid.UUID
	SenderName *string
	Text       string
	Timestamp  int64
}

func (m *ChatBroadcast) TypeID() uint32 { return TypeChatBroadcast }

func (m *ChatBroadcast) Layout() wire.Layout {
	return wire.Layout{MaskLen: 1, Fields: []wire.Field{
		wire.EnumU8("channel", &m.Channel, ChannelSystem),
		wire.OptID("sender", 0, &m.Sender),
		wire.I64("timestamp", &m.Timestamp),
		wire.OptStrMax("sender_name", 1, &m.SenderName, MaxDisplayName),
		wire.StrMax("text", &m.Text, MaxChatText),
	}}
}

// CommandRequest is a slash command with pre-split arguments and an
// optional target anchor resolved client-side.
type CommandRequest struct {
	Seq    uint32
	Raw    string
	Args   []string
	Anchor TargetSelector
}

func (m *CommandRequest) TypeID() uint32 { return TypeCommandRequest }

func (m *CommandRequest) Layout() wire.Layout {
	return wire.Layout{MaskLen: 1, Fields: []wire.Field{
		wire.U32("seq", &m.Seq),
		wire.StrMax("raw", &m.Raw, MaxCommandText),
		wire.SeqOf("args", &m.Args, wire.EncodeString, wire.DecodeString),
		wire.OptVar("anchor", 0,
			func() bool { return m.Anchor != nil },
			func(w *wire.Writer) error { return writeTarget(w, m.Anchor) },
			func(r *wire.Reader) error {
				v, err := readTarget(r)
				if err != nil {
					return err
				}
				m.Anchor = v
				return nil
			}),
	}}
}

// ServerStatus is the periodic population and health beacon.
type ServerStatus struct {
	Players  uint32
	Capacity uint32
	Tick     uint64
	TPS      float32
	Tags     map[string]string
}

func (m *ServerStatus) TypeID() uint32 { return TypeServerStatus }

func (m *ServerStatus) Layout() wire.Layout {
	return wire.Layout{Fields: []wire.Field{
		wire.U32("players", &m.Players),
		wire.U32("capacity", &m.Capacity),
		wire.U64("tick", &m.Tick),
		wire.F32("tps", &m.TPS),
		wire.MapOf("tags", &m.Tags,
			wire.EncodeString, wire.DecodeString, wire.EncodeString, wire.DecodeString),
	}}
}
