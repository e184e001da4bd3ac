package protocol

import (
	"github.com/google/uuid"

	"github.com/veilgate-project/veilgate/internal/wire"
)

// ClientHello opens a session and is the first message on every connection.
type ClientHello struct {
	Protocol    uint32
	Locale      string
	DisplayName string
	AuthToken   []byte
	Features    []string
}

func (m *ClientHello) TypeID() uint32 { return TypeClientHello }

func (m *ClientHello) Layout() wire.Layout {
	return wire.Layout{MaskLen: 1, Fields: []wire.Field{
		wire.U32("protocol", &m.Protocol),
		wire.ASCIIBlock("locale", &m.Locale, 8),
		wire.StrMax("display_name", &m.DisplayName, MaxDisplayName),
		wire.OptVar("auth_token", 0,
			func() bool { return m.AuthToken != nil },
			func(w *wire.Writer) error { return w.BoundedBlob(m.AuthToken, MaxAuthToken) },
			func(r *wire.Reader) error {
				p, err := r.BoundedBlob(MaxAuthToken)
				if err != nil {
					return err
				}
				m.AuthToken = p
				return nil
			}),
		wire.SeqOf("features", &m.Features, wire.EncodeString, wire.DecodeString),
	}}
}

// HelloAck accepts or rejects a ClientHello.
type HelloAck struct {
	Session     uuid.UUID
	Accepted    bool
	HeartbeatMS uint16
	World       string
	MOTD        *string
}

func (m *HelloAck) TypeID() uint32 { return TypeHelloAck }

func (m *HelloAck) Layout() wire.Layout {
	return wire.Layout{MaskLen: 1, Fields: []wire.Field{
		wire.ID("session", &m.Session),
		wire.Bool("accepted", &m.Accepted),
		wire.U16("heartbeat_ms", &m.HeartbeatMS),
		wire.StrMax("world", &m.World, MaxWorldName),
		wire.OptStrMax("motd", 0, &m.MOTD, MaxMOTD),
	}}
}

// Ping carries a client nonce and send timestamp.
type Ping struct {
	Nonce  uint64
	SentAt int64
}

func (m *Ping) TypeID() uint32 { return TypePing }

func (m *Ping) Layout() wire.Layout {
	return wire.Layout{Fields: []wire.Field{
		wire.U64("nonce", &m.Nonce),
		wire.I64("sent_at", &m.SentAt),
	}}
}

// Pong answers a Ping with the original nonce plus the server clock.
type Pong struct {
	Nonce      uint64
	SentAt     int64
	ServerTime int64
}

func (m *Pong) TypeID() uint32 { return TypePong }

func (m *Pong) Layout() wire.Layout {
	return wire.Layout{Fields: []wire.Field{
		wire.U64("nonce", &m.Nonce),
		wire.I64("sent_at", &m.SentAt),
		wire.I64("server_time", &m.ServerTime),
	}}
}

// Disconnect ends the session in either direction.
type Disconnect struct {
	Reason DisconnectReason
	Detail *string
}

func (m *Disconnect) TypeID() uint32 { return TypeDisconnect }

func (m *Disconnect) Layout() wire.Layout {
	return wire.Layout{MaskLen: 1, Fields: []wire.Field{
		wire.EnumU8("reason", &m.Reason, DisconnectShutdown),
		wire.OptStrMax("detail", 0, &m.Detail, MaxDetailText),
	}}
}
