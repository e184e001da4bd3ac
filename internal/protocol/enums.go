package protocol

// Channel selects which audience a chat line reaches.
type Channel uint8

const (
	ChannelGlobal Channel = iota
	ChannelLocal
	ChannelParty
	ChannelWhisper
	ChannelSystem
)

func (c Channel) String() string {
	switch c {
	case ChannelGlobal:
		return "global"
	case ChannelLocal:
		return "local"
	case ChannelParty:
		return "party"
	case ChannelWhisper:
		return "whisper"
	case ChannelSystem:
		return "system"
	default:
		return "unknown"
	}
}

// DisconnectReason is carried by Disconnect and PlayerLeave.
type DisconnectReason uint8

const (
	DisconnectQuit DisconnectReason = iota
	DisconnectKicked
	DisconnectTimeout
	DisconnectProtocolError
	DisconnectShutdown
)

func (d DisconnectReason) String() string {
	switch d {
	case DisconnectQuit:
		return "quit"
	case DisconnectKicked:
		return "kicked"
	case DisconnectTimeout:
		return "timeout"
	case DisconnectProtocolError:
		return "protocol_error"
	case DisconnectShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// GameMode is the play mode a player joins in.
type GameMode uint8

const (
	ModeSurvival GameMode = iota
	ModeCreative
	ModeSpectator
)

func (m GameMode) String() string {
	switch m {
	case ModeSurvival:
		return "survival"
	case ModeCreative:
		return "creative"
	case ModeSpectator:
		return "spectator"
	default:
		return "unknown"
	}
}

// WindowKind is the container layout a WindowOpen announces.
type WindowKind uint8

const (
	WindowInventory WindowKind = iota
	WindowChest
	WindowCrafting
	WindowFurnace
	WindowTrade
)

// ClickButton is the mouse action inside a window.
type ClickButton uint8

const (
	ClickLeft ClickButton = iota
	ClickRight
	ClickMiddle
)

// BlockFace identifies which face of a block an interaction touched.
type BlockFace uint8

const (
	FaceDown BlockFace = iota
	FaceUp
	FaceNorth
	FaceSouth
	FaceWest
	FaceEast
)

// InteractResult is the server's verdict on an interaction request.
type InteractResult uint8

const (
	ResultAccepted InteractResult = iota
	ResultRejected
	ResultOutOfRange
	ResultCooldown
)

func (r InteractResult) String() string {
	switch r {
	case ResultAccepted:
		return "accepted"
	case ResultRejected:
		return "rejected"
	case ResultOutOfRange:
		return "out_of_range"
	case ResultCooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// EntityKind is the two-byte class discriminant of a spawned entity.
type EntityKind uint16

const (
	KindPlayer EntityKind = iota
	KindCreature
	KindItem
	KindProjectile
	KindVehicle
	KindMarker
)

func (k EntityKind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindCreature:
		return "creature"
	case KindItem:
		return "item"
	case KindProjectile:
		return "projectile"
	case KindVehicle:
		return "vehicle"
	case KindMarker:
		return "marker"
	default:
		return "unknown"
	}
}
