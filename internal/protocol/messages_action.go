package protocol

import (
	"github.com/veilgate-project/veilgate/internal/wire"
)

// InteractRequest submits one client interaction for server arbitration.
// The sequence number comes back in the matching InteractAck.
type InteractRequest struct {
	Seq    uint32
	Action Interaction
}

func (m *InteractRequest) TypeID() uint32 { return TypeInteractRequest }

func (m *InteractRequest) Layout() wire.Layout {
	return wire.Layout{Fields: []wire.Field{
		wire.U32("seq", &m.Seq),
		wire.ReqVar("action",
			func(w *wire.Writer) error { return writeInteraction(w, m.Action) },
			func(r *wire.Reader) error {
				v, err := readInteraction(r)
				if err != nil {
					return err
				}
				m.Action = v
				return nil
			}),
	}}
}

// InteractAck resolves an InteractRequest.
type InteractAck struct {
	Seq    uint32
	Result InteractResult
	Tick   uint64
}

func (m *InteractAck) TypeID() uint32 { return TypeInteractAck }

func (m *InteractAck) Layout() wire.Layout {
	return wire.Layout{Fields: []wire.Field{
		wire.U32("seq", &m.Seq),
		wire.EnumU8("result", &m.Result, ResultCooldown),
		wire.U64("tick", &m.Tick),
	}}
}

// WindowOpen tells the client to display a container window.
type WindowOpen struct {
	Window uint8
	Kind   WindowKind
	Title  string
}

func (m *WindowOpen) TypeID() uint32 { return TypeWindowOpen }

func (m *WindowOpen) Layout() wire.Layout {
	return wire.Layout{Fields: []wire.Field{
		wire.U8("window", &m.Window),
		wire.EnumU8("kind", &m.Kind, WindowTrade),
		wire.StrMax("title", &m.Title, MaxWindowTitle),
	}}
}

// WindowAction submits one window manipulation.
type WindowAction struct {
	Window uint8
	Seq    uint32
	Op     WindowOp
}

func (m *WindowAction) TypeID() uint32 { return TypeWindowAction }

func (m *WindowAction) Layout() wire.Layout {
	return wire.Layout{Fields: []wire.Field{
		wire.U8("window", &m.Window),
		wire.U32("seq", &m.Seq),
		wire.ReqVar("op",
			func(w *wire.Writer) error { return writeWindowOp(w, m.Op) },
			func(r *wire.Reader) error {
				v, err := readWindowOp(r)
				if err != nil {
					return err
				}
				m.Op = v
				return nil
			}),
	}}
}

// WindowItems replaces the full contents of a window, slot by slot, plus
// the stack carried on the cursor if any.
type WindowItems struct {
	Window   uint8
	Revision uint32
	Slots    []ItemStack
	Carried  *ItemStack
}

func (m *WindowItems) TypeID() uint32 { return TypeWindowItems }

func (m *WindowItems) Layout() wire.Layout {
	return wire.Layout{MaskLen: 1, Fields: []wire.Field{
		wire.U8("window", &m.Window),
		wire.U32("revision", &m.Revision),
		wire.SeqOf("slots", &m.Slots, (*ItemStack).encode, (*ItemStack).decode),
		wire.OptVar("carried", 0,
			func() bool { return m.Carried != nil },
			func(w *wire.Writer) error { return m.Carried.encode(w) },
			func(r *wire.Reader) error {
				var s ItemStack
				if err := s.decode(r); err != nil {
					return err
				}
				m.Carried = &s
				return nil
			}),
	}}
}

// WindowResult accepts or rejects one WindowAction sequence number.
type WindowResult struct {
	Window   uint8
	Seq      uint32
	Accepted bool
}

func (m *WindowResult) TypeID() uint32 { return TypeWindowResult }

func (m *WindowResult) Layout() wire.Layout {
	return wire.Layout{Fields: []wire.Field{
		wire.U8("window", &m.Window),
		wire.U32("seq", &m.Seq),
		wire.Bool("accepted", &m.Accepted),
	}}
}
