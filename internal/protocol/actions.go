package protocol

import (
	"errors"

	"github.com/veilgate-project/veilgate/internal/wire"
)

var errNoVariant = errors.New("variant value not set")

// Interaction is the client's declared use of an item, block, or entity.
// Exactly one concrete case is carried per InteractionRequest, prefixed on
// the wire by a varint case tag.
type Interaction interface {
	isInteraction()
}

const (
	tagUseItem int32 = iota
	tagUseBlock
	tagAttack
	tagHarvest
	tagDropItem
)

// UseItem activates the item held in a hotbar slot.
type UseItem struct {
	Slot uint8
	Hand uint8
}

// UseBlock interacts with a block face, with an optional sub-block cursor
// position for placement fine-tuning.
type UseBlock struct {
	Pos    IVec3
	Face   BlockFace
	Cursor *Vec3
}

// Attack targets an entity with the held item.
type Attack struct {
	Entity uint64
}

// Harvest starts breaking the block at Pos.
type Harvest struct {
	Pos IVec3
}

// DropItem discards one item, or a whole stack, from a slot.
type DropItem struct {
	Slot uint8
	All  bool
}

func (*UseItem) isInteraction()  {}
func (*UseBlock) isInteraction() {}
func (*Attack) isInteraction()   {}
func (*Harvest) isInteraction()  {}
func (*DropItem) isInteraction() {}

func writeInteraction(w *wire.Writer, v Interaction) error {
	switch x := v.(type) {
	case *UseItem:
		return wire.WriteVariant(w, tagUseItem, func(w *wire.Writer) error {
			w.U8(x.Slot).U8(x.Hand)
			return nil
		})
	case *UseBlock:
		return wire.WriteVariant(w, tagUseBlock, func(w *wire.Writer) error {
			if err := x.Pos.encode(w); err != nil {
				return err
			}
			w.U8(uint8(x.Face))
			return wire.WriteOption(w, x.Cursor, (*Vec3).encode)
		})
	case *Attack:
		return wire.WriteVariant(w, tagAttack, func(w *wire.Writer) error {
			w.U64(x.Entity)
			return nil
		})
	case *Harvest:
		return wire.WriteVariant(w, tagHarvest, func(w *wire.Writer) error {
			return x.Pos.encode(w)
		})
	case *DropItem:
		return wire.WriteVariant(w, tagDropItem, func(w *wire.Writer) error {
			w.U8(x.Slot).Bool(x.All)
			return nil
		})
	default:
		return errNoVariant
	}
}

func readInteraction(r *wire.Reader) (Interaction, error) {
	var out Interaction
	err := wire.ReadVariant(r, func(tag int32) func(*wire.Reader) error {
		switch tag {
		case tagUseItem:
			return func(r *wire.Reader) error {
				var x UseItem
				if err := wire.DecodeU8(&x.Slot, r); err != nil {
					return err
				}
				if err := wire.DecodeU8(&x.Hand, r); err != nil {
					return err
				}
				out = &x
				return nil
			}
		case tagUseBlock:
			return func(r *wire.Reader) error {
				var x UseBlock
				if err := x.Pos.decode(r); err != nil {
					return err
				}
				face, err := wire.Enum8(r, FaceEast)
				if err != nil {
					return err
				}
				x.Face = face
				if x.Cursor, err = wire.ReadOption(r, (*Vec3).decode); err != nil {
					return err
				}
				out = &x
				return nil
			}
		case tagAttack:
			return func(r *wire.Reader) error {
				var x Attack
				if err := wire.DecodeU64(&x.Entity, r); err != nil {
					return err
				}
				out = &x
				return nil
			}
		case tagHarvest:
			return func(r *wire.Reader) error {
				var x Harvest
				if err := x.Pos.decode(r); err != nil {
					return err
				}
				out = &x
				return nil
			}
		case tagDropItem:
			return func(r *wire.Reader) error {
				var x DropItem
				if err := wire.DecodeU8(&x.Slot, r); err != nil {
					return err
				}
				if err := wire.DecodeBool(&x.All, r); err != nil {
					return err
				}
				out = &x
				return nil
			}
		default:
			return nil
		}
	})
	return out, err
}

// WindowOp is one manipulation of an open container window.
type WindowOp interface {
	isWindowOp()
}

const (
	tagClick int32 = iota
	tagDrag
	tagSwapHands
	tagCloseWindow
)

// Click handles a single slot click.
type Click struct {
	Slot   uint16
	Button ClickButton
}

// Drag distributes the carried stack across several slots.
type Drag struct {
	Slots  []uint16
	Button ClickButton
}

// SwapHands exchanges main and off hand items.
type SwapHands struct{}

// CloseWindow dismisses the window client-side.
type CloseWindow struct{}

func (*Click) isWindowOp()       {}
func (*Drag) isWindowOp()        {}
func (*SwapHands) isWindowOp()   {}
func (*CloseWindow) isWindowOp() {}

func writeWindowOp(w *wire.Writer, v WindowOp) error {
	switch x := v.(type) {
	case *Click:
		return wire.WriteVariant(w, tagClick, func(w *wire.Writer) error {
			w.U16(x.Slot).U8(uint8(x.Button))
			return nil
		})
	case *Drag:
		return wire.WriteVariant(w, tagDrag, func(w *wire.Writer) error {
			if err := wire.WriteSeq(w, x.Slots, wire.EncodeU16); err != nil {
				return err
			}
			w.U8(uint8(x.Button))
			return nil
		})
	case *SwapHands:
		return wire.WriteVariant(w, tagSwapHands, func(*wire.Writer) error { return nil })
	case *CloseWindow:
		return wire.WriteVariant(w, tagCloseWindow, func(*wire.Writer) error { return nil })
	default:
		return errNoVariant
	}
}

func readWindowOp(r *wire.Reader) (WindowOp, error) {
	var out WindowOp
	err := wire.ReadVariant(r, func(tag int32) func(*wire.Reader) error {
		switch tag {
		case tagClick:
			return func(r *wire.Reader) error {
				var x Click
				if err := wire.DecodeU16(&x.Slot, r); err != nil {
					return err
				}
				btn, err := wire.Enum8(r, ClickMiddle)
				if err != nil {
					return err
				}
				x.Button = btn
				out = &x
				return nil
			}
		case tagDrag:
			return func(r *wire.Reader) error {
				var x Drag
				slots, err := wire.ReadSeq(r, wire.DecodeU16)
				if err != nil {
					return err
				}
				x.Slots = slots
				btn, err := wire.Enum8(r, ClickMiddle)
				if err != nil {
					return err
				}
				x.Button = btn
				out = &x
				return nil
			}
		case tagSwapHands:
			return func(*wire.Reader) error {
				out = &SwapHands{}
				return nil
			}
		case tagCloseWindow:
			return func(*wire.Reader) error {
				out = &CloseWindow{}
				return nil
			}
		default:
			return nil
		}
	})
	return out, err
}
