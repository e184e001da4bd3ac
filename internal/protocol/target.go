package protocol

import (
	"fmt"

	"github.com/veilgate-project/veilgate/internal/wire"
)

// TargetSelector names what a command acts on. The Offset case chains onto
// another selector, which keeps the type recursive; the interface edge gives
// it a finite in-memory size and the wire form is simply nested tags.
type TargetSelector interface {
	isTarget()
}

const (
	tagTargetSelf int32 = iota
	tagTargetEntity
	tagTargetBlock
	tagTargetOffset
)

// maxTargetDepth bounds selector chains so a hostile payload cannot recurse
// the decoder arbitrarily deep.
const maxTargetDepth = 32

// TargetSelf aims at the sending player.
type TargetSelf struct{}

// TargetEntity aims at one entity by runtime id.
type TargetEntity struct {
	ID uint64
}

// TargetBlock aims at a block position.
type TargetBlock struct {
	Pos IVec3
}

// TargetOffset displaces another selector by a relative delta.
type TargetOffset struct {
	Base  TargetSelector
	Delta Vec3
}

func (*TargetSelf) isTarget()   {}
func (*TargetEntity) isTarget() {}
func (*TargetBlock) isTarget()  {}
func (*TargetOffset) isTarget() {}

func writeTarget(w *wire.Writer, v TargetSelector) error {
	switch x := v.(type) {
	case *TargetSelf:
		return wire.WriteVariant(w, tagTargetSelf, func(*wire.Writer) error { return nil })
	case *TargetEntity:
		return wire.WriteVariant(w, tagTargetEntity, func(w *wire.Writer) error {
			w.U64(x.ID)
			return nil
		})
	case *TargetBlock:
		return wire.WriteVariant(w, tagTargetBlock, func(w *wire.Writer) error {
			return x.Pos.encode(w)
		})
	case *TargetOffset:
		return wire.WriteVariant(w, tagTargetOffset, func(w *wire.Writer) error {
			if err := writeTarget(w, x.Base); err != nil {
				return err
			}
			return x.Delta.encode(w)
		})
	default:
		return errNoVariant
	}
}

func readTarget(r *wire.Reader) (TargetSelector, error) {
	return readTargetDepth(r, 0)
}

func readTargetDepth(r *wire.Reader, depth int) (TargetSelector, error) {
	if depth >= maxTargetDepth {
		return nil, fmt.Errorf("selector nested deeper than %d levels", maxTargetDepth)
	}
	var out TargetSelector
	err := wire.ReadVariant(r, func(tag int32) func(*wire.Reader) error {
		switch tag {
		case tagTargetSelf:
			return func(*wire.Reader) error {
				out = &TargetSelf{}
				return nil
			}
		case tagTargetEntity:
			return func(r *wire.Reader) error {
				var x TargetEntity
				if err := wire.DecodeU64(&x.ID, r); err != nil {
					return err
				}
				out = &x
				return nil
			}
		case tagTargetBlock:
			return func(r *wire.Reader) error {
				var x TargetBlock
				if err := x.Pos.decode(r); err != nil {
					return err
				}
				out = &x
				return nil
			}
		case tagTargetOffset:
			return func(r *wire.Reader) error {
				var x TargetOffset
				base, err := readTargetDepth(r, depth+1)
				if err != nil {
					return err
				}
				x.Base = base
				if err := x.Delta.decode(r); err != nil {
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
