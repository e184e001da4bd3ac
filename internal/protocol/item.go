package protocol

import (
	"github.com/veilgate-project/veilgate/internal/wire"
)

// ItemStack is one inventory slot's content. It carries a string field, so
// it has no canonical inline size and always travels in a variable block,
// either as a sequence element or behind its own presence bit. It is itself
// a masked record, nested inside whichever message carries it.
type ItemStack struct {
	Item       uint32
	Count      uint8
	Durability *uint16
	CustomName *string
}

func (s *ItemStack) layout() wire.Layout {
	return wire.Layout{MaskLen: 1, Fields: []wire.Field{
		wire.U32("item", &s.Item),
		wire.U8("count", &s.Count),
		wire.OptU16("durability", 0, &s.Durability),
		wire.OptStrMax("custom_name", 1, &s.CustomName, MaxItemName),
	}}
}

func (s *ItemStack) encode(w *wire.Writer) error {
	l := s.layout()
	return wire.EncodeRecord(w, &l)
}

func (s *ItemStack) decode(r *wire.Reader) error {
	l := s.layout()
	return wire.DecodeRecord(r, &l)
}
