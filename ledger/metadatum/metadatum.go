// Package metadatum implements transaction-metadata values: the
// {map, list, integer, bytes, text} tagged sum with its bounded-size
// write-time limits and its JSON bridge (spec section 4.6).
package metadatum

import (
	"math/big"

	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/errs"
)

// maxBoundedSize is the largest a bytes or text metadatum may be; the
// limit is enforced on write only (reads accept whatever a
// counterparty already put on chain).
const maxBoundedSize = 64

// Kind discriminates the five metadatum variants.
type Kind int

const (
	KindMap Kind = iota
	KindList
	KindInt
	KindBytes
	KindText
)

// Metadatum is the recursive {map, list, integer, bytes, text} sum
// carried in transaction auxiliary data.
type Metadatum struct {
	Kind Kind

	MapEntries []MapEntry
	ListItems  []*Metadatum
	Int        *big.Int
	Bytes      []byte
	Text       string
}

// MapEntry is one (key, value) pair of a metadatum map; the key is
// itself an arbitrary metadatum, not necessarily text.
type MapEntry struct {
	Key   *Metadatum
	Value *Metadatum
}

func NewMap(entries []MapEntry) *Metadatum { return &Metadatum{Kind: KindMap, MapEntries: entries} }
func NewList(items []*Metadatum) *Metadatum { return &Metadatum{Kind: KindList, ListItems: items} }
func NewInt(v *big.Int) *Metadatum          { return &Metadatum{Kind: KindInt, Int: v} }
func NewIntFromInt64(v int64) *Metadatum    { return &Metadatum{Kind: KindInt, Int: big.NewInt(v)} }
func NewBytes(b []byte) *Metadatum          { return &Metadatum{Kind: KindBytes, Bytes: b} }
func NewText(s string) *Metadatum           { return &Metadatum{Kind: KindText, Text: s} }

func (m *Metadatum) Equal(o *Metadatum) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.Kind != o.Kind {
		return false
	}
	switch m.Kind {
	case KindMap:
		if len(m.MapEntries) != len(o.MapEntries) {
			return false
		}
		for i, e := range m.MapEntries {
			if !e.Key.Equal(o.MapEntries[i].Key) || !e.Value.Equal(o.MapEntries[i].Value) {
				return false
			}
		}
		return true
	case KindList:
		if len(m.ListItems) != len(o.ListItems) {
			return false
		}
		for i, it := range m.ListItems {
			if !it.Equal(o.ListItems[i]) {
				return false
			}
		}
		return true
	case KindInt:
		return m.Int.Cmp(o.Int) == 0
	case KindBytes:
		return string(m.Bytes) == string(o.Bytes)
	case KindText:
		return m.Text == o.Text
	default:
		return false
	}
}

func (m *Metadatum) WriteToCBOR(w *cbor.Writer) error {
	switch m.Kind {
	case KindMap:
		w.WriteStartMap(uint64(len(m.MapEntries)))
		for _, e := range m.MapEntries {
			if err := e.Key.WriteToCBOR(w); err != nil {
				return err
			}
			if err := e.Value.WriteToCBOR(w); err != nil {
				return err
			}
		}
		return nil
	case KindList:
		w.WriteStartArray(uint64(len(m.ListItems)))
		for _, it := range m.ListItems {
			if err := it.WriteToCBOR(w); err != nil {
				return err
			}
		}
		return nil
	case KindInt:
		w.WriteBigint(m.Int)
		return nil
	case KindBytes:
		if len(m.Bytes) > maxBoundedSize {
			return errs.Newf(errs.KindInvalidMetadatumBoundedBytesSize, "metadatum: bytes length %d exceeds %d", len(m.Bytes), maxBoundedSize)
		}
		w.WriteBytestring(m.Bytes)
		return nil
	case KindText:
		if len(m.Text) > maxBoundedSize {
			return errs.Newf(errs.KindInvalidMetadatumTextStringSize, "metadatum: text length %d exceeds %d", len(m.Text), maxBoundedSize)
		}
		w.WriteTextstring(m.Text)
		return nil
	default:
		return errs.New(errs.KindInvalidArgument, "metadatum: unknown kind")
	}
}

func ReadFromCBOR(r *cbor.Reader) (*Metadatum, error) {
	st, err := r.PeekState()
	if err != nil {
		return nil, err
	}
	switch st {
	case cbor.StateStartMap:
		n, err := r.ReadStartMap()
		if err != nil {
			return nil, err
		}
		var entries []MapEntry
		for {
			if n != nil && uint64(len(entries)) >= *n {
				break
			}
			if n == nil {
				s2, err := r.PeekState()
				if err != nil {
					return nil, err
				}
				if s2 == cbor.StateEndMap {
					break
				}
			}
			key, err := ReadFromCBOR(r)
			if err != nil {
				return nil, err
			}
			val, err := ReadFromCBOR(r)
			if err != nil {
				return nil, err
			}
			entries = append(entries, MapEntry{Key: key, Value: val})
		}
		if err := r.ReadEndMap(); err != nil {
			return nil, err
		}
		return NewMap(entries), nil
	case cbor.StateStartArray:
		n, err := r.ReadStartArray()
		if err != nil {
			return nil, err
		}
		var items []*Metadatum
		for {
			if n != nil && uint64(len(items)) >= *n {
				break
			}
			if n == nil {
				s2, err := r.PeekState()
				if err != nil {
					return nil, err
				}
				if s2 == cbor.StateEndArray {
					break
				}
			}
			item, err := ReadFromCBOR(r)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		if err := r.ReadEndArray(); err != nil {
			return nil, err
		}
		return NewList(items), nil
	case cbor.StateUnsignedInt, cbor.StateNegativeInt, cbor.StateTag:
		v, err := r.ReadBigint()
		if err != nil {
			return nil, err
		}
		return NewInt(v), nil
	case cbor.StateByteString:
		b, err := r.ReadByteString()
		if err != nil {
			return nil, err
		}
		return NewBytes(b), nil
	case cbor.StateTextString:
		s, err := r.ReadTextString()
		if err != nil {
			return nil, err
		}
		return NewText(s), nil
	default:
		return nil, errs.Newf(errs.KindUnexpectedCBORType, "metadatum: unexpected cbor state %s", st)
	}
}
