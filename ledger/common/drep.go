package common

import (
	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/errs"
)

// DrepKind discriminates the four DRep variants of Conway-era
// governance.
type DrepKind uint64

const (
	DrepKeyHash DrepKind = iota
	DrepScriptHash
	DrepAlwaysAbstain
	DrepAlwaysNoConfidence
)

// Drep identifies a delegated representative: either a credential (key
// or script hash) or one of the two predefined abstentions.
type Drep struct {
	Kind DrepKind
	Hash Blake2b224 // meaningful only for DrepKeyHash/DrepScriptHash
}

func NewDrepFromKeyHash(h Blake2b224) Drep    { return Drep{Kind: DrepKeyHash, Hash: h} }
func NewDrepFromScriptHash(h Blake2b224) Drep { return Drep{Kind: DrepScriptHash, Hash: h} }
func NewDrepAlwaysAbstain() Drep              { return Drep{Kind: DrepAlwaysAbstain} }
func NewDrepAlwaysNoConfidence() Drep         { return Drep{Kind: DrepAlwaysNoConfidence} }

func (d Drep) Equal(o Drep) bool {
	if d.Kind != o.Kind {
		return false
	}
	switch d.Kind {
	case DrepKeyHash, DrepScriptHash:
		return d.Hash == o.Hash
	default:
		return true
	}
}

func (d Drep) WriteToCBOR(w *cbor.Writer) {
	switch d.Kind {
	case DrepKeyHash, DrepScriptHash:
		w.WriteStartArray(2)
		w.WriteUint(uint64(d.Kind))
		d.Hash.WriteToCBOR(w)
	default:
		w.WriteStartArray(1)
		w.WriteUint(uint64(d.Kind))
	}
}

func (d *Drep) ReadFromCBOR(r *cbor.Reader) error {
	n, err := r.ReadStartArray()
	if err != nil {
		return err
	}
	kind, err := r.ReadUint()
	if err != nil {
		return err
	}
	d.Kind = DrepKind(kind)
	switch d.Kind {
	case DrepKeyHash, DrepScriptHash:
		if n != nil && *n != 2 {
			return errs.Newf(errs.KindInvalidCBORArraySize, "drep: expected 2 elements for kind %d", kind)
		}
		if err := d.Hash.ReadFromCBOR(r); err != nil {
			return err
		}
	case DrepAlwaysAbstain, DrepAlwaysNoConfidence:
		if n != nil && *n != 1 {
			return errs.Newf(errs.KindInvalidCBORArraySize, "drep: expected 1 element for kind %d", kind)
		}
	default:
		return errs.Newf(errs.KindInvalidCBORValue, "drep: unknown kind %d", kind)
	}
	return r.ReadEndArray()
}
