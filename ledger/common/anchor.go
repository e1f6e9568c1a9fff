package common

import (
	"github.com/Salvionied/apollo/v2/cbor"
)

// Anchor is the off-chain (url, content-hash) reference attached to
// governance actions, DRep registrations, and committee updates.
type Anchor struct {
	Url  string
	Hash Blake2b256
}

func NewAnchor(url string, hash Blake2b256) Anchor {
	return Anchor{Url: url, Hash: hash}
}

func (a Anchor) Equal(o Anchor) bool {
	return a.Url == o.Url && a.Hash == o.Hash
}

func (a Anchor) WriteToCBOR(w *cbor.Writer) {
	w.WriteStartArray(2)
	w.WriteTextstring(a.Url)
	a.Hash.WriteToCBOR(w)
}

func (a *Anchor) ReadFromCBOR(r *cbor.Reader) error {
	if err := r.ValidateArrayOfNElements("anchor", 2); err != nil {
		return err
	}
	url, err := r.ReadTextString()
	if err != nil {
		return err
	}
	a.Url = url
	if err := a.Hash.ReadFromCBOR(r); err != nil {
		return err
	}
	return r.ValidateEndArray("anchor")
}

// WriteAnchorOrNull writes either the anchor or CBOR null, matching
// the `anchor / null` shape used by certificates where the anchor is
// optional.
func WriteAnchorOrNull(w *cbor.Writer, a *Anchor) {
	if a == nil {
		w.WriteNull()
		return
	}
	a.WriteToCBOR(w)
}

// ReadAnchorOrNull reads either an anchor or CBOR null.
func ReadAnchorOrNull(r *cbor.Reader) (*Anchor, error) {
	st, err := r.PeekState()
	if err != nil {
		return nil, err
	}
	if st == cbor.StateNull {
		if err := r.ReadNull(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	var a Anchor
	if err := a.ReadFromCBOR(r); err != nil {
		return nil, err
	}
	return &a, nil
}
