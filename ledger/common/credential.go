package common

import (
	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/errs"
)

// CredentialKind discriminates the two Credential variants.
type CredentialKind uint64

const (
	CredentialKeyHash CredentialKind = iota
	CredentialScriptHash
)

// Credential is the tagged sum `credential = [0, key_hash] / [1,
// script_hash]` used throughout certificates, governance actions, and
// script contexts.
type Credential struct {
	Kind CredentialKind
	Hash Blake2b224
}

func NewKeyHashCredential(h Blake2b224) Credential {
	return Credential{Kind: CredentialKeyHash, Hash: h}
}

func NewScriptHashCredential(h Blake2b224) Credential {
	return Credential{Kind: CredentialScriptHash, Hash: h}
}

func (c Credential) Equal(o Credential) bool {
	return c.Kind == o.Kind && c.Hash == o.Hash
}

func (c Credential) WriteToCBOR(w *cbor.Writer) {
	w.WriteStartArray(2)
	w.WriteUint(uint64(c.Kind))
	c.Hash.WriteToCBOR(w)
}

func (c *Credential) ReadFromCBOR(r *cbor.Reader) error {
	if err := r.ValidateArrayOfNElements("credential", 2); err != nil {
		return err
	}
	kind, err := r.ReadUint()
	if err != nil {
		return err
	}
	if kind != uint64(CredentialKeyHash) && kind != uint64(CredentialScriptHash) {
		return errs.Newf(errs.KindInvalidCBORValue, "credential: unexpected kind %d", kind)
	}
	c.Kind = CredentialKind(kind)
	if err := c.Hash.ReadFromCBOR(r); err != nil {
		return err
	}
	return r.ValidateEndArray("credential")
}
