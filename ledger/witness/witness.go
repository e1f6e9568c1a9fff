// Package witness implements the transaction witness set: signature
// witnesses, the script lists by language, the Plutus data set, and
// redeemers with their execution-unit accounting (spec section 4.5).
package witness

import (
	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/errs"
	"github.com/Salvionied/apollo/v2/ledger/common"
	"github.com/Salvionied/apollo/v2/ledger/nativescript"
	"github.com/Salvionied/apollo/v2/ledger/plutusdata"
)

// VKeyWitness pairs an Ed25519 public key with its signature over the
// transaction body hash.
type VKeyWitness struct {
	VKey      [32]byte
	Signature [64]byte
}

func (w VKeyWitness) WriteToCBOR(cw *cbor.Writer) {
	cw.WriteStartArray(2)
	cw.WriteBytestring(w.VKey[:])
	cw.WriteBytestring(w.Signature[:])
}

func (w *VKeyWitness) ReadFromCBOR(r *cbor.Reader) error {
	if err := r.ValidateArrayOfNElements("vkey_witness", 2); err != nil {
		return err
	}
	vkey, err := r.ReadByteString()
	if err != nil {
		return err
	}
	if len(vkey) != 32 {
		return errs.Newf(errs.KindInvalidEd25519PublicKeySize, "vkey_witness: expected 32-byte key, got %d", len(vkey))
	}
	sig, err := r.ReadByteString()
	if err != nil {
		return err
	}
	if len(sig) != 64 {
		return errs.Newf(errs.KindInvalidEd25519SignatureSize, "vkey_witness: expected 64-byte signature, got %d", len(sig))
	}
	copy(w.VKey[:], vkey)
	copy(w.Signature[:], sig)
	return r.ValidateEndArray("vkey_witness")
}

// BootstrapWitness is a Byron-era witness carrying the extra chain
// code and attributes needed to reconstruct a Byron address.
type BootstrapWitness struct {
	PublicKey  [32]byte
	Signature  [64]byte
	ChainCode  [32]byte
	Attributes []byte
}

func (w BootstrapWitness) WriteToCBOR(cw *cbor.Writer) {
	cw.WriteStartArray(4)
	cw.WriteBytestring(w.PublicKey[:])
	cw.WriteBytestring(w.Signature[:])
	cw.WriteBytestring(w.ChainCode[:])
	cw.WriteBytestring(w.Attributes)
}

func (w *BootstrapWitness) ReadFromCBOR(r *cbor.Reader) error {
	if err := r.ValidateArrayOfNElements("bootstrap_witness", 4); err != nil {
		return err
	}
	pk, err := r.ReadByteString()
	if err != nil {
		return err
	}
	sig, err := r.ReadByteString()
	if err != nil {
		return err
	}
	cc, err := r.ReadByteString()
	if err != nil {
		return err
	}
	attrs, err := r.ReadByteString()
	if err != nil {
		return err
	}
	if len(pk) != 32 || len(sig) != 64 || len(cc) != 32 {
		return errs.New(errs.KindInvalidArgument, "bootstrap_witness: malformed field sizes")
	}
	copy(w.PublicKey[:], pk)
	copy(w.Signature[:], sig)
	copy(w.ChainCode[:], cc)
	w.Attributes = attrs
	return r.ValidateEndArray("bootstrap_witness")
}

// RedeemerTag discriminates which part of the transaction a redeemer
// unlocks.
type RedeemerTag uint64

const (
	RedeemerTagSpend RedeemerTag = iota
	RedeemerTagMint
	RedeemerTagCert
	RedeemerTagReward
	RedeemerTagVoting
	RedeemerTagProposing
)

var redeemerTagNames = []string{"spend", "mint", "certifying", "reward", "voting", "proposing"}

func (t RedeemerTag) String() string {
	if int(t) < len(redeemerTagNames) {
		return redeemerTagNames[t]
	}
	return "unknown"
}

func validRedeemerTags() []RedeemerTag {
	return []RedeemerTag{RedeemerTagSpend, RedeemerTagMint, RedeemerTagCert, RedeemerTagReward, RedeemerTagVoting, RedeemerTagProposing}
}

// RedeemerKey identifies a redeemer by (tag, index); it is also the
// map key used by the Conway-era map-shaped redeemers encoding.
type RedeemerKey struct {
	Tag   RedeemerTag
	Index uint64
}

// ExUnits is the (memory, steps) execution-budget pair.
type ExUnits struct {
	Mem   int64
	Steps int64
}

func (e ExUnits) Add(o ExUnits) ExUnits {
	return ExUnits{Mem: e.Mem + o.Mem, Steps: e.Steps + o.Steps}
}

func (e ExUnits) WriteToCBOR(w *cbor.Writer) {
	w.WriteStartArray(2)
	w.WriteSignedInt(e.Mem)
	w.WriteSignedInt(e.Steps)
}

func (e *ExUnits) ReadFromCBOR(r *cbor.Reader) error {
	if err := r.ValidateArrayOfNElements("ex_units", 2); err != nil {
		return err
	}
	mem, err := r.ReadInt()
	if err != nil {
		return err
	}
	steps, err := r.ReadInt()
	if err != nil {
		return err
	}
	e.Mem = mem
	e.Steps = steps
	return r.ValidateEndArray("ex_units")
}

// Redeemer is a witness that unlocks a script input, carrying its
// execution-unit accounting.
type Redeemer struct {
	Tag     RedeemerTag
	Index   uint64
	Data    *plutusdata.Data
	ExUnits ExUnits
}

// WriteToCBOR writes the pre-Conway array-of-redeemer-record shape:
// `[tag, index, data, ex_units]`. The map-shaped Conway form is
// written by WitnessSet directly, keyed by RedeemerKey, since it has
// no per-element tag/index repetition.
func (r Redeemer) WriteToCBOR(w *cbor.Writer) {
	w.WriteStartArray(4)
	w.WriteUint(uint64(r.Tag))
	w.WriteUint(r.Index)
	r.Data.WriteToCBOR(w)
	r.ExUnits.WriteToCBOR(w)
}

func (red *Redeemer) ReadFromCBOR(r *cbor.Reader) error {
	if err := r.ValidateArrayOfNElements("redeemer", 4); err != nil {
		return err
	}
	tag, err := r.ReadUint()
	if err != nil {
		return err
	}
	if err := cbor.ValidateEnumValue("redeemer", "tag", RedeemerTag(tag), validRedeemerTags(), RedeemerTag.String); err != nil {
		return err
	}
	red.Tag = RedeemerTag(tag)
	index, err := r.ReadUint()
	if err != nil {
		return err
	}
	red.Index = index
	data, err := plutusdata.ReadFromCBOR(r)
	if err != nil {
		return err
	}
	red.Data = data
	if err := red.ExUnits.ReadFromCBOR(r); err != nil {
		return err
	}
	return r.ValidateEndArray("redeemer")
}

func (red Redeemer) Key() RedeemerKey { return RedeemerKey{Tag: red.Tag, Index: red.Index} }
