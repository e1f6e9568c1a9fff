// Package common holds the cross-cutting domain types shared by every
// other ledger/ package: Blake2b hash wrappers, addresses, credentials,
// and script references.
package common

import (
	"encoding/hex"

	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/errs"
	"golang.org/x/crypto/blake2b"
)

const (
	Blake2b160Size = 20
	Blake2b224Size = 28
	Blake2b256Size = 32
)

// Blake2b256 is a 32-byte Blake2b-256 digest, used for transaction ids,
// datum hashes, script-data hashes, and auxiliary-data hashes.
type Blake2b256 [Blake2b256Size]byte

func NewBlake2b256(data []byte) Blake2b256 {
	var b Blake2b256
	copy(b[:], data)
	return b
}

// HashBlake2b256 computes the Blake2b-256 digest of data.
func HashBlake2b256(data []byte) Blake2b256 {
	sum := blake2b.Sum256(data)
	return Blake2b256(sum)
}

func (b Blake2b256) String() string  { return hex.EncodeToString(b[:]) }
func (b Blake2b256) Bytes() []byte   { return b[:] }
func (b Blake2b256) IsZero() bool    { return b == Blake2b256{} }

// UnmarshalHex decodes a hex string into b, validating its length.
func (b *Blake2b256) UnmarshalHex(s string) error {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return errs.Wrap(errs.KindInvalidArgument, err, "blake2b-256: invalid hex")
	}
	if len(raw) != Blake2b256Size {
		return errs.Newf(errs.KindInvalidBlake2bSize, "expected %d bytes, got %d", Blake2b256Size, len(raw))
	}
	copy(b[:], raw)
	return nil
}

func (b Blake2b256) WriteToCBOR(w *cbor.Writer) { w.WriteBytestring(b[:]) }

func (b *Blake2b256) ReadFromCBOR(r *cbor.Reader) error {
	raw, err := r.ReadByteString()
	if err != nil {
		return err
	}
	if len(raw) != Blake2b256Size {
		return errs.Newf(errs.KindInvalidBlake2bSize, "expected %d bytes, got %d", Blake2b256Size, len(raw))
	}
	copy(b[:], raw)
	return nil
}

// Blake2b224 is a 28-byte Blake2b-224 digest, used for policy ids,
// script hashes, and key hashes.
type Blake2b224 [Blake2b224Size]byte

func NewBlake2b224(data []byte) Blake2b224 {
	var b Blake2b224
	copy(b[:], data)
	return b
}

func HashBlake2b224(data []byte) (Blake2b224, error) {
	h, err := blake2b.New(Blake2b224Size, nil)
	if err != nil {
		return Blake2b224{}, err
	}
	h.Write(data)
	return NewBlake2b224(h.Sum(nil)), nil
}

func (b Blake2b224) String() string { return hex.EncodeToString(b[:]) }
func (b Blake2b224) Bytes() []byte  { return b[:] }
func (b Blake2b224) IsZero() bool   { return b == Blake2b224{} }

// UnmarshalHex decodes a hex string into b, validating its length.
func (b *Blake2b224) UnmarshalHex(s string) error {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return errs.Wrap(errs.KindInvalidArgument, err, "blake2b-224: invalid hex")
	}
	if len(raw) != Blake2b224Size {
		return errs.Newf(errs.KindInvalidBlake2bSize, "expected %d bytes, got %d", Blake2b224Size, len(raw))
	}
	copy(b[:], raw)
	return nil
}

func (b Blake2b224) WriteToCBOR(w *cbor.Writer) { w.WriteBytestring(b[:]) }

func (b *Blake2b224) ReadFromCBOR(r *cbor.Reader) error {
	raw, err := r.ReadByteString()
	if err != nil {
		return err
	}
	if len(raw) != Blake2b224Size {
		return errs.Newf(errs.KindInvalidBlake2bSize, "expected %d bytes, got %d", Blake2b224Size, len(raw))
	}
	copy(b[:], raw)
	return nil
}

// Blake2b160 is a 20-byte Blake2b-160 digest, used for asset
// fingerprints and Byron/Shelley payment-address hashes.
type Blake2b160 [Blake2b160Size]byte

func NewBlake2b160(data []byte) Blake2b160 {
	var b Blake2b160
	copy(b[:], data)
	return b
}

func (b Blake2b160) String() string { return hex.EncodeToString(b[:]) }
func (b Blake2b160) Bytes() []byte  { return b[:] }

// AssetFingerprint identifies a (policy, asset name) pair with a
// Blake2b-160 digest, matching CIP-14.
type AssetFingerprint struct {
	PolicyId  []byte
	AssetName []byte
}

func NewAssetFingerprint(policyId, assetName []byte) AssetFingerprint {
	return AssetFingerprint{PolicyId: policyId, AssetName: assetName}
}

func (a AssetFingerprint) Hash() Blake2b160 {
	h, err := blake2b.New(Blake2b160Size, nil)
	if err != nil {
		// Fixed digest size/key never fails to construct.
		panic(err)
	}
	h.Write(a.PolicyId)
	h.Write(a.AssetName)
	return NewBlake2b160(h.Sum(nil))
}
