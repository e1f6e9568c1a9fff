// Package value implements the multi-asset Value domain model of
// spec section 4.3: asset identity, the asset-name/policy/value
// container hierarchy, and add/subtract arithmetic.
package value

import (
	"encoding/hex"

	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/errs"
	"github.com/Salvionied/apollo/v2/ledger/common"
)

// AssetNameMaxLen is the maximum length of an asset name, in bytes.
const AssetNameMaxLen = 32

// AssetName is an opaque, up-to-32-byte native asset name. It is kept
// as a string so it can key a Go map while remaining comparable and
// byte-safe for non-UTF8 names.
type AssetName string

// NewAssetName validates and wraps raw bytes as an AssetName.
func NewAssetName(raw []byte) (AssetName, error) {
	if len(raw) > AssetNameMaxLen {
		return "", errs.Newf(errs.KindInvalidArgument, "asset name exceeds %d bytes", AssetNameMaxLen)
	}
	return AssetName(raw), nil
}

func (n AssetName) Bytes() []byte  { return []byte(n) }
func (n AssetName) Hex() string    { return hex.EncodeToString(n.Bytes()) }
func (n AssetName) Less(o AssetName) bool { return string(n) < string(o) }

// PolicyId is the 28-byte Blake2b-224 hash identifying a minting
// policy (equivalently, a native or Plutus script hash).
type PolicyId = common.Blake2b224

// LovelacePseudoAsset is the pseudo-asset name reserved for the ADA
// coin; it never appears inside a MultiAsset map (ADA is carried in
// Value.Coin), but callers building Unit-style (policy, name) pairs
// from user input recognize this sentinel.
const LovelacePseudoAsset = "lovelace"

// AssetId identifies a native asset by (policy, name).
type AssetId struct {
	Policy PolicyId
	Name   AssetName
}

func NewAssetId(policy PolicyId, name AssetName) AssetId {
	return AssetId{Policy: policy, Name: name}
}

func (a AssetId) Fingerprint() common.Blake2b160 {
	return common.NewAssetFingerprint(a.Policy.Bytes(), a.Name.Bytes()).Hash()
}

// ReadAssetNameFromCBOR reads a bounded asset name byte string.
func ReadAssetNameFromCBOR(r *cbor.Reader) (AssetName, error) {
	raw, err := r.ReadByteString()
	if err != nil {
		return "", err
	}
	return NewAssetName(raw)
}

func WriteAssetNameToCBOR(w *cbor.Writer, n AssetName) { w.WriteBytestring(n.Bytes()) }
