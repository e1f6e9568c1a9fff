package apollo

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/ledger/common"
	"github.com/Salvionied/apollo/v2/ledger/nativescript"
	"github.com/Salvionied/apollo/v2/ledger/plutusdata"
	"github.com/Salvionied/apollo/v2/ledger/txbody"
	"github.com/Salvionied/apollo/v2/ledger/value"
	"github.com/Salvionied/apollo/v2/ledger/witness"
)

// NewBabbageOutputSimple creates a TransactionOutput with just an address and lovelace.
func NewBabbageOutputSimple(addr common.Address, coin int64) txbody.TransactionOutput {
	return txbody.NewSimpleOutput(addr, coin)
}

// NewBabbageOutput creates a TransactionOutput with full options.
func NewBabbageOutput(
	addr common.Address,
	amount value.Value,
	datumOpt *txbody.DatumOption,
	scriptRef *common.ScriptRef,
) txbody.TransactionOutput {
	return txbody.TransactionOutput{
		Address:     addr,
		Amount:      amount,
		DatumOption: datumOpt,
		ScriptRef:   scriptRef,
	}
}

// NewNativeScriptPubkey creates a NativeScript requiring a specific key hash.
func NewNativeScriptPubkey(keyHash common.Blake2b224) (*nativescript.Script, error) {
	return nativescript.RequirePubkey(keyHash), nil
}

// NewNativeScriptAll creates a NativeScript requiring all sub-scripts to pass.
func NewNativeScriptAll(scripts []*nativescript.Script) (*nativescript.Script, error) {
	return nativescript.RequireAllOf(scripts), nil
}

// NewNativeScriptAny creates a NativeScript requiring any sub-script to pass.
func NewNativeScriptAny(scripts []*nativescript.Script) (*nativescript.Script, error) {
	return nativescript.RequireAnyOf(scripts), nil
}

// NewNativeScriptNofK creates a NativeScript requiring N of K sub-scripts to pass.
func NewNativeScriptNofK(n uint64, scripts []*nativescript.Script) (*nativescript.Script, error) {
	return nativescript.RequireNofK(n, scripts)
}

// NewNativeScriptInvalidBefore creates a NativeScript valid only after the given slot.
func NewNativeScriptInvalidBefore(slot uint64) (*nativescript.Script, error) {
	return nativescript.InvalidBefore(slot), nil
}

// NewNativeScriptInvalidHereafter creates a NativeScript valid only before the given slot.
func NewNativeScriptInvalidHereafter(slot uint64) (*nativescript.Script, error) {
	return nativescript.InvalidAfter(slot), nil
}

// SignMessage signs a message using a standard Ed25519 private key.
// The key must be either:
//   - 32 bytes: a raw Ed25519 seed, or
//   - 64 bytes: a Go crypto/ed25519.PrivateKey (seed || public key),
//     where the first 32 bytes are used as the seed.
//
// This function is NOT suitable for Cardano BIP32-Ed25519 extended signing keys
// (e.g., from key derivation via bursa/bip32). Those keys must not be re-hashed;
// use bip32.XPrv.Sign() instead.
func SignMessage(privateKey []byte, message []byte) ([]byte, error) {
	var seed []byte
	switch len(privateKey) {
	case 64:
		seed = privateKey[:32]
	case 32:
		seed = privateKey
	default:
		return nil, fmt.Errorf("invalid private key length %d: must be 32 or 64 bytes", len(privateKey))
	}
	edKey := ed25519.NewKeyFromSeed(seed)
	return ed25519.Sign(edKey, message), nil
}

// ComputeScriptDataHash computes the script data hash per the Alonzo spec:
// Blake2b-256 over the concatenation of the array-encoded redeemers,
// the encoded datum list, and the language-view encoding of the cost
// models actually exercised by the transaction's scripts.
func ComputeScriptDataHash(
	redeemers []witness.Redeemer,
	datums []*plutusdata.Data,
	costModels map[string][]int64,
) (*common.Blake2b256, error) {
	if len(redeemers) == 0 && len(datums) == 0 {
		return nil, nil
	}

	redeemerWriter := cbor.NewWriter()
	redeemerWriter.WriteStartArray(uint64(len(redeemers)))
	for _, r := range redeemers {
		r.WriteToCBOR(redeemerWriter)
	}
	redeemerBytes := redeemerWriter.Bytes()

	datumWriter := cbor.NewWriter()
	datumWriter.WriteStartArray(uint64(len(datums)))
	for _, d := range datums {
		d.WriteToCBOR(datumWriter)
	}
	datumBytes := datumWriter.Bytes()

	costModelBytes, err := encodeLanguageViews(costModels)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cost models: %w", err)
	}

	combined := make([]byte, 0, len(redeemerBytes)+len(datumBytes)+len(costModelBytes))
	combined = append(combined, redeemerBytes...)
	combined = append(combined, datumBytes...)
	combined = append(combined, costModelBytes...)

	hash := common.HashBlake2b256(combined)
	return &hash, nil
}

// encodeLanguageViews encodes the cost-model "language view" map that
// feeds into the script-data hash. PlutusV1's view is historically
// encoded as an indefinite-length list of costs wrapped in a bytestring
// with its own key double-serialized; V2/V3 use the plain integer-array
// form. See the Alonzo ledger spec, section on scriptIntegrityHash.
func encodeLanguageViews(costModels map[string][]int64) ([]byte, error) {
	w := cbor.NewWriter()
	w.WriteStartMap(uint64(len(costModels)))
	for lang, costs := range costModels {
		switch lang {
		case "PlutusV1":
			keyWriter := cbor.NewWriter()
			keyWriter.WriteUint(0)
			w.WriteBytestring(keyWriter.Bytes())

			inner := cbor.NewWriter()
			inner.WriteStartArrayIndefinite()
			for _, c := range costs {
				inner.WriteSignedInt(c)
			}
			inner.WriteBreak()
			w.WriteBytestring(inner.Bytes())
		case "PlutusV2":
			w.WriteUint(1)
			w.WriteStartArray(uint64(len(costs)))
			for _, c := range costs {
				w.WriteSignedInt(c)
			}
		case "PlutusV3":
			w.WriteUint(2)
			w.WriteStartArray(uint64(len(costs)))
			for _, c := range costs {
				w.WriteSignedInt(c)
			}
		default:
			return nil, fmt.Errorf("unsupported cost model language: %q", lang)
		}
	}
	return w.Bytes(), nil
}

// OutputCborSize returns the CBOR-encoded size of a TransactionOutput.
func OutputCborSize(output *txbody.TransactionOutput) int {
	w := cbor.NewWriter()
	output.WriteToCBOR(w)
	return w.Len()
}

// MinLovelacePostAlonzo calculates the minimum lovelace required for a transaction output.
func MinLovelacePostAlonzo(output *txbody.TransactionOutput, coinsPerUtxoByte int64) int64 {
	return coinsPerUtxoByte * int64(OutputCborSize(output)+160)
}

// NewScriptRef creates a ScriptRef by detecting the script type automatically.
// Accepts *nativescript.Script, common.PlutusV1Script, common.PlutusV2Script,
// or common.PlutusV3Script.
func NewScriptRef(script common.Script) (*common.ScriptRef, error) {
	return common.NewScriptRef(script)
}

// GetStakeCredentialFromAddress extracts the staking credential from an address.
func GetStakeCredentialFromAddress(addr common.Address) (common.Credential, error) {
	hash := addr.StakeCredentialHash()
	if len(hash) == 0 {
		return common.Credential{}, errors.New("address has no staking component")
	}
	h := common.NewBlake2b224(hash)
	if addr.IsScriptStaking() {
		return common.NewScriptHashCredential(h), nil
	}
	return common.NewKeyHashCredential(h), nil
}
