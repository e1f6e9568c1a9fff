package apollo

import (
	"math/big"
	"testing"

	"github.com/Salvionied/apollo/v2/ledger/common"
	"github.com/Salvionied/apollo/v2/ledger/nativescript"
	"github.com/Salvionied/apollo/v2/ledger/plutusdata"
	"github.com/Salvionied/apollo/v2/ledger/witness"
)

func TestSignMessage(t *testing.T) {
	seed := make([]byte, 32)
	seed[0] = 1
	sig, err := SignMessage(seed, []byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if len(sig) != 64 {
		t.Errorf("expected 64-byte signature, got %d", len(sig))
	}
}

func TestSignMessageInvalidLength(t *testing.T) {
	_, err := SignMessage([]byte{1, 2, 3}, []byte("hello"))
	if err == nil {
		t.Error("expected error for invalid key length")
	}
}

func TestNewNativeScriptPubkey(t *testing.T) {
	keyHash := testPolicyId(1)
	script, err := NewNativeScriptPubkey(keyHash)
	if err != nil {
		t.Fatal(err)
	}
	if script == nil {
		t.Fatal("expected non-nil script")
	}
}

func TestNewNativeScriptAllAny(t *testing.T) {
	s1, _ := NewNativeScriptPubkey(testPolicyId(1))
	s2, _ := NewNativeScriptPubkey(testPolicyId(2))

	all, err := NewNativeScriptAll([]*nativescript.Script{s1, s2})
	if err != nil {
		t.Fatal(err)
	}
	if all == nil {
		t.Fatal("expected non-nil script")
	}

	any, err := NewNativeScriptAny([]*nativescript.Script{s1, s2})
	if err != nil {
		t.Fatal(err)
	}
	if any == nil {
		t.Fatal("expected non-nil script")
	}
}

func TestNewNativeScriptNofK(t *testing.T) {
	s1, _ := NewNativeScriptPubkey(testPolicyId(1))
	s2, _ := NewNativeScriptPubkey(testPolicyId(2))

	script, err := NewNativeScriptNofK(1, []*nativescript.Script{s1, s2})
	if err != nil {
		t.Fatal(err)
	}
	if script == nil {
		t.Fatal("expected non-nil script")
	}
}

func TestNewNativeScriptTimelocks(t *testing.T) {
	before, err := NewNativeScriptInvalidBefore(1000)
	if err != nil {
		t.Fatal(err)
	}
	if before == nil {
		t.Fatal("expected non-nil script")
	}

	after, err := NewNativeScriptInvalidHereafter(2000)
	if err != nil {
		t.Fatal(err)
	}
	if after == nil {
		t.Fatal("expected non-nil script")
	}
}

func TestComputeScriptDataHashEmpty(t *testing.T) {
	hash, err := ComputeScriptDataHash(nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if hash != nil {
		t.Error("expected nil hash when no redeemers or datums")
	}
}

func TestComputeScriptDataHashWithDatum(t *testing.T) {
	datum := plutusdata.NewInteger(big.NewInt(42))
	hash, err := ComputeScriptDataHash(nil, []*plutusdata.Data{datum}, map[string][]int64{})
	if err != nil {
		t.Fatal(err)
	}
	if hash == nil {
		t.Fatal("expected non-nil hash")
	}
}

func TestComputeScriptDataHashWithRedeemer(t *testing.T) {
	redeemer := witness.Redeemer{
		Tag:     witness.RedeemerTagSpend,
		Index:   0,
		ExUnits: witness.ExUnits{Mem: 1000, Steps: 2000},
		Data:    plutusdata.NewInteger(big.NewInt(1)),
	}
	hash, err := ComputeScriptDataHash([]witness.Redeemer{redeemer}, nil, map[string][]int64{
		"PlutusV2": {1, 2, 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	if hash == nil {
		t.Fatal("expected non-nil hash")
	}
}

func TestComputeScriptDataHashUnsupportedLanguage(t *testing.T) {
	_, err := ComputeScriptDataHash(nil, []*plutusdata.Data{plutusdata.NewInteger(big.NewInt(1))}, map[string][]int64{
		"PlutusV9": {1},
	})
	if err == nil {
		t.Error("expected error for unsupported language")
	}
}

func TestOutputCborSize(t *testing.T) {
	addr := testAddress(t)
	output := NewBabbageOutputSimple(addr, 2000000)
	size := OutputCborSize(&output)
	if size <= 0 {
		t.Error("expected positive CBOR size")
	}
}

func TestMinLovelacePostAlonzo(t *testing.T) {
	addr := testAddress(t)
	output := NewBabbageOutputSimple(addr, 2000000)
	min := MinLovelacePostAlonzo(&output, 4310)
	if min <= 0 {
		t.Error("expected positive min lovelace")
	}
}

func TestGetStakeCredentialFromAddress(t *testing.T) {
	addr := testAddress(t)
	cred, err := GetStakeCredentialFromAddress(addr)
	if err != nil {
		t.Fatal(err)
	}
	var zero common.Blake2b224
	if cred.Hash == zero {
		t.Error("expected non-empty stake credential hash")
	}
}

func TestGetStakeCredentialFromAddressNoStaking(t *testing.T) {
	raw := make([]byte, 29)
	raw[0] = 0x60 // enterprise address, no staking part
	addr, err := common.NewAddressFromBytes(raw)
	if err != nil {
		t.Fatal(err)
	}
	_, err = GetStakeCredentialFromAddress(addr)
	if err == nil {
		t.Error("expected error for address with no staking component")
	}
}
