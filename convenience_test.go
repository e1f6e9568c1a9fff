package apollo

import (
	"math/big"
	"testing"

	"github.com/Salvionied/apollo/v2/ledger/common"
	"github.com/Salvionied/apollo/v2/ledger/plutusdata"
)

func TestAddInputAddressFromBech32(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	a, err := a.AddInputAddressFromBech32(validTestAddrBech32)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.inputAddresses) != 1 {
		t.Fatalf("expected 1 input address, got %d", len(a.inputAddresses))
	}
}

func TestAddInputAddressFromBech32Invalid(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	_, err := a.AddInputAddressFromBech32("not-a-valid-bech32")
	if err == nil {
		t.Error("expected error for invalid bech32 address")
	}
}

func TestPayToAddressBech32(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	a, err := a.PayToAddressBech32(validTestAddrBech32, 2_000_000)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(a.payments))
	}
}

func TestPayToAddressBech32Invalid(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	_, err := a.PayToAddressBech32("garbage", 1_000_000)
	if err == nil {
		t.Error("expected error for invalid bech32 address")
	}
}

func TestSetChangeAddressBech32(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	a, err := a.SetChangeAddressBech32(validTestAddrBech32)
	if err != nil {
		t.Fatal(err)
	}
	got, err := a.getChangeAddress()
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != validTestAddrBech32 {
		t.Error("expected change address to match bech32 input")
	}
}

func TestSetChangeAddressBech32Invalid(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	_, err := a.SetChangeAddressBech32("garbage")
	if err == nil {
		t.Error("expected error for invalid bech32 address")
	}
}

func TestAttachDatum(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	a = a.AttachDatum(plutusdata.NewInteger(big.NewInt(1)))
	if len(a.datums) != 1 {
		t.Fatalf("expected 1 datum, got %d", len(a.datums))
	}
}

func TestPayToContractAsHash(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	hash := make([]byte, 32)
	hash[0] = 0xaa
	a = a.PayToContractAsHash(addr, hash, 2_000_000)
	if len(a.payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(a.payments))
	}
	// The datum itself must not be added to the witness set, only its hash.
	if len(a.datums) != 0 {
		t.Errorf("expected no datum in witness set, got %d", len(a.datums))
	}
	p, ok := a.payments[0].(*Payment)
	if !ok {
		t.Fatalf("expected *Payment, got %T", a.payments[0])
	}
	if len(p.DatumHash) != 32 {
		t.Errorf("expected 32-byte datum hash, got %d", len(p.DatumHash))
	}
}

func TestPayToAddressWithV1ReferenceScript(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	script := common.NewPlutusV1Script([]byte{0x01, 0x02, 0x03})
	a, err := a.PayToAddressWithV1ReferenceScript(addr, 2_000_000, script)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(a.payments))
	}
}

func TestPayToAddressWithV2ReferenceScript(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	script := common.NewPlutusV2Script([]byte{0x01, 0x02, 0x03})
	a, err := a.PayToAddressWithV2ReferenceScript(addr, 2_000_000, script)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(a.payments))
	}
}

func TestPayToAddressWithV3ReferenceScript(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	script := common.NewPlutusV3Script([]byte{0x01, 0x02, 0x03})
	a, err := a.PayToAddressWithV3ReferenceScript(addr, 2_000_000, script)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(a.payments))
	}
}

func TestPayToContractWithReferenceScript(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	datum := plutusdata.NewInteger(big.NewInt(1))
	script := common.NewPlutusV2Script([]byte{0x01, 0x02, 0x03})
	a, err := a.PayToContractWithReferenceScript(addr, datum, 2_000_000, script)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(a.payments))
	}
	p, ok := a.payments[0].(*Payment)
	if !ok {
		t.Fatalf("expected *Payment, got %T", a.payments[0])
	}
	if !p.IsInline {
		t.Error("expected inline datum")
	}
	if p.ScriptRef == nil {
		t.Error("expected non-nil script ref")
	}
}

func TestPayToContractWithReferenceScriptNilDatum(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	script := common.NewPlutusV2Script([]byte{0x01, 0x02, 0x03})
	_, err := a.PayToContractWithReferenceScript(addr, nil, 2_000_000, script)
	if err == nil {
		t.Error("expected error for nil datum")
	}
}

func TestPayToContractWithV1ReferenceScript(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	datum := plutusdata.NewInteger(big.NewInt(1))
	script := common.NewPlutusV1Script([]byte{0x01})
	a, err := a.PayToContractWithV1ReferenceScript(addr, datum, 2_000_000, script)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(a.payments))
	}
}

func TestPayToContractWithV3ReferenceScript(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	datum := plutusdata.NewInteger(big.NewInt(1))
	script := common.NewPlutusV3Script([]byte{0x01})
	a, err := a.PayToContractWithV3ReferenceScript(addr, datum, 2_000_000, script)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(a.payments))
	}
}

func TestRegisterStakeFromAddress(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	a, err := a.RegisterStakeFromAddress(addr)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
}

func TestRegisterStakeFromBech32(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	a, err := a.RegisterStakeFromBech32(validTestAddrBech32)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
}

func TestRegisterStakeFromBech32Invalid(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	_, err := a.RegisterStakeFromBech32("garbage")
	if err == nil {
		t.Error("expected error for invalid bech32 address")
	}
}

func TestDeregisterStakeFromAddress(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	a, err := a.DeregisterStakeFromAddress(addr)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
}

func TestDeregisterStakeFromBech32(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	a, err := a.DeregisterStakeFromBech32(validTestAddrBech32)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
}

func TestDelegateStakeFromAddress(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	pool := testPolicyId(2)
	a, err := a.DelegateStakeFromAddress(addr, pool)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
}

func TestDelegateStakeFromBech32(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	pool := testPolicyId(2)
	a, err := a.DelegateStakeFromBech32(validTestAddrBech32, pool)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
}

func TestDelegateVoteFromAddress(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	drep := common.NewDrepAlwaysAbstain()
	a, err := a.DelegateVoteFromAddress(addr, drep)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
}

func TestDelegateVoteFromBech32(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	drep := common.NewDrepAlwaysNoConfidence()
	a, err := a.DelegateVoteFromBech32(validTestAddrBech32, drep)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
}

func TestDelegateStakeAndVoteFromAddress(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	pool := testPolicyId(2)
	drep := common.NewDrepAlwaysAbstain()
	a, err := a.DelegateStakeAndVoteFromAddress(addr, pool, drep)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
}

func TestDelegateStakeAndVoteFromBech32(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	pool := testPolicyId(2)
	drep := common.NewDrepAlwaysAbstain()
	a, err := a.DelegateStakeAndVoteFromBech32(validTestAddrBech32, pool, drep)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
}

func TestRegisterAndDelegateStakeFromAddress(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	pool := testPolicyId(2)
	a, err := a.RegisterAndDelegateStakeFromAddress(addr, pool, 2_000_000)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
}

func TestRegisterAndDelegateStakeFromBech32(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	pool := testPolicyId(2)
	a, err := a.RegisterAndDelegateStakeFromBech32(validTestAddrBech32, pool, 2_000_000)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
}

func TestRegisterAndDelegateVoteFromAddress(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	drep := common.NewDrepAlwaysAbstain()
	a, err := a.RegisterAndDelegateVoteFromAddress(addr, drep, 2_000_000)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
}

func TestRegisterAndDelegateVoteFromBech32(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	drep := common.NewDrepAlwaysAbstain()
	a, err := a.RegisterAndDelegateVoteFromBech32(validTestAddrBech32, drep, 2_000_000)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
}

func TestRegisterAndDelegateStakeAndVoteFromAddress(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	pool := testPolicyId(2)
	drep := common.NewDrepAlwaysAbstain()
	a, err := a.RegisterAndDelegateStakeAndVoteFromAddress(addr, pool, drep, 2_000_000)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
}

func TestRegisterAndDelegateStakeAndVoteFromBech32(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	pool := testPolicyId(2)
	drep := common.NewDrepAlwaysAbstain()
	a, err := a.RegisterAndDelegateStakeAndVoteFromBech32(validTestAddrBech32, pool, drep, 2_000_000)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
}

func TestCredentialFromBech32Invalid(t *testing.T) {
	_, err := credentialFromBech32("garbage")
	if err == nil {
		t.Error("expected error for invalid bech32 address")
	}
}
