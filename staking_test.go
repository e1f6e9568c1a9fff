package apollo

import (
	"testing"

	"github.com/Salvionied/apollo/v2/backend/fixed"
	"github.com/Salvionied/apollo/v2/ledger/cert"
	"github.com/Salvionied/apollo/v2/ledger/common"
)

func TestRegisterStake(t *testing.T) {
	cc := setupFixedContext()
	addr := testAddress(t)
	w := NewExternalWallet(addr)
	a := New(cc).SetWallet(w)

	cred, err := GetStakeCredentialFromAddress(addr)
	if err != nil {
		t.Fatal(err)
	}
	a = a.RegisterStake(cred)
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
	if a.certificates[0].Kind != cert.KindStakeRegistration {
		t.Errorf("expected kind %v, got %v", cert.KindStakeRegistration, a.certificates[0].Kind)
	}
}

func TestRegisterStakeFromWallet(t *testing.T) {
	cc := setupFixedContext()
	addr := testAddress(t)
	w := NewExternalWallet(addr)
	a := New(cc).SetWallet(w)

	cred, err := a.GetStakeCredentialFromWallet()
	if err != nil {
		t.Fatal(err)
	}
	a = a.RegisterStake(cred)
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

func TestDeregisterStake(t *testing.T) {
	cc := setupFixedContext()
	addr := testAddress(t)
	w := NewExternalWallet(addr)
	a := New(cc).SetWallet(w)

	cred, err := GetStakeCredentialFromAddress(addr)
	if err != nil {
		t.Fatal(err)
	}
	a = a.DeregisterStake(cred)
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
	if a.certificates[0].Kind != cert.KindStakeDeregistration {
		t.Errorf("expected kind %v, got %v", cert.KindStakeDeregistration, a.certificates[0].Kind)
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

func TestDelegateStake(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)

	addr := testAddress(t)
	cred, err := GetStakeCredentialFromAddress(addr)
	if err != nil {
		t.Fatal(err)
	}
	poolHash := testPolicyId(0xaa)

	a = a.DelegateStake(cred, poolHash)
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
	if a.certificates[0].Kind != cert.KindStakeDelegation {
		t.Errorf("expected kind %v, got %v", cert.KindStakeDelegation, a.certificates[0].Kind)
	}
}

func TestDelegateStakeFromBech32(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	poolHash := testPolicyId(0xbb)

	a, err := a.DelegateStakeFromBech32(validTestAddrBech32, poolHash)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
}

func TestRegisterAndDelegateStake(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)

	tAddr := testAddress(t)
	cred, err := GetStakeCredentialFromAddress(tAddr)
	if err != nil {
		t.Fatal(err)
	}
	poolHash := testPolicyId(0xcc)

	a = a.RegisterAndDelegateStake(cred, poolHash, StakeDeposit)
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
	if a.certificates[0].Kind != cert.KindStakeRegistrationDelegation {
		t.Errorf("expected kind %v, got %v", cert.KindStakeRegistrationDelegation, a.certificates[0].Kind)
	}
}

func TestRegisterAndDelegateStakeFromBech32(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	poolHash := testPolicyId(0xdd)

	a, err := a.RegisterAndDelegateStakeFromBech32(validTestAddrBech32, poolHash, StakeDeposit)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
}

func TestDelegateVote(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)

	tAddr := testAddress(t)
	cred, err := GetStakeCredentialFromAddress(tAddr)
	if err != nil {
		t.Fatal(err)
	}
	drep := common.NewDrepAlwaysAbstain()

	a = a.DelegateVote(cred, drep)
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
	if a.certificates[0].Kind != cert.KindVoteDelegation {
		t.Errorf("expected kind %v, got %v", cert.KindVoteDelegation, a.certificates[0].Kind)
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

func TestDelegateStakeAndVote(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)

	tAddr := testAddress(t)
	cred, err := GetStakeCredentialFromAddress(tAddr)
	if err != nil {
		t.Fatal(err)
	}
	poolHash := testPolicyId(0xaa)
	drep := common.NewDrepAlwaysAbstain()

	a = a.DelegateStakeAndVote(cred, poolHash, drep)
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
	if a.certificates[0].Kind != cert.KindStakeVoteDelegation {
		t.Errorf("expected kind %v, got %v", cert.KindStakeVoteDelegation, a.certificates[0].Kind)
	}
}

func TestDelegateStakeAndVoteFromBech32(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	poolHash := testPolicyId(0xee)
	drep := common.NewDrepAlwaysAbstain()

	a, err := a.DelegateStakeAndVoteFromBech32(validTestAddrBech32, poolHash, drep)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
}

func TestRegisterAndDelegateVote(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)

	tAddr := testAddress(t)
	cred, err := GetStakeCredentialFromAddress(tAddr)
	if err != nil {
		t.Fatal(err)
	}
	drep := common.NewDrepAlwaysAbstain()

	a = a.RegisterAndDelegateVote(cred, drep, StakeDeposit)
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
	if a.certificates[0].Kind != cert.KindVoteRegistrationDelegation {
		t.Errorf("expected kind %v, got %v", cert.KindVoteRegistrationDelegation, a.certificates[0].Kind)
	}
}

func TestRegisterAndDelegateVoteFromBech32(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	drep := common.NewDrepAlwaysAbstain()

	a, err := a.RegisterAndDelegateVoteFromBech32(validTestAddrBech32, drep, StakeDeposit)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
}

func TestRegisterAndDelegateStakeAndVote(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)

	tAddr := testAddress(t)
	cred, err := GetStakeCredentialFromAddress(tAddr)
	if err != nil {
		t.Fatal(err)
	}
	poolHash := testPolicyId(0xaa)
	drep := common.NewDrepAlwaysAbstain()

	a = a.RegisterAndDelegateStakeAndVote(cred, poolHash, drep, StakeDeposit)
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
	if a.certificates[0].Kind != cert.KindStakeVoteRegistrationDelegation {
		t.Errorf("expected kind %v, got %v", cert.KindStakeVoteRegistrationDelegation, a.certificates[0].Kind)
	}
}

func TestRegisterAndDelegateStakeAndVoteFromBech32(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	poolHash := testPolicyId(0xaa)
	drep := common.NewDrepAlwaysAbstain()

	a, err := a.RegisterAndDelegateStakeAndVoteFromBech32(validTestAddrBech32, poolHash, drep, StakeDeposit)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
}

func TestRegisterPool(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)

	operator := testPolicyId(0x01)
	params := cert.PoolParams{
		Operator: operator,
		Pledge:   1000000,
		Cost:     340000000,
	}

	a = a.RegisterPool(params)
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
	if a.certificates[0].Kind != cert.KindPoolRegistration {
		t.Errorf("expected kind %v, got %v", cert.KindPoolRegistration, a.certificates[0].Kind)
	}
}

func TestDeregisterPool(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)

	poolHash := testPolicyId(0x01)

	a = a.DeregisterPool(poolHash, 100)
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
	if a.certificates[0].Kind != cert.KindPoolRetirement {
		t.Errorf("expected kind %v, got %v", cert.KindPoolRetirement, a.certificates[0].Kind)
	}
}

func TestSetCertificates(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)

	cred := common.NewKeyHashCredential(testPolicyId(0x01))
	pool := testPolicyId(0x02)
	reg := cert.NewStakeRegistration(cred)
	del := cert.NewStakeDelegation(cred, pool)
	a.SetCertificates([]*cert.Certificate{&reg, &del})
	if len(a.certificates) != 2 {
		t.Errorf("expected 2 certificates, got %d", len(a.certificates))
	}
}

func TestCertificateDepositAdjustment(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)

	tAddr := testAddress(t)
	cred, err := GetStakeCredentialFromAddress(tAddr)
	if err != nil {
		t.Fatal(err)
	}
	a = a.RegisterStake(cred)
	adj := a.certificateDepositAdjustment(StakeDeposit)
	if adj != StakeDeposit {
		t.Errorf("expected deposit of %d, got %d", StakeDeposit, adj)
	}

	a = a.DeregisterStake(cred)
	adj = a.certificateDepositAdjustment(StakeDeposit)
	if adj != 0 {
		t.Errorf("expected net 0 (reg+dereg), got %d", adj)
	}
}

func TestGetStakeCredentialFromAddress(t *testing.T) {
	addr := testAddress(t)
	cred, err := GetStakeCredentialFromAddress(addr)
	if err != nil {
		t.Fatal(err)
	}
	if cred.Kind != common.CredentialKeyHash {
		t.Errorf("expected key hash credential, got %v", cred.Kind)
	}
	var zero common.Blake2b224
	if cred.Hash == zero {
		t.Error("expected non-zero credential hash")
	}
}

func TestGetStakeCredentialFromWallet(t *testing.T) {
	cc := setupFixedContext()
	addr := testAddress(t)
	w := NewExternalWallet(addr)
	a := New(cc).SetWallet(w)

	cred, err := a.GetStakeCredentialFromWallet()
	if err != nil {
		t.Fatal(err)
	}
	var zero common.Blake2b224
	if cred.Hash == zero {
		t.Error("expected non-zero credential hash")
	}
}

func TestGetStakeCredentialFromWalletNoWallet(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	_, err := a.GetStakeCredentialFromWallet()
	if err == nil {
		t.Error("expected error when no wallet")
	}
}

func TestCompleteWithStakeRegistration(t *testing.T) {
	cc := fixed.NewEmptyFixedChainContext()
	addr := testAddress(t)
	// Need enough to cover deposit + payment + fee
	addTestUtxo(cc, addr, 20_000_000, 0x01, 0)

	w := NewExternalWallet(addr)
	a := New(cc).SetWallet(w).SetTtl(50000000)

	p, err := NewPayment(validTestAddrBech32, 2_000_000, nil)
	if err != nil {
		t.Fatal(err)
	}
	a.AddPayment(p)
	cred, err := GetStakeCredentialFromAddress(addr)
	if err != nil {
		t.Fatal(err)
	}
	a = a.RegisterStake(cred)

	a, err = a.Complete()
	if err != nil {
		t.Fatal(err)
	}

	tx := a.GetTx()
	if tx == nil {
		t.Fatal("expected non-nil transaction")
	}
	if len(tx.Body.Certificates) != 1 {
		t.Errorf("expected 1 certificate in tx body, got %d", len(tx.Body.Certificates))
	}
}
