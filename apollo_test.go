package apollo

import (
	"math/big"
	"testing"

	"github.com/Salvionied/apollo/v2/ledger/cert"
	"github.com/Salvionied/apollo/v2/ledger/common"
	"github.com/Salvionied/apollo/v2/ledger/plutusdata"
	"github.com/Salvionied/apollo/v2/ledger/txbody"
	"github.com/Salvionied/apollo/v2/ledger/value"
)

func TestNewApollo(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	if a == nil {
		t.Fatal("expected non-nil Apollo")
	}
	if a.Context == nil {
		t.Fatal("expected non-nil context")
	}
	if !a.estimateExUnits {
		t.Error("expected estimateExUnits to default true")
	}
}

func TestSetWallet(t *testing.T) {
	cc := setupFixedContext()
	addr := testAddress(t)
	w := NewExternalWallet(addr)
	a := New(cc).SetWallet(w)
	if a.GetWallet() == nil {
		t.Fatal("expected wallet to be set")
	}
	if a.GetWallet().Address().String() != addr.String() {
		t.Error("expected wallet address to match")
	}
}

func TestAddPayment(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	p := &Payment{Receiver: addr, Lovelace: 1_000_000}
	a.AddPayment(p)
	if len(a.payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(a.payments))
	}
}

func TestPayToAddress(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	a.PayToAddress(addr, 2_000_000)
	if len(a.payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(a.payments))
	}
	v, err := a.payments[0].ToValue()
	if err != nil {
		t.Fatal(err)
	}
	if v.Coin.Int64() != 2_000_000 {
		t.Errorf("expected 2000000, got %d", v.Coin.Int64())
	}
}

func TestPayToAddressWithReferenceScript(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	script, err := NewNativeScriptPubkey(testPolicyId(1))
	if err != nil {
		t.Fatal(err)
	}
	a, err = a.PayToAddressWithReferenceScript(addr, 2_000_000, script)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(a.payments))
	}
}

func TestPayToContract(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	datum := plutusdata.NewInteger(big.NewInt(42))
	a, err := a.PayToContract(addr, datum, 2_000_000)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(a.payments))
	}
}

func TestPayToContractNilDatum(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	_, err := a.PayToContract(addr, nil, 2_000_000)
	if err == nil {
		t.Error("expected error for nil datum")
	}
}

func TestPayToContractWithDatumHash(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	datum := plutusdata.NewInteger(big.NewInt(7))
	a, err := a.PayToContractWithDatumHash(addr, datum, 2_000_000)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(a.payments))
	}
	if len(a.datums) != 1 {
		t.Fatalf("expected datum added to witness set, got %d", len(a.datums))
	}
}

func TestAddLoadedUTxOs(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	var hash common.Blake2b256
	hash[0] = 1
	utxo := makeTestUtxo(t, hash, 0, 5_000_000)
	a.AddLoadedUTxOs(utxo)
	if len(a.utxos) != 1 {
		t.Fatalf("expected 1 utxo, got %d", len(a.utxos))
	}
}

func TestAddInput(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	var hash common.Blake2b256
	hash[0] = 1
	utxo := makeTestUtxo(t, hash, 0, 5_000_000)
	a.AddInput(utxo)
	if len(a.preselectedUtxos) != 1 {
		t.Fatalf("expected 1 preselected utxo, got %d", len(a.preselectedUtxos))
	}
}

func TestCollectFrom(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	var hash common.Blake2b256
	hash[0] = 1
	utxo := makeTestUtxo(t, hash, 0, 5_000_000)
	datum := plutusdata.NewInteger(big.NewInt(1))
	a, err := a.CollectFrom(utxo, datum)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.preselectedUtxos) != 1 {
		t.Fatalf("expected 1 preselected utxo, got %d", len(a.preselectedUtxos))
	}
	if !a.isEstimateRequired {
		t.Error("expected execution unit estimation to be required after a redeemed collect")
	}
}

func TestAddInputAddress(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	a.AddInputAddress(addr)
	if len(a.inputAddresses) != 1 {
		t.Fatalf("expected 1 input address, got %d", len(a.inputAddresses))
	}
}

func TestConsumeUTxO(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	var hash common.Blake2b256
	hash[0] = 1
	utxo := makeTestUtxo(t, hash, 0, 5_000_000)
	a.ConsumeUTxO(utxo)
	if len(a.preselectedUtxos) != 1 {
		t.Fatalf("expected 1 preselected utxo, got %d", len(a.preselectedUtxos))
	}
}

func TestGetUsedUTxOs(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	var hash common.Blake2b256
	hash[0] = 1
	utxo := makeTestUtxo(t, hash, 0, 5_000_000)
	a.AddInput(utxo)
	refs := a.GetUsedUTxOs()
	if len(refs) != 1 {
		t.Fatalf("expected 1 used utxo ref, got %d", len(refs))
	}
}

func TestAddRequiredSigner(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	a.AddRequiredSigner(testPolicyId(1))
	if len(a.requiredSigners) != 1 {
		t.Fatalf("expected 1 required signer, got %d", len(a.requiredSigners))
	}
}

func TestAddRequiredSignerPaymentKey(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	a.AddRequiredSignerPaymentKey(addr)
	if len(a.requiredSigners) != 1 {
		t.Fatalf("expected 1 required signer, got %d", len(a.requiredSigners))
	}
}

func TestAddRequiredSignerStakeKey(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	a.AddRequiredSignerStakeKey(addr)
	if len(a.requiredSigners) != 1 {
		t.Fatalf("expected 1 required signer, got %d", len(a.requiredSigners))
	}
}

func TestSetTtlAndValidityStart(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	a.SetTtl(1000).SetValidityStart(500)
	if a.ttl == nil || *a.ttl != 1000 {
		t.Error("expected ttl to be set to 1000")
	}
	if a.validityIntervalStart == nil || *a.validityIntervalStart != 500 {
		t.Error("expected validity start to be set to 500")
	}
}

func TestSetFeeAndPadding(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	a.SetFee(200_000).SetFeePadding(10_000)
	if a.Fee != 200_000 {
		t.Errorf("expected fee 200000, got %d", a.Fee)
	}
	if a.FeePadding != 10_000 {
		t.Errorf("expected fee padding 10000, got %d", a.FeePadding)
	}
}

func TestForceFee(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	a.ForceFee(300_000)
	if !a.forceFee {
		t.Error("expected forceFee to be true")
	}
	if a.Fee != 300_000 {
		t.Errorf("expected fee 300000, got %d", a.Fee)
	}
}

func TestSetChangeAddress(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	a.SetChangeAddress(addr)
	got, err := a.getChangeAddress()
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != addr.String() {
		t.Error("expected change address to match")
	}
}

func TestGetChangeAddressFallsBackToWallet(t *testing.T) {
	cc := setupFixedContext()
	addr := testAddress(t)
	w := NewExternalWallet(addr)
	a := New(cc).SetWallet(w)
	got, err := a.getChangeAddress()
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != addr.String() {
		t.Error("expected change address to fall back to wallet address")
	}
}

func TestGetChangeAddressNoneSet(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	_, err := a.getChangeAddress()
	if err == nil {
		t.Error("expected error when no change address is resolvable")
	}
}

func TestDisableExecutionUnitsEstimation(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	a.DisableExecutionUnitsEstimation()
	if a.estimateExUnits {
		t.Error("expected estimateExUnits to be false")
	}
}

func TestAddCollateral(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	var hash common.Blake2b256
	hash[0] = 1
	utxo := makeTestUtxo(t, hash, 0, 5_000_000)
	a.AddCollateral(utxo)
	if len(a.collateral) != 1 {
		t.Fatalf("expected 1 collateral utxo, got %d", len(a.collateral))
	}
}

func TestSetCollateralAmountClearsPinned(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	var hash common.Blake2b256
	hash[0] = 1
	utxo := makeTestUtxo(t, hash, 0, 5_000_000)
	a.AddCollateral(utxo)
	a.SetCollateralAmount(0)
	if len(a.collateral) != 0 {
		t.Errorf("expected collateral cleared, got %d", len(a.collateral))
	}
}

func TestAddDatum(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	a.AddDatum(plutusdata.NewInteger(big.NewInt(1)))
	if len(a.datums) != 1 {
		t.Fatalf("expected 1 datum, got %d", len(a.datums))
	}
}

func TestAddReferenceInput(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	a, err := a.AddReferenceInput("aa"+"000000000000000000000000000000000000000000000000000000000000"+"bb", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.referenceInputs) != 1 {
		t.Fatalf("expected 1 reference input, got %d", len(a.referenceInputs))
	}
}

func TestAddReferenceInputInvalidHash(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	_, err := a.AddReferenceInput("not-hex", 0)
	if err == nil {
		t.Error("expected error for invalid tx hash")
	}
}

func TestAttachScript(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	script, err := NewNativeScriptPubkey(testPolicyId(1))
	if err != nil {
		t.Fatal(err)
	}
	a, err = a.AttachScript(script)
	if err != nil {
		t.Fatal(err)
	}
	if !a.hasScripts() {
		t.Error("expected hasScripts to be true")
	}
}

func TestAttachScriptUnsupportedType(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	_, err := a.AttachScript(nil)
	if err == nil {
		t.Error("expected error for unsupported script type")
	}
}

func TestMint(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	policy := testPolicyId(1)
	a, err := a.Mint(policy, "746f6b656e", 100, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !a.hasMint() {
		t.Error("expected hasMint to be true")
	}
	mints, err := a.GetMints()
	if err != nil {
		t.Fatal(err)
	}
	if !valueHasAssets(mints) {
		t.Error("expected minted assets")
	}
}

func TestMintWithRedeemerRequiresEstimation(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	policy := testPolicyId(1)
	redeemer := plutusdata.NewInteger(big.NewInt(0))
	a, err := a.Mint(policy, "746f6b656e", 100, redeemer)
	if err != nil {
		t.Fatal(err)
	}
	if !a.isEstimateRequired {
		t.Error("expected isEstimateRequired to be true after a redeemed mint")
	}
}

func TestMintInvalidAssetNameHex(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	_, err := a.Mint(testPolicyId(1), "not-hex!", 1, nil)
	if err == nil {
		t.Error("expected error for invalid asset name hex")
	}
}

func TestGetBurns(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	policy := testPolicyId(1)
	a, err := a.Mint(policy, "746f6b656e", -50, nil)
	if err != nil {
		t.Fatal(err)
	}
	burns, err := a.GetBurns()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range burns.MultiAsset.Policies() {
		for _, n := range burns.MultiAsset.Assets(p) {
			qty := burns.MultiAsset.Asset(p, n)
			if qty.Sign() <= 0 {
				t.Errorf("expected positive burn quantity, got %s", qty.String())
			}
		}
	}
}

func TestAddWithdrawal(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	a, err := a.AddWithdrawal(addr, 1_000_000, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.withdrawals) != 1 {
		t.Fatalf("expected 1 withdrawal, got %d", len(a.withdrawals))
	}
	total := a.totalWithdrawalValue()
	if total.Coin.Int64() != 1_000_000 {
		t.Errorf("expected 1000000, got %d", total.Coin.Int64())
	}
}

func TestAddWithdrawalNoStaking(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	raw := make([]byte, 29)
	raw[0] = 0x60 // enterprise address
	addr, err := common.NewAddressFromBytes(raw)
	if err != nil {
		t.Fatal(err)
	}
	_, err = a.AddWithdrawal(addr, 1_000_000, nil)
	if err == nil {
		t.Error("expected error for address without a staking component")
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

func TestRegisterStakeCertificate(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	cred, err := GetStakeCredentialFromAddress(addr)
	if err != nil {
		t.Fatal(err)
	}
	a = a.RegisterStake(cred)
	if len(a.certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(a.certificates))
	}
	if a.certificates[0].Kind != cert.KindStakeRegistration {
		t.Errorf("expected registration kind, got %v", a.certificates[0].Kind)
	}
}

func TestSetShelleyMetadataString(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	a.SetShelleyMetadata(map[uint64]any{1: "hello"})
	labels, err := a.buildMetadataLabels()
	if err != nil {
		t.Fatal(err)
	}
	if len(labels) != 1 || labels[0].Label != 1 {
		t.Fatalf("expected 1 label keyed 1, got %+v", labels)
	}
}

func TestSetShelleyMetadataNestedMap(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	a.SetShelleyMetadata(map[uint64]any{
		1: map[string]any{"a": int64(1), "b": []any{"x", "y"}},
	})
	labels, err := a.buildMetadataLabels()
	if err != nil {
		t.Fatal(err)
	}
	if len(labels) != 1 {
		t.Fatalf("expected 1 label, got %d", len(labels))
	}
}

func TestSetShelleyMetadataUnsupportedType(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	a.SetShelleyMetadata(map[uint64]any{1: 3.14})
	_, err := a.buildMetadataLabels()
	if err == nil {
		t.Error("expected error for unsupported metadata value type")
	}
}

func TestBuildAuxiliaryDataEmpty(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	aux, err := a.buildAuxiliaryData()
	if err != nil {
		t.Fatal(err)
	}
	if aux != nil {
		t.Error("expected nil auxiliary data when no metadata is set")
	}
}

func TestValueHasPositiveAndAssets(t *testing.T) {
	v := value.NewValue(value.NewCoin(0))
	if valueHasPositive(v) {
		t.Error("zero value should not be positive")
	}
	if valueHasAssets(v) {
		t.Error("zero value should not have assets")
	}
	v2 := value.NewValue(value.NewCoin(1))
	if !valueHasPositive(v2) {
		t.Error("non-zero coin should be positive")
	}
}

func TestUtxoRef(t *testing.T) {
	var hash common.Blake2b256
	hash[0] = 0xaa
	utxo := makeTestUtxo(t, hash, 3, 1_000_000)
	ref := utxoRef(utxo)
	if ref == "" {
		t.Error("expected non-empty utxo ref")
	}
}

func TestSelectCoinsInsufficientFunds(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	required := value.NewValue(value.NewCoin(10_000_000))
	_, err := a.selectCoins(required, value.NewValue(value.NewCoin(0)))
	if err == nil {
		t.Error("expected insufficient funds error with an empty utxo pool")
	}
}

func TestSelectCoinsSatisfiedByPreselection(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	required := value.NewValue(value.NewCoin(1_000_000))
	selected, err := a.selectCoins(required, value.NewValue(value.NewCoin(2_000_000)))
	if err != nil {
		t.Fatal(err)
	}
	if len(selected) != 0 {
		t.Errorf("expected no additional selection needed, got %d", len(selected))
	}
}

func TestCompleteSimplePayment(t *testing.T) {
	cc := setupFixedContext()
	addr := testAddress(t)
	addTestUtxo(cc, addr, 10_000_000, 0x01, 0)

	w := NewExternalWallet(addr)
	a := New(cc).SetWallet(w).SetTtl(100000)
	a.PayToAddress(addr, 2_000_000)

	a, err := a.Complete()
	if err != nil {
		t.Fatal(err)
	}
	tx := a.GetTx()
	if tx == nil {
		t.Fatal("expected non-nil transaction")
	}
	if tx.Body.Fee == 0 {
		t.Error("expected a non-zero estimated fee")
	}
}

func TestCompleteIsOneShot(t *testing.T) {
	cc := setupFixedContext()
	addr := testAddress(t)
	addTestUtxo(cc, addr, 10_000_000, 0x01, 0)

	w := NewExternalWallet(addr)
	a := New(cc).SetWallet(w)
	a.PayToAddress(addr, 2_000_000)

	a, err := a.Complete()
	if err != nil {
		t.Fatal(err)
	}
	_, err = a.Complete()
	if err == nil {
		t.Error("expected error calling Complete twice")
	}
}

func TestCompleteInsufficientFunds(t *testing.T) {
	cc := setupFixedContext()
	addr := testAddress(t)
	addTestUtxo(cc, addr, 1_000_000, 0x01, 0)

	w := NewExternalWallet(addr)
	a := New(cc).SetWallet(w)
	a.PayToAddress(addr, 50_000_000)

	_, err := a.Complete()
	if err == nil {
		t.Error("expected coin selection to fail for insufficient funds")
	}
}

func TestCompleteWithForceFee(t *testing.T) {
	cc := setupFixedContext()
	addr := testAddress(t)
	addTestUtxo(cc, addr, 10_000_000, 0x01, 0)

	w := NewExternalWallet(addr)
	a := New(cc).SetWallet(w).ForceFee(250_000)
	a.PayToAddress(addr, 2_000_000)

	a, err := a.Complete()
	if err != nil {
		t.Fatal(err)
	}
	if a.GetTx().Body.Fee != 250_000 {
		t.Errorf("expected fee pinned to 250000, got %d", a.GetTx().Body.Fee)
	}
}

func TestSignAndGetTxCbor(t *testing.T) {
	cc := setupFixedContext()
	addr := testAddress(t)
	addTestUtxo(cc, addr, 10_000_000, 0x01, 0)

	w, err := NewBursaWallet(testMnemonic())
	if err != nil {
		t.Fatal(err)
	}
	a := New(cc).SetWallet(w)
	a.AddInputAddress(w.Address())
	a.PayToAddress(w.Address(), 2_000_000)

	a, err = a.Complete()
	if err != nil {
		t.Fatal(err)
	}
	a, err = a.Sign()
	if err != nil {
		t.Fatal(err)
	}
	if len(a.tx.WitnessSet.VKeyWitnessItems()) != 1 {
		t.Fatalf("expected 1 vkey witness, got %d", len(a.tx.WitnessSet.VKeyWitnessItems()))
	}
	raw, err := a.GetTxCbor()
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) == 0 {
		t.Error("expected non-empty CBOR")
	}
}

func TestGetTxCborNoTransaction(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	_, err := a.GetTxCbor()
	if err == nil {
		t.Error("expected error when no transaction has been built")
	}
}

func TestLoadTxCborRoundTrip(t *testing.T) {
	cc := setupFixedContext()
	addr := testAddress(t)
	addTestUtxo(cc, addr, 10_000_000, 0x01, 0)

	w := NewExternalWallet(addr)
	a := New(cc).SetWallet(w)
	a.PayToAddress(addr, 2_000_000)
	a, err := a.Complete()
	if err != nil {
		t.Fatal(err)
	}
	raw, err := a.GetTxCbor()
	if err != nil {
		t.Fatal(err)
	}

	b := New(cc)
	b, err = b.LoadTxCbor(raw)
	if err != nil {
		t.Fatal(err)
	}
	if b.GetTx() == nil {
		t.Fatal("expected non-nil loaded transaction")
	}
	if b.GetTx().Hash() != a.GetTx().Hash() {
		t.Error("expected round-tripped transaction to hash identically")
	}
}

func TestClone(t *testing.T) {
	cc := setupFixedContext()
	addr := testAddress(t)
	addTestUtxo(cc, addr, 10_000_000, 0x01, 0)

	w := NewExternalWallet(addr)
	a := New(cc).SetWallet(w)
	a.PayToAddress(addr, 2_000_000)
	a, err := a.Complete()
	if err != nil {
		t.Fatal(err)
	}

	clone := a.Clone()
	if clone.GetTx() == nil {
		t.Fatal("expected cloned transaction to be non-nil")
	}
	if clone.GetTx().Hash() != a.GetTx().Hash() {
		t.Error("expected clone to hash identically to the original")
	}
}

func TestSignNoTransaction(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	_, err := a.Sign()
	if err == nil {
		t.Error("expected error signing before Complete")
	}
}

func TestUtxoFromRefInvalidHash(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	_, err := a.UtxoFromRef("not-hex", 0)
	if err == nil {
		t.Error("expected error for invalid tx hash")
	}
}

func TestCompleteWithMint(t *testing.T) {
	cc := setupFixedContext()
	addr := testAddress(t)
	addTestUtxo(cc, addr, 10_000_000, 0x01, 0)

	w := NewExternalWallet(addr)
	a := New(cc).SetWallet(w)
	a.PayToAddress(addr, 2_000_000)
	policy := testPolicyId(0x01)
	a, err := a.Mint(policy, "746f6b656e", 10, nil)
	if err != nil {
		t.Fatal(err)
	}

	a, err = a.Complete()
	if err != nil {
		t.Fatal(err)
	}
	if a.GetTx().Body.Mint == nil {
		t.Fatal("expected mint field set on the transaction body")
	}
}

var _ = txbody.Utxo{}
