// Package apollo implements a fluent Cardano transaction builder: input
// selection, fee estimation, certificate and withdrawal assembly, script
// witness bookkeeping, and final CBOR serialization.
package apollo

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"

	"github.com/Salvionied/apollo/v2/backend"
	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/ledger/cert"
	"github.com/Salvionied/apollo/v2/ledger/common"
	"github.com/Salvionied/apollo/v2/ledger/metadatum"
	"github.com/Salvionied/apollo/v2/ledger/nativescript"
	"github.com/Salvionied/apollo/v2/ledger/plutusdata"
	"github.com/Salvionied/apollo/v2/ledger/tx"
	"github.com/Salvionied/apollo/v2/ledger/txbody"
	"github.com/Salvionied/apollo/v2/ledger/value"
	"github.com/Salvionied/apollo/v2/ledger/witness"
)

// ExMemoryBuffer and ExStepBuffer pad Context.EvaluateTx's execution-unit
// estimate, since the real transaction (once witnessed) is larger than the
// preliminary one evaluated and so costs slightly more to run.
const (
	ExMemoryBuffer = 0.2
	ExStepBuffer   = 0.2

	// StakeDeposit is the fallback key deposit used when a backend's
	// protocol parameters don't carry a parseable key_deposit.
	StakeDeposit = 2_000_000

	maxFeeIterations = 3
)

// redeemerEntry is a redeemer pending index assignment; the index isn't
// known until the inputs/policies/withdrawals it is keyed against are
// sorted into their final wire order at Complete time.
type redeemerEntry struct {
	Data    *plutusdata.Data
	ExUnits witness.ExUnits
}

// withdrawalEntry is one pending reward withdrawal.
type withdrawalEntry struct {
	Address  common.Address
	Amount   uint64
	Redeemer *plutusdata.Data
}

// scriptSet collects attached scripts by family, mirroring the witness
// set's own per-language fields.
type scriptSet struct {
	native []*nativescript.Script
	v1     []common.PlutusV1Script
	v2     []common.PlutusV2Script
	v3     []common.PlutusV3Script
}

// Apollo is a fluent transaction builder. Every mutating method returns
// the receiver so calls can be chained; Complete assembles the final
// transaction body and witness set from the accumulated state.
type Apollo struct {
	Context backend.ChainContext

	Fee        int64
	FeePadding int64
	forceFee   bool

	wallet Wallet

	payments         []PaymentI
	preselectedUtxos []txbody.Utxo
	utxos            []txbody.Utxo
	usedRefs         map[string]bool

	collateral []txbody.Utxo

	ttl                   *uint64
	validityIntervalStart *uint64

	inputAddresses []common.Address
	changeAddress  *common.Address

	certificates []*cert.Certificate

	withdrawals map[string]withdrawalEntry // keyed by reward address string

	requiredSigners []common.Blake2b224
	referenceInputs []txbody.TransactionInput

	mintAssets     map[value.PolicyId]map[value.AssetName]*big.Int
	mintRedeemers  map[string]redeemerEntry // keyed by policy ID hex
	redeemers      map[string]redeemerEntry // keyed by utxoRef
	stakeRedeemers map[string]redeemerEntry // keyed by stake credential hash hex

	datums  []*plutusdata.Data
	scripts scriptSet

	vkeyWitnesses []witness.VKeyWitness

	metadata map[uint64]any

	isEstimateRequired bool
	estimateExUnits    bool

	tx *tx.Transaction
}

// New creates a transaction builder against the given chain backend.
func New(cc backend.ChainContext) *Apollo {
	return &Apollo{
		Context:        cc,
		usedRefs:       make(map[string]bool),
		withdrawals:    make(map[string]withdrawalEntry),
		mintRedeemers:  make(map[string]redeemerEntry),
		redeemers:      make(map[string]redeemerEntry),
		stakeRedeemers: make(map[string]redeemerEntry),

		estimateExUnits: true,
	}
}

// --- Wallet ---

// SetWallet attaches a wallet used for input discovery, change, and signing.
func (a *Apollo) SetWallet(w Wallet) *Apollo {
	a.wallet = w
	return a
}

// SetWalletFromMnemonic derives and attaches a BursaWallet from a mnemonic.
func (a *Apollo) SetWalletFromMnemonic(mnemonic string) (*Apollo, error) {
	return a.SetWalletFromMnemonicWithPassphrase(mnemonic, "")
}

// SetWalletFromMnemonicWithPassphrase derives and attaches a BursaWallet
// from a mnemonic and BIP39 passphrase.
func (a *Apollo) SetWalletFromMnemonicWithPassphrase(mnemonic, passphrase string) (*Apollo, error) {
	w, err := NewBursaWalletWithPassphrase(mnemonic, passphrase)
	if err != nil {
		return a, fmt.Errorf("failed to derive wallet: %w", err)
	}
	a.wallet = w
	return a, nil
}

// GetWallet returns the attached wallet, or nil if none was set.
func (a *Apollo) GetWallet() Wallet {
	return a.wallet
}

// --- Payments ---

// AddPayment queues a payment to be included as a transaction output.
func (a *Apollo) AddPayment(p PaymentI) *Apollo {
	a.payments = append(a.payments, p)
	return a
}

// PayToAddress queues a simple lovelace(+assets) payment to an address.
func (a *Apollo) PayToAddress(addr common.Address, lovelace int64, units ...Unit) *Apollo {
	a.payments = append(a.payments, &Payment{Receiver: addr, Lovelace: lovelace, Units: units})
	return a
}

// PayToAddressWithReferenceScript queues a payment that also attaches a
// reference script to the output, usable by later transactions as a
// reference input instead of supplying the script inline.
func (a *Apollo) PayToAddressWithReferenceScript(addr common.Address, lovelace int64, script common.Script, units ...Unit) (*Apollo, error) {
	ref, err := NewScriptRef(script)
	if err != nil {
		return a, fmt.Errorf("failed to build script ref: %w", err)
	}
	a.payments = append(a.payments, &Payment{Receiver: addr, Lovelace: lovelace, Units: units, ScriptRef: ref})
	return a, nil
}

// PayToContract queues a payment to a script address carrying an inline
// datum (the datum travels with the output itself).
func (a *Apollo) PayToContract(addr common.Address, datum *plutusdata.Data, lovelace int64, units ...Unit) (*Apollo, error) {
	if datum == nil {
		return a, fmt.Errorf("datum must not be nil")
	}
	a.payments = append(a.payments, &Payment{Receiver: addr, Lovelace: lovelace, Units: units, Datum: datum, IsInline: true})
	return a, nil
}

// PayToContractWithDatumHash queues a payment to a script address that
// carries only the datum's hash; the datum itself is added to the
// witness set's plutus data, since the spender must supply its preimage.
func (a *Apollo) PayToContractWithDatumHash(addr common.Address, datum *plutusdata.Data, lovelace int64, units ...Unit) (*Apollo, error) {
	if datum == nil {
		return a, fmt.Errorf("datum must not be nil")
	}
	w := cbor.NewWriter()
	datum.WriteToCBOR(w)
	hash := common.HashBlake2b256(w.Bytes())
	a.payments = append(a.payments, &Payment{Receiver: addr, Lovelace: lovelace, Units: units, DatumHash: hash.Bytes()})
	a.datums = append(a.datums, datum)
	return a, nil
}

// --- Inputs ---

// AddLoadedUTxOs adds UTxOs to the pool available for coin selection.
func (a *Apollo) AddLoadedUTxOs(utxos ...txbody.Utxo) *Apollo {
	a.utxos = append(a.utxos, utxos...)
	return a
}

// AddInput pins UTxOs as guaranteed transaction inputs, outside of coin selection.
func (a *Apollo) AddInput(utxos ...txbody.Utxo) *Apollo {
	a.preselectedUtxos = append(a.preselectedUtxos, utxos...)
	return a
}

// CollectFrom pins a UTxO as a guaranteed input and, if it is locked by
// a Plutus script, records the redeemer used to unlock it.
func (a *Apollo) CollectFrom(utxo txbody.Utxo, redeemer *plutusdata.Data) (*Apollo, error) {
	a.preselectedUtxos = append(a.preselectedUtxos, utxo)
	if redeemer != nil {
		a.redeemers[utxoRef(utxo)] = redeemerEntry{Data: redeemer}
		a.isEstimateRequired = true
	}
	return a, nil
}

// AddInputAddress registers an address whose UTxOs should be fetched
// from the chain context and made available to coin selection.
func (a *Apollo) AddInputAddress(addr common.Address) *Apollo {
	a.inputAddresses = append(a.inputAddresses, addr)
	return a
}

// ConsumeUTxO pins a UTxO as a guaranteed input without any redeemer,
// for plain (non-script) spends whose value should count toward funding
// the transaction.
func (a *Apollo) ConsumeUTxO(utxo txbody.Utxo) *Apollo {
	a.preselectedUtxos = append(a.preselectedUtxos, utxo)
	return a
}

// UtxoFromRef resolves a UTxO by transaction hash and output index via
// the chain context.
func (a *Apollo) UtxoFromRef(txHash string, txIndex int) (*txbody.Utxo, error) {
	raw, err := hex.DecodeString(txHash)
	if err != nil {
		return nil, fmt.Errorf("invalid tx hash %q: %w", txHash, err)
	}
	if len(raw) != common.Blake2b256Size {
		return nil, fmt.Errorf("invalid tx hash length: expected %d bytes, got %d", common.Blake2b256Size, len(raw))
	}
	if txIndex < 0 || txIndex > math.MaxUint32 {
		return nil, fmt.Errorf("output index %d out of range", txIndex)
	}
	hash := common.NewBlake2b256(raw)
	return a.Context.UtxoByRef(hash, uint32(txIndex))
}

// GetUsedUTxOs returns the string refs (txhash#index) of every UTxO
// currently pinned or consumed by coin selection.
func (a *Apollo) GetUsedUTxOs() []string {
	refs := make([]string, 0, len(a.preselectedUtxos)+len(a.usedRefs))
	for _, u := range a.preselectedUtxos {
		refs = append(refs, utxoRef(u))
	}
	for ref := range a.usedRefs {
		refs = append(refs, ref)
	}
	return refs
}

// --- Required signers ---

// AddRequiredSigner records a key hash that must sign the transaction.
func (a *Apollo) AddRequiredSigner(hash common.Blake2b224) *Apollo {
	a.requiredSigners = append(a.requiredSigners, hash)
	return a
}

// AddRequiredSignerPaymentKey requires the payment key of addr to sign.
func (a *Apollo) AddRequiredSignerPaymentKey(addr common.Address) *Apollo {
	return a.AddRequiredSigner(common.NewBlake2b224(addr.PaymentCredentialHash()))
}

// AddRequiredSignerStakeKey requires the staking key of addr to sign.
func (a *Apollo) AddRequiredSignerStakeKey(addr common.Address) *Apollo {
	hash := addr.StakeCredentialHash()
	if len(hash) == 0 {
		return a
	}
	return a.AddRequiredSigner(common.NewBlake2b224(hash))
}

// --- Validity interval, fee, change ---

// SetTtl sets the transaction's upper validity bound (slot number).
func (a *Apollo) SetTtl(slot uint64) *Apollo {
	a.ttl = &slot
	return a
}

// SetValidityStart sets the transaction's lower validity bound (slot number).
func (a *Apollo) SetValidityStart(slot uint64) *Apollo {
	a.validityIntervalStart = &slot
	return a
}

// SetFee fixes the minimum fee to use, overriding estimation if higher.
func (a *Apollo) SetFee(fee int64) *Apollo {
	a.Fee = fee
	return a
}

// SetFeePadding adds a fixed amount on top of the estimated fee, as a
// safety margin against estimation drift.
func (a *Apollo) SetFeePadding(padding int64) *Apollo {
	a.FeePadding = padding
	return a
}

// ForceFee pins the fee to exactly this value, skipping estimation and
// convergence entirely.
func (a *Apollo) ForceFee(fee int64) *Apollo {
	a.Fee = fee
	a.forceFee = true
	return a
}

// SetChangeAddress sets the address that receives leftover input value.
func (a *Apollo) SetChangeAddress(addr common.Address) *Apollo {
	a.changeAddress = &addr
	return a
}

// DisableExecutionUnitsEstimation opts out of calling Context.EvaluateTx
// during Complete, for callers that set redeemer ExUnits manually.
func (a *Apollo) DisableExecutionUnitsEstimation() *Apollo {
	a.estimateExUnits = false
	return a
}

// --- Collateral ---

// AddCollateral pins a UTxO as transaction collateral, preventing
// automatic collateral selection.
func (a *Apollo) AddCollateral(utxo txbody.Utxo) *Apollo {
	a.collateral = append(a.collateral, utxo)
	return a
}

// SetCollateralAmount clears any pinned collateral, reverting to
// automatic selection sized off the protocol's collateral percentage.
func (a *Apollo) SetCollateralAmount(int64) *Apollo {
	a.collateral = nil
	return a
}

// --- Datums & scripts ---

// AddDatum adds a datum to the witness set's plutus data list.
func (a *Apollo) AddDatum(datum *plutusdata.Data) *Apollo {
	a.datums = append(a.datums, datum)
	return a
}

// AddReferenceInput adds a UTxO as a reference input: visible to
// scripts but not spent.
func (a *Apollo) AddReferenceInput(txHash string, index uint64) (*Apollo, error) {
	raw, err := hex.DecodeString(txHash)
	if err != nil {
		return a, fmt.Errorf("invalid tx hash %q: %w", txHash, err)
	}
	if len(raw) != common.Blake2b256Size {
		return a, fmt.Errorf("invalid tx hash length: expected %d bytes, got %d", common.Blake2b256Size, len(raw))
	}
	a.referenceInputs = append(a.referenceInputs, txbody.NewTransactionInput(common.NewBlake2b256(raw), index))
	return a, nil
}

// AttachScript attaches a native or Plutus script to the witness set.
func (a *Apollo) AttachScript(script common.Script) (*Apollo, error) {
	switch s := script.(type) {
	case *nativescript.Script:
		a.scripts.native = append(a.scripts.native, s)
	case common.PlutusV1Script:
		a.scripts.v1 = append(a.scripts.v1, s)
	case common.PlutusV2Script:
		a.scripts.v2 = append(a.scripts.v2, s)
	case common.PlutusV3Script:
		a.scripts.v3 = append(a.scripts.v3, s)
	default:
		return a, fmt.Errorf("unsupported script type %T", script)
	}
	return a, nil
}

func (a *Apollo) hasScripts() bool {
	return len(a.scripts.native) > 0 || len(a.scripts.v1) > 0 || len(a.scripts.v2) > 0 || len(a.scripts.v3) > 0
}

// --- Minting ---

// Mint adds (or, for a negative quantity, burns) a native asset amount
// under policyId, attaching redeemer as the mint redeemer for that
// policy when the policy is script-controlled.
func (a *Apollo) Mint(policyId common.Blake2b224, assetNameHex string, quantity int64, redeemer *plutusdata.Data) (*Apollo, error) {
	nameBytes, err := hex.DecodeString(assetNameHex)
	if err != nil {
		return a, fmt.Errorf("invalid asset name hex %q: %w", assetNameHex, err)
	}
	assetName, err := value.NewAssetName(nameBytes)
	if err != nil {
		return a, fmt.Errorf("invalid asset name: %w", err)
	}
	if a.mintAssets == nil {
		a.mintAssets = make(map[value.PolicyId]map[value.AssetName]*big.Int)
	}
	if a.mintAssets[policyId] == nil {
		a.mintAssets[policyId] = make(map[value.AssetName]*big.Int)
	}
	existing := a.mintAssets[policyId][assetName]
	if existing == nil {
		existing = big.NewInt(0)
	}
	a.mintAssets[policyId][assetName] = new(big.Int).Add(existing, big.NewInt(quantity))
	if redeemer != nil {
		a.mintRedeemers[policyId.String()] = redeemerEntry{Data: redeemer}
		a.isEstimateRequired = true
	}
	return a, nil
}

func (a *Apollo) hasMint() bool { return len(a.mintAssets) > 0 }

func (a *Apollo) mintValue() (value.Value, error) {
	if !a.hasMint() {
		return value.NewValue(value.NewCoin(0)), nil
	}
	data := make(map[value.PolicyId]map[value.AssetName]*big.Int, len(a.mintAssets))
	for p, assets := range a.mintAssets {
		inner := make(map[value.AssetName]*big.Int, len(assets))
		for n, qty := range assets {
			inner[n] = new(big.Int).Set(qty)
		}
		data[p] = inner
	}
	return value.NewValueWithAssets(value.NewCoin(0), value.NewMultiAsset(data)), nil
}

// GetMints returns the net mint value accumulated so far.
func (a *Apollo) GetMints() (value.Value, error) { return a.mintValue() }

// GetBurns returns the negative (burned) portion of the accumulated
// mint value, expressed as positive quantities.
func (a *Apollo) GetBurns() (value.Value, error) {
	mv, err := a.mintValue()
	if err != nil {
		return value.Value{}, err
	}
	data := make(map[value.PolicyId]map[value.AssetName]*big.Int)
	for _, p := range mv.MultiAsset.Policies() {
		for _, n := range mv.MultiAsset.Assets(p) {
			qty := mv.MultiAsset.Asset(p, n)
			if qty.Sign() < 0 {
				if data[p] == nil {
					data[p] = make(map[value.AssetName]*big.Int)
				}
				data[p][n] = new(big.Int).Neg(qty)
			}
		}
	}
	return value.NewValueWithAssets(value.NewCoin(0), value.NewMultiAsset(data)), nil
}

func (a *Apollo) sortedMintPolicyIds() []string {
	keys := make([]string, 0, len(a.mintAssets))
	for p := range a.mintAssets {
		keys = append(keys, p.String())
	}
	sort.Strings(keys)
	return keys
}

// --- Withdrawals ---

// AddWithdrawal queues a reward withdrawal from addr's stake account.
func (a *Apollo) AddWithdrawal(addr common.Address, amount uint64, redeemer *plutusdata.Data) (*Apollo, error) {
	skh := addr.StakeCredentialHash()
	if len(skh) == 0 {
		return a, fmt.Errorf("address has no staking component")
	}
	a.withdrawals[addr.String()] = withdrawalEntry{Address: addr, Amount: amount, Redeemer: redeemer}
	if redeemer != nil {
		hash := common.NewBlake2b224(skh)
		a.stakeRedeemers[hash.String()] = redeemerEntry{Data: redeemer}
		a.isEstimateRequired = true
	}
	return a, nil
}

func (a *Apollo) totalWithdrawalValue() value.Value {
	var total uint64
	for _, wd := range a.withdrawals {
		total += wd.Amount
	}
	return value.NewValue(value.NewCoin(int64(total)))
}

// sortedWithdrawalKeys returns the withdrawal map's keys (reward address
// strings) ordered by their encoded address bytes, the order redeemer
// indices are assigned in.
func (a *Apollo) sortedWithdrawalKeys() []string {
	keys := make([]string, 0, len(a.withdrawals))
	for k := range a.withdrawals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		bi := a.withdrawals[keys[i]].Address.Bytes()
		bj := a.withdrawals[keys[j]].Address.Bytes()
		return compareBytes(bi, bj) < 0
	})
	return keys
}

func compareBytes(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// --- Certificates / staking ---

// GetStakeCredentialFromWallet returns the attached wallet's staking credential.
func (a *Apollo) GetStakeCredentialFromWallet() (common.Credential, error) {
	if a.wallet == nil {
		return common.Credential{}, fmt.Errorf("no wallet attached")
	}
	return GetStakeCredentialFromAddress(a.wallet.Address())
}

// SetCertificates replaces the pending certificate list.
func (a *Apollo) SetCertificates(certs []*cert.Certificate) *Apollo {
	a.certificates = certs
	return a
}

func (a *Apollo) addCertificate(c cert.Certificate) *Apollo {
	a.certificates = append(a.certificates, &c)
	return a
}

// RegisterStake registers cred's stake key (Shelley-style, no on-wire deposit).
func (a *Apollo) RegisterStake(cred common.Credential) *Apollo {
	return a.addCertificate(cert.NewStakeRegistration(cred))
}

// DeregisterStake deregisters cred's stake key, refunding its deposit.
func (a *Apollo) DeregisterStake(cred common.Credential) *Apollo {
	return a.addCertificate(cert.NewStakeDeregistration(cred))
}

// DelegateStake delegates cred's stake to pool.
func (a *Apollo) DelegateStake(cred common.Credential, pool common.Blake2b224) *Apollo {
	return a.addCertificate(cert.NewStakeDelegation(cred, pool))
}

// RegisterAndDelegateStake registers and delegates cred's stake to pool
// in a single Conway-era certificate, paying deposit.
func (a *Apollo) RegisterAndDelegateStake(cred common.Credential, pool common.Blake2b224, deposit uint64) *Apollo {
	return a.addCertificate(cert.NewStakeRegistrationDelegation(cred, pool, deposit))
}

// DelegateVote delegates cred's voting power to drep.
func (a *Apollo) DelegateVote(cred common.Credential, drep common.Drep) *Apollo {
	return a.addCertificate(cert.NewVoteDelegation(cred, drep))
}

// DelegateStakeAndVote delegates cred's stake to pool and voting power to drep.
func (a *Apollo) DelegateStakeAndVote(cred common.Credential, pool common.Blake2b224, drep common.Drep) *Apollo {
	return a.addCertificate(cert.NewStakeVoteDelegation(cred, pool, drep))
}

// RegisterAndDelegateVote registers cred's stake and delegates voting power to drep.
func (a *Apollo) RegisterAndDelegateVote(cred common.Credential, drep common.Drep, deposit uint64) *Apollo {
	return a.addCertificate(cert.NewVoteRegistrationDelegation(cred, drep, deposit))
}

// RegisterAndDelegateStakeAndVote registers cred's stake and delegates
// both stake and voting power in one certificate.
func (a *Apollo) RegisterAndDelegateStakeAndVote(cred common.Credential, pool common.Blake2b224, drep common.Drep, deposit uint64) *Apollo {
	return a.addCertificate(cert.NewStakeVoteRegistrationDelegation(cred, pool, drep, deposit))
}

// RegisterPool registers a stake pool.
func (a *Apollo) RegisterPool(params cert.PoolParams) *Apollo {
	return a.addCertificate(cert.NewPoolRegistration(params))
}

// DeregisterPool retires pool, effective at the given epoch.
func (a *Apollo) DeregisterPool(pool common.Blake2b224, epoch uint64) *Apollo {
	return a.addCertificate(cert.NewPoolRetirement(pool, epoch))
}

// --- Metadata ---

// SetShelleyMetadata sets the transaction's auxiliary metadata, keyed by
// label. Supported value types: string, int, int64, uint64, []byte,
// *metadatum.Metadatum, map[string]any, map[uint64]any, and []any, each
// recursively in terms of the same set.
func (a *Apollo) SetShelleyMetadata(metadata map[uint64]any) *Apollo {
	a.metadata = metadata
	return a
}

func toMetadatum(v any) (*metadatum.Metadatum, error) {
	switch tv := v.(type) {
	case *metadatum.Metadatum:
		return tv, nil
	case string:
		return metadatum.NewText(tv), nil
	case int:
		return metadatum.NewIntFromInt64(int64(tv)), nil
	case int64:
		return metadatum.NewIntFromInt64(tv), nil
	case uint64:
		return metadatum.NewInt(new(big.Int).SetUint64(tv)), nil
	case []byte:
		return metadatum.NewBytes(tv), nil
	case map[string]any:
		keys := make([]string, 0, len(tv))
		for k := range tv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]metadatum.MapEntry, 0, len(tv))
		for _, k := range keys {
			val, err := toMetadatum(tv[k])
			if err != nil {
				return nil, fmt.Errorf("map key %q: %w", k, err)
			}
			entries = append(entries, metadatum.MapEntry{Key: metadatum.NewText(k), Value: val})
		}
		return metadatum.NewMap(entries), nil
	case map[uint64]any:
		keys := make([]uint64, 0, len(tv))
		for k := range tv {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		entries := make([]metadatum.MapEntry, 0, len(tv))
		for _, k := range keys {
			val, err := toMetadatum(tv[k])
			if err != nil {
				return nil, fmt.Errorf("map key %d: %w", k, err)
			}
			entries = append(entries, metadatum.MapEntry{Key: metadatum.NewInt(new(big.Int).SetUint64(k)), Value: val})
		}
		return metadatum.NewMap(entries), nil
	case []any:
		items := make([]*metadatum.Metadatum, 0, len(tv))
		for i, item := range tv {
			m, err := toMetadatum(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			items = append(items, m)
		}
		return metadatum.NewList(items), nil
	default:
		return nil, fmt.Errorf("unsupported metadata value type %T", v)
	}
}

func (a *Apollo) buildMetadataLabels() ([]tx.MetadatumLabel, error) {
	if len(a.metadata) == 0 {
		return nil, nil
	}
	keys := make([]uint64, 0, len(a.metadata))
	for k := range a.metadata {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	labels := make([]tx.MetadatumLabel, 0, len(keys))
	for _, k := range keys {
		val, err := toMetadatum(a.metadata[k])
		if err != nil {
			return nil, fmt.Errorf("metadata label %d: %w", k, err)
		}
		labels = append(labels, tx.MetadatumLabel{Label: k, Value: val})
	}
	return labels, nil
}

func (a *Apollo) buildAuxiliaryData() (*tx.AuxiliaryData, error) {
	labels, err := a.buildMetadataLabels()
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, nil
	}
	return &tx.AuxiliaryData{Metadata: labels}, nil
}

func (a *Apollo) computeAuxDataHash() (*common.Blake2b256, error) {
	aux, err := a.buildAuxiliaryData()
	if err != nil {
		return nil, fmt.Errorf("failed to build auxiliary data: %w", err)
	}
	if aux == nil {
		return nil, nil
	}
	w := cbor.NewWriter()
	if err := aux.WriteToCBOR(w); err != nil {
		return nil, fmt.Errorf("failed to encode auxiliary data: %w", err)
	}
	hash := common.HashBlake2b256(w.Bytes())
	return &hash, nil
}

// --- Value helpers ---
//
// Coin/Value/MultiAsset arithmetic in ledger/value is entirely big.Int
// backed and never overflows or errors, so balance checks reduce to a
// sign test instead of the saturating/overflow-checked uint64 math an
// older, uint64-valued builder would need.

func valueHasPositive(v value.Value) bool {
	if v.Coin.BigInt().Sign() > 0 {
		return true
	}
	for _, p := range v.MultiAsset.Policies() {
		for _, n := range v.MultiAsset.Assets(p) {
			if v.MultiAsset.Asset(p, n).Sign() > 0 {
				return true
			}
		}
	}
	return false
}

func valueHasAssets(v value.Value) bool {
	return !v.MultiAsset.Normalize().IsEmpty()
}

// --- UTxO bookkeeping ---

func utxoRef(u txbody.Utxo) string {
	return u.Input.TransactionId.String() + "#" + strconv.FormatUint(u.Input.Index, 10)
}

func (a *Apollo) isUsed(u txbody.Utxo) bool {
	ref := utxoRef(u)
	if a.usedRefs[ref] {
		return true
	}
	for _, p := range a.preselectedUtxos {
		if utxoRef(p) == ref {
			return true
		}
	}
	return false
}

func (a *Apollo) sumUtxoValues(utxos []txbody.Utxo) value.Value {
	total := value.NewValue(value.NewCoin(0))
	for _, u := range utxos {
		total = total.Add(u.Output.Amount)
	}
	return total
}

func (a *Apollo) totalPreselectedValue() value.Value {
	return a.sumUtxoValues(a.preselectedUtxos)
}

func (a *Apollo) totalOutputValue(outputs []*txbody.TransactionOutput) value.Value {
	total := value.NewValue(value.NewCoin(0))
	for _, o := range outputs {
		total = total.Add(o.Amount)
	}
	return total
}

// selectCoins greedily selects from the free UTxO pool (ADA-only first,
// largest first, per SortUtxos) until required's value is covered by
// alreadyCovered plus the selection.
func (a *Apollo) selectCoins(required value.Value, alreadyCovered value.Value) ([]txbody.Utxo, error) {
	remaining := required.Sub(alreadyCovered)
	if !valueHasPositive(remaining) {
		return nil, nil
	}
	var selected []txbody.Utxo
	for _, u := range SortUtxos(a.utxos) {
		if !valueHasPositive(remaining) {
			break
		}
		if a.isUsed(u) {
			continue
		}
		selected = append(selected, u)
		remaining = remaining.Sub(u.Output.Amount)
	}
	if valueHasPositive(remaining) {
		return nil, fmt.Errorf("insufficient funds: could not cover required value with available utxos")
	}
	return selected, nil
}

func (a *Apollo) getChangeAddress() (common.Address, error) {
	if a.changeAddress != nil {
		return *a.changeAddress, nil
	}
	if a.wallet != nil {
		return a.wallet.Address(), nil
	}
	if len(a.inputAddresses) > 0 {
		return a.inputAddresses[0], nil
	}
	return common.Address{}, fmt.Errorf("no change address set: call SetChangeAddress, SetWallet, or AddInputAddress")
}

// loadUtxos populates the free UTxO pool from the wallet and every
// registered input address.
func (a *Apollo) loadUtxos() error {
	if len(a.utxos) > 0 {
		return nil
	}
	addrs := make([]common.Address, 0, len(a.inputAddresses)+1)
	addrs = append(addrs, a.inputAddresses...)
	if a.wallet != nil {
		addrs = append(addrs, a.wallet.Address())
	}
	for _, addr := range addrs {
		utxos, err := a.Context.Utxos(addr)
		if err != nil {
			return fmt.Errorf("failed to fetch utxos for %s: %w", addr.String(), err)
		}
		a.utxos = append(a.utxos, utxos...)
	}
	return nil
}

// --- Certificate deposits ---

func resolvedKeyDeposit(pp backend.ProtocolParameters) uint64 {
	if pp.KeyDeposits != "" {
		if v, err := strconv.ParseUint(pp.KeyDeposits, 10, 64); err == nil {
			return v
		}
	}
	return StakeDeposit
}

// certificateDepositAdjustment returns the net lovelace the pending
// certificates require (positive) or refund (negative).
func (a *Apollo) certificateDepositAdjustment(keyDeposit uint64) int64 {
	var total int64
	for _, c := range a.certificates {
		switch c.Kind {
		case cert.KindStakeRegistration:
			total += int64(keyDeposit)
		case cert.KindStakeDeregistration:
			total -= int64(keyDeposit)
		case cert.KindStakeRegistrationDeposit,
			cert.KindStakeRegistrationDelegation,
			cert.KindVoteRegistrationDelegation,
			cert.KindStakeVoteRegistrationDelegation,
			cert.KindRegisterDrep:
			total += int64(c.Deposit)
		case cert.KindStakeDeregistrationDeposit, cert.KindUnregisterDrep:
			total -= int64(c.Deposit)
		}
	}
	return total
}

// --- Output assembly ---

func (a *Apollo) buildOutputs() ([]*txbody.TransactionOutput, error) {
	outputs := make([]*txbody.TransactionOutput, 0, len(a.payments))
	for i, p := range a.payments {
		if err := p.EnsureMinUTXO(a.Context); err != nil {
			return nil, fmt.Errorf("payment %d: %w", i, err)
		}
		out, err := p.ToTxOut()
		if err != nil {
			return nil, fmt.Errorf("payment %d: %w", i, err)
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// setCollateral auto-selects collateral from the free UTxO pool (when
// none was pinned) sized to cover CollateralPercent of the fee, and
// returns the chosen inputs plus a collateral-return output for any
// excess ADA, if collateral is needed at all.
func (a *Apollo) setCollateral(fee int64, pp backend.ProtocolParameters) ([]txbody.Utxo, *txbody.TransactionOutput, error) {
	if !a.hasScripts() && len(a.redeemers) == 0 && len(a.mintRedeemers) == 0 && len(a.stakeRedeemers) == 0 {
		return nil, nil, nil
	}
	if len(a.collateral) > 0 {
		return a.collateral, nil, nil
	}
	percent := int64(pp.CollateralPercent)
	if percent == 0 {
		percent = 150
	}
	target := fee * percent / 100
	changeAddr, err := a.getChangeAddress()
	if err != nil {
		return nil, nil, err
	}
	var selected []txbody.Utxo
	var totalCoin int64
	for _, u := range SortUtxos(a.utxos) {
		if totalCoin >= target {
			break
		}
		if a.isUsed(u) || !u.Output.Amount.MultiAsset.IsEmpty() {
			continue
		}
		selected = append(selected, u)
		totalCoin += u.Output.Amount.Coin.Int64()
	}
	if totalCoin < target {
		return nil, nil, fmt.Errorf("insufficient ada-only utxos for collateral: need %d, found %d", target, totalCoin)
	}
	for _, u := range selected {
		a.usedRefs[utxoRef(u)] = true
	}
	if remainder := totalCoin - target; remainder > 0 {
		out := NewBabbageOutput(changeAddr, value.NewValue(value.NewCoin(remainder)), nil, nil)
		return selected, &out, nil
	}
	return selected, nil, nil
}

// --- Fee & execution unit estimation ---

func (a *Apollo) buildRedeemerMap(inputs []txbody.Utxo) map[witness.RedeemerKey]witness.Redeemer {
	out := make(map[witness.RedeemerKey]witness.Redeemer)
	for idx, u := range inputs {
		if entry, ok := a.redeemers[utxoRef(u)]; ok {
			out[witness.RedeemerKey{Tag: witness.RedeemerTagSpend, Index: uint64(idx)}] = witness.Redeemer{
				Tag: witness.RedeemerTagSpend, Index: uint64(idx), Data: entry.Data, ExUnits: entry.ExUnits,
			}
		}
	}
	for idx, policyHex := range a.sortedMintPolicyIds() {
		if entry, ok := a.mintRedeemers[policyHex]; ok {
			out[witness.RedeemerKey{Tag: witness.RedeemerTagMint, Index: uint64(idx)}] = witness.Redeemer{
				Tag: witness.RedeemerTagMint, Index: uint64(idx), Data: entry.Data, ExUnits: entry.ExUnits,
			}
		}
	}
	for idx, addrKey := range a.sortedWithdrawalKeys() {
		wd := a.withdrawals[addrKey]
		if wd.Redeemer == nil {
			continue
		}
		skh := common.NewBlake2b224(wd.Address.StakeCredentialHash())
		if entry, ok := a.stakeRedeemers[skh.String()]; ok {
			out[witness.RedeemerKey{Tag: witness.RedeemerTagReward, Index: uint64(idx)}] = witness.Redeemer{
				Tag: witness.RedeemerTagReward, Index: uint64(idx), Data: entry.Data, ExUnits: entry.ExUnits,
			}
		}
	}
	return out
}

func redeemerSlice(m map[witness.RedeemerKey]witness.Redeemer) []witness.Redeemer {
	out := make([]witness.Redeemer, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tag != out[j].Tag {
			return out[i].Tag < out[j].Tag
		}
		return out[i].Index < out[j].Index
	})
	return out
}

func (a *Apollo) buildBody(inputs []txbody.Utxo, outputs []*txbody.TransactionOutput, fee uint64) (*txbody.TransactionBody, error) {
	txInputs := make([]txbody.TransactionInput, len(inputs))
	for i, u := range inputs {
		txInputs[i] = u.Input
	}

	body := &txbody.TransactionBody{
		Inputs:                txInputs,
		Outputs:               outputs,
		Fee:                   fee,
		Ttl:                   a.ttl,
		ValidityIntervalStart: a.validityIntervalStart,
		Certificates:          a.certificates,
	}

	if len(a.requiredSigners) > 0 {
		body.RequiredSigners = txbody.NewRequiredSignerSet(a.requiredSigners, true)
	}
	if len(a.referenceInputs) > 0 {
		body.ReferenceInputs = txbody.NewReferenceInputSet(a.referenceInputs, true)
	}

	if len(a.withdrawals) > 0 {
		keys := a.sortedWithdrawalKeys()
		wds := make([]txbody.Withdrawal, 0, len(keys))
		for _, k := range keys {
			wd := a.withdrawals[k]
			wds = append(wds, txbody.Withdrawal{RewardAccount: wd.Address, Amount: wd.Amount})
		}
		body.Withdrawals = wds
	}

	if a.hasMint() {
		mv, err := a.mintValue()
		if err != nil {
			return nil, err
		}
		body.Mint = &mv.MultiAsset
	}

	auxHash, err := a.computeAuxDataHash()
	if err != nil {
		return nil, err
	}
	body.AuxDataHash = auxHash

	if a.hasScripts() || len(a.redeemers) > 0 || len(a.mintRedeemers) > 0 || len(a.stakeRedeemers) > 0 {
		pp, err := a.Context.ProtocolParams()
		if err != nil {
			return nil, fmt.Errorf("failed to get protocol params for script data hash: %w", err)
		}
		redeemers := redeemerSlice(a.buildRedeemerMap(inputs))
		sdh, err := ComputeScriptDataHash(redeemers, a.datums, pp.CostModels)
		if err != nil {
			return nil, fmt.Errorf("failed to compute script data hash: %w", err)
		}
		body.ScriptDataHash = sdh
	}

	return body, nil
}

func (a *Apollo) buildWitnessSet(inputs []txbody.Utxo) *witness.WitnessSet {
	ws := &witness.WitnessSet{}
	if len(a.vkeyWitnesses) > 0 {
		ws.VKeyWitnesses = witness.NewVKeyWitnessSet(a.vkeyWitnesses, true)
	}
	if len(a.scripts.native) > 0 {
		ws.NativeScripts = witness.NewNativeScriptSet(a.scripts.native, true)
	}
	if len(a.scripts.v1) > 0 {
		ws.PlutusV1Scripts = witness.NewPlutusV1ScriptSet(a.scripts.v1, true)
	}
	if len(a.scripts.v2) > 0 {
		ws.PlutusV2Scripts = witness.NewPlutusV2ScriptSet(a.scripts.v2, true)
	}
	if len(a.scripts.v3) > 0 {
		ws.PlutusV3Scripts = witness.NewPlutusV3ScriptSet(a.scripts.v3, true)
	}
	if len(a.datums) > 0 {
		ws.PlutusDataSet = witness.NewPlutusDataSet(a.datums, true)
	}
	redeemers := a.buildRedeemerMap(inputs)
	if len(redeemers) > 0 {
		ws.Redeemers = redeemerSlice(redeemers)
	}
	return ws
}

// estimateFee builds a dummy signed transaction (one VKeyWitness per
// required signer, plus the wallet's) and derives a fee from its size.
func (a *Apollo) estimateFee(inputs []txbody.Utxo, outputs []*txbody.TransactionOutput) (int64, error) {
	pp, err := a.Context.ProtocolParams()
	if err != nil {
		return 0, fmt.Errorf("failed to get protocol params: %w", err)
	}
	body, err := a.buildBody(inputs, outputs, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to build body for fee estimation: %w", err)
	}
	ws := a.buildWitnessSet(inputs)

	witnessCount := len(a.requiredSigners) + 1
	ws.VKeyWitnesses = witness.NewVKeyWitnessSet(make([]witness.VKeyWitness, witnessCount), true)

	estimateTx := &tx.Transaction{Body: body, WitnessSet: ws, IsValid: true}
	if len(a.metadata) > 0 {
		aux, err := a.buildAuxiliaryData()
		if err != nil {
			return 0, err
		}
		estimateTx.AuxiliaryData = aux
	}
	txBytes, err := estimateTx.Bytes()
	if err != nil {
		return 0, fmt.Errorf("failed to encode tx for fee estimation: %w", err)
	}
	return pp.MinFeeConstant + pp.MinFeeCoefficient*int64(len(txBytes)), nil
}

// estimateExecutionUnits builds a preliminary signed transaction,
// evaluates it via Context.EvaluateTx, and records buffered execution
// units against the matching pending redeemer.
func (a *Apollo) estimateExecutionUnits(inputs []txbody.Utxo, outputs []*txbody.TransactionOutput) error {
	body, err := a.buildBody(inputs, outputs, 0)
	if err != nil {
		return fmt.Errorf("failed to build preliminary body: %w", err)
	}
	ws := a.buildWitnessSet(inputs)
	witnessCount := len(a.requiredSigners) + 1
	ws.VKeyWitnesses = witness.NewVKeyWitnessSet(make([]witness.VKeyWitness, witnessCount), true)

	prelimTx := &tx.Transaction{Body: body, WitnessSet: ws, IsValid: true}
	if len(a.metadata) > 0 {
		aux, err := a.buildAuxiliaryData()
		if err != nil {
			return err
		}
		prelimTx.AuxiliaryData = aux
	}
	txBytes, err := prelimTx.Bytes()
	if err != nil {
		return fmt.Errorf("failed to encode preliminary tx: %w", err)
	}
	evalResult, err := a.Context.EvaluateTx(txBytes)
	if err != nil {
		return fmt.Errorf("failed to evaluate tx: %w", err)
	}

	mintKeys := a.sortedMintPolicyIds()
	wdKeys := a.sortedWithdrawalKeys()
	for key, units := range evalResult {
		buffered := witness.ExUnits{
			Mem:   int64(float64(units.Mem) * (1 + ExMemoryBuffer)),
			Steps: int64(float64(units.Steps) * (1 + ExStepBuffer)),
		}
		switch key.Tag {
		case witness.RedeemerTagSpend:
			if int(key.Index) < len(inputs) {
				ref := utxoRef(inputs[key.Index])
				if e, ok := a.redeemers[ref]; ok {
					e.ExUnits = buffered
					a.redeemers[ref] = e
				}
			}
		case witness.RedeemerTagMint:
			if int(key.Index) < len(mintKeys) {
				policyHex := mintKeys[key.Index]
				if e, ok := a.mintRedeemers[policyHex]; ok {
					e.ExUnits = buffered
					a.mintRedeemers[policyHex] = e
				}
			}
		case witness.RedeemerTagReward:
			if int(key.Index) < len(wdKeys) {
				wd := a.withdrawals[wdKeys[key.Index]]
				skh := common.NewBlake2b224(wd.Address.StakeCredentialHash())
				if e, ok := a.stakeRedeemers[skh.String()]; ok {
					e.ExUnits = buffered
					a.stakeRedeemers[skh.String()] = e
				}
			}
		}
	}
	return nil
}

// --- Completion ---

// Complete runs coin selection, collateral selection, fee convergence,
// and assembles the final transaction, ready for Sign.
func (a *Apollo) Complete() (*Apollo, error) {
	if a.tx != nil {
		return a, fmt.Errorf("transaction already built: call Complete only once")
	}
	if err := a.loadUtxos(); err != nil {
		return a, err
	}

	outputs, err := a.buildOutputs()
	if err != nil {
		return a, err
	}
	baseOutputs := make([]*txbody.TransactionOutput, len(outputs))
	copy(baseOutputs, outputs)

	pp, err := a.Context.ProtocolParams()
	if err != nil {
		return a, fmt.Errorf("failed to get protocol params: %w", err)
	}
	keyDeposit := resolvedKeyDeposit(pp)
	depositAdjustment := a.certificateDepositAdjustment(keyDeposit)

	totalRequired := a.totalOutputValue(baseOutputs).Add(
		value.NewValue(value.NewCoinFromBigInt(big.NewInt(depositAdjustment))),
	)

	totalInput := a.totalPreselectedValue()
	if len(a.withdrawals) > 0 {
		totalInput = totalInput.Add(a.totalWithdrawalValue())
	}
	if a.hasMint() {
		mv, err := a.mintValue()
		if err != nil {
			return a, err
		}
		totalInput = totalInput.Add(mv)
	}

	maxFee, err := a.Context.MaxTxFee()
	if err != nil {
		return a, fmt.Errorf("failed to get max tx fee: %w", err)
	}
	selectionTarget := totalRequired.Add(value.NewValue(value.NewCoinFromBigInt(new(big.Int).SetUint64(maxFee))))

	selectedUtxos, err := a.selectCoins(selectionTarget, totalInput)
	if err != nil {
		return a, fmt.Errorf("coin selection failed: %w", err)
	}
	for _, u := range selectedUtxos {
		a.usedRefs[utxoRef(u)] = true
	}

	allInputs := make([]txbody.Utxo, 0, len(a.preselectedUtxos)+len(selectedUtxos))
	allInputs = append(allInputs, a.preselectedUtxos...)
	allInputs = append(allInputs, selectedUtxos...)
	allInputs = SortInputs(allInputs)

	if a.isEstimateRequired && a.estimateExUnits {
		if err := a.estimateExecutionUnits(allInputs, outputs); err != nil {
			return a, fmt.Errorf("execution unit estimation failed: %w", err)
		}
	}

	totalInput = a.sumUtxoValues(allInputs)
	if len(a.withdrawals) > 0 {
		totalInput = totalInput.Add(a.totalWithdrawalValue())
	}
	if a.hasMint() {
		mv, err := a.mintValue()
		if err != nil {
			return a, err
		}
		totalInput = totalInput.Add(mv)
	}

	changeAddr, err := a.getChangeAddress()
	if err != nil {
		return a, err
	}

	var fee int64
	if a.forceFee {
		fee = a.Fee
	} else {
		fee, err = a.estimateFee(allInputs, outputs)
		if err != nil {
			return a, err
		}
		if a.Fee > fee {
			fee = a.Fee
		}
	}
	fee += a.FeePadding
	if fee < 0 {
		fee = 0
	}

	var collateralInputs []txbody.Utxo
	var collateralReturn *txbody.TransactionOutput

	for iter := 0; iter < maxFeeIterations; iter++ {
		outputs = make([]*txbody.TransactionOutput, len(baseOutputs))
		copy(outputs, baseOutputs)

		totalNeeded := totalRequired.Add(value.NewValue(value.NewCoin(fee)))
		changeValue := totalInput.Sub(totalNeeded)

		if valueHasPositive(changeValue) {
			changeOutput := NewBabbageOutput(changeAddr, changeValue, nil, nil)
			minChange := MinLovelacePostAlonzo(&changeOutput, pp.CoinsPerUtxoByteValue())
			switch {
			case changeValue.Coin.BigInt().Cmp(big.NewInt(minChange)) >= 0:
				outputs = append(outputs, &changeOutput)
			case valueHasAssets(changeValue):
				return a, fmt.Errorf("insufficient ada for change output: need at least %d lovelace, have %d", minChange, changeValue.Coin.Int64())
			}
		}

		if !a.forceFee {
			collateralInputs, collateralReturn, err = a.setCollateral(fee, pp)
			if err != nil {
				return a, err
			}
		}

		if a.forceFee {
			break
		}
		newFee, err := a.estimateFee(allInputs, outputs)
		if err != nil {
			return a, err
		}
		newFee += a.FeePadding
		if newFee < 0 {
			newFee = 0
		}
		if newFee <= fee {
			break
		}
		fee = newFee
	}

	body, err := a.buildBody(allInputs, outputs, uint64(fee))
	if err != nil {
		return a, err
	}
	if len(collateralInputs) > 0 {
		collInputs := make([]txbody.TransactionInput, len(collateralInputs))
		for i, u := range collateralInputs {
			collInputs[i] = u.Input
		}
		body.Collateral = txbody.NewCollateralSet(collInputs, true)
		body.CollateralReturn = collateralReturn
	}

	witnessSet := a.buildWitnessSet(allInputs)

	a.tx = &tx.Transaction{Body: body, WitnessSet: witnessSet, IsValid: true}
	if len(a.metadata) > 0 {
		aux, err := a.buildAuxiliaryData()
		if err != nil {
			return a, fmt.Errorf("failed to build metadata: %w", err)
		}
		a.tx.AuxiliaryData = aux
	}

	return a, nil
}

// --- Signing & submission ---

// Sign signs the transaction with the attached wallet and appends its
// VKeyWitness.
func (a *Apollo) Sign() (*Apollo, error) {
	if a.tx == nil {
		return a, fmt.Errorf("no transaction built: call Complete first")
	}
	if a.wallet == nil {
		return a, fmt.Errorf("no wallet attached")
	}
	vw, err := a.wallet.SignTxBody(a.tx.Hash())
	if err != nil {
		return a, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return a.AddVerificationKeyWitness(vw)
}

// SignWithSkey signs the transaction with a raw Ed25519 key pair.
func (a *Apollo) SignWithSkey(pubKey, privKey []byte) (*Apollo, error) {
	if a.tx == nil {
		return a, fmt.Errorf("no transaction built: call Complete first")
	}
	hash := a.tx.Hash()
	sig, err := SignMessage(privKey, hash.Bytes())
	if err != nil {
		return a, fmt.Errorf("failed to sign transaction: %w", err)
	}
	var vw witness.VKeyWitness
	copy(vw.VKey[:], pubKey)
	copy(vw.Signature[:], sig)
	return a.AddVerificationKeyWitness(vw)
}

// AddVerificationKeyWitness appends a pre-computed VKeyWitness to the
// built transaction's witness set.
func (a *Apollo) AddVerificationKeyWitness(vw witness.VKeyWitness) (*Apollo, error) {
	if a.tx == nil {
		return a, fmt.Errorf("no transaction built: call Complete first")
	}
	items := append(a.tx.WitnessSet.VKeyWitnessItems(), vw)
	a.tx.WitnessSet.VKeyWitnesses = witness.NewVKeyWitnessSet(items, true)
	a.tx.WitnessSet.ClearCBORCache()
	a.tx.Body.ClearCBORCache()
	return a, nil
}

// GetTx returns the built transaction, or nil if Complete wasn't called.
func (a *Apollo) GetTx() *tx.Transaction { return a.tx }

// GetTxCbor returns the CBOR-encoded built transaction.
func (a *Apollo) GetTxCbor() ([]byte, error) {
	if a.tx == nil {
		return nil, fmt.Errorf("no transaction built: call Complete first")
	}
	return a.tx.Bytes()
}

// LoadTxCbor decodes raw CBOR into the builder's transaction, for
// inspecting or re-signing an externally built transaction.
func (a *Apollo) LoadTxCbor(raw []byte) (*Apollo, error) {
	t, err := tx.ReadTransactionFromCBOR(cbor.NewReader(raw))
	if err != nil {
		return a, fmt.Errorf("failed to decode transaction: %w", err)
	}
	a.tx = t
	return a, nil
}

// Clone returns a deep copy of the builder's built transaction state, by
// CBOR round-trip; it leaves the transaction unset if Complete hasn't
// run yet.
func (a *Apollo) Clone() *Apollo {
	clone := *a
	if a.tx != nil {
		if raw, err := a.tx.Bytes(); err == nil {
			if t, err := tx.ReadTransactionFromCBOR(cbor.NewReader(raw)); err == nil {
				clone.tx = t
			}
		}
	}
	return &clone
}

// Submit submits the built transaction via the chain context.
func (a *Apollo) Submit() (common.Blake2b256, error) {
	txCbor, err := a.GetTxCbor()
	if err != nil {
		return common.Blake2b256{}, err
	}
	return a.Context.SubmitTx(txCbor)
}
