package apollo

import (
	"fmt"

	"github.com/Salvionied/apollo/v2/ledger/common"
	"github.com/Salvionied/apollo/v2/ledger/plutusdata"
)

// --- Bech32 Convenience Methods ---

// AddInputAddressFromBech32 adds a bech32 address whose UTxOs should be used for coin selection.
func (a *Apollo) AddInputAddressFromBech32(bech32 string) (*Apollo, error) {
	addr, err := common.NewAddress(bech32)
	if err != nil {
		return a, fmt.Errorf("invalid bech32 address: %w", err)
	}
	a.AddInputAddress(addr)
	return a, nil
}

// PayToAddressBech32 creates a simple payment to a bech32 address.
func (a *Apollo) PayToAddressBech32(bech32 string, lovelace int64, units ...Unit) (*Apollo, error) {
	addr, err := common.NewAddress(bech32)
	if err != nil {
		return a, fmt.Errorf("invalid bech32 address: %w", err)
	}
	a.PayToAddress(addr, lovelace, units...)
	return a, nil
}

// SetChangeAddressBech32 sets the change address from a bech32 string.
func (a *Apollo) SetChangeAddressBech32(bech32 string) (*Apollo, error) {
	addr, err := common.NewAddress(bech32)
	if err != nil {
		return a, fmt.Errorf("invalid bech32 address: %w", err)
	}
	a.SetChangeAddress(addr)
	return a, nil
}

// --- Datum Convenience Methods ---

// AttachDatum adds a datum to the witness set. Alias for AddDatum.
func (a *Apollo) AttachDatum(datum *plutusdata.Data) *Apollo {
	return a.AddDatum(datum)
}

// PayToContractAsHash creates a payment to a script address with a pre-computed datum hash.
// Unlike PayToContractWithDatumHash, the full datum is NOT added to the witness set.
func (a *Apollo) PayToContractAsHash(addr common.Address, datumHash []byte, lovelace int64, units ...Unit) *Apollo {
	p := &Payment{
		Receiver:  addr,
		Lovelace:  lovelace,
		Units:     units,
		DatumHash: datumHash,
	}
	a.payments = append(a.payments, p)
	return a
}

// --- Version-Specific Reference Script Methods ---

// PayToAddressWithV1ReferenceScript pays to an address with a Plutus V1 reference script attached.
func (a *Apollo) PayToAddressWithV1ReferenceScript(addr common.Address, lovelace int64, script common.PlutusV1Script, units ...Unit) (*Apollo, error) {
	return a.PayToAddressWithReferenceScript(addr, lovelace, script, units...)
}

// PayToAddressWithV2ReferenceScript pays to an address with a Plutus V2 reference script attached.
func (a *Apollo) PayToAddressWithV2ReferenceScript(addr common.Address, lovelace int64, script common.PlutusV2Script, units ...Unit) (*Apollo, error) {
	return a.PayToAddressWithReferenceScript(addr, lovelace, script, units...)
}

// PayToAddressWithV3ReferenceScript pays to an address with a Plutus V3 reference script attached.
func (a *Apollo) PayToAddressWithV3ReferenceScript(addr common.Address, lovelace int64, script common.PlutusV3Script, units ...Unit) (*Apollo, error) {
	return a.PayToAddressWithReferenceScript(addr, lovelace, script, units...)
}

// PayToContractWithReferenceScript pays to a script address with an inline datum and a reference script.
func (a *Apollo) PayToContractWithReferenceScript(addr common.Address, datum *plutusdata.Data, lovelace int64, script common.Script, units ...Unit) (*Apollo, error) {
	if datum == nil {
		return a, fmt.Errorf("datum must not be nil")
	}
	ref, err := NewScriptRef(script)
	if err != nil {
		return a, fmt.Errorf("failed to create script ref: %w", err)
	}
	p := &Payment{
		Receiver:  addr,
		Lovelace:  lovelace,
		Units:     units,
		Datum:     datum,
		IsInline:  true,
		ScriptRef: ref,
	}
	a.payments = append(a.payments, p)
	return a, nil
}

// PayToContractWithV1ReferenceScript pays to a script address with an inline datum and a Plutus V1 reference script.
func (a *Apollo) PayToContractWithV1ReferenceScript(addr common.Address, datum *plutusdata.Data, lovelace int64, script common.PlutusV1Script, units ...Unit) (*Apollo, error) {
	return a.PayToContractWithReferenceScript(addr, datum, lovelace, script, units...)
}

// PayToContractWithV2ReferenceScript pays to a script address with an inline datum and a Plutus V2 reference script.
func (a *Apollo) PayToContractWithV2ReferenceScript(addr common.Address, datum *plutusdata.Data, lovelace int64, script common.PlutusV2Script, units ...Unit) (*Apollo, error) {
	return a.PayToContractWithReferenceScript(addr, datum, lovelace, script, units...)
}

// PayToContractWithV3ReferenceScript pays to a script address with an inline datum and a Plutus V3 reference script.
func (a *Apollo) PayToContractWithV3ReferenceScript(addr common.Address, datum *plutusdata.Data, lovelace int64, script common.PlutusV3Script, units ...Unit) (*Apollo, error) {
	return a.PayToContractWithReferenceScript(addr, datum, lovelace, script, units...)
}

// --- Staking FromAddress / FromBech32 Convenience Methods ---
//
// These resolve a plain address (or its bech32 string form) down to the
// staking Credential the certificate methods actually operate on.

func credentialFromBech32(bech32 string) (common.Credential, error) {
	addr, err := common.NewAddress(bech32)
	if err != nil {
		return common.Credential{}, fmt.Errorf("invalid bech32 address: %w", err)
	}
	return GetStakeCredentialFromAddress(addr)
}

// RegisterStakeFromAddress creates a stake registration certificate from an address.
func (a *Apollo) RegisterStakeFromAddress(addr common.Address) (*Apollo, error) {
	cred, err := GetStakeCredentialFromAddress(addr)
	if err != nil {
		return a, err
	}
	return a.RegisterStake(cred), nil
}

// RegisterStakeFromBech32 creates a stake registration certificate from a bech32 address.
func (a *Apollo) RegisterStakeFromBech32(bech32 string) (*Apollo, error) {
	cred, err := credentialFromBech32(bech32)
	if err != nil {
		return a, err
	}
	return a.RegisterStake(cred), nil
}

// DeregisterStakeFromAddress creates a stake deregistration certificate from an address.
func (a *Apollo) DeregisterStakeFromAddress(addr common.Address) (*Apollo, error) {
	cred, err := GetStakeCredentialFromAddress(addr)
	if err != nil {
		return a, err
	}
	return a.DeregisterStake(cred), nil
}

// DeregisterStakeFromBech32 creates a stake deregistration certificate from a bech32 address.
func (a *Apollo) DeregisterStakeFromBech32(bech32 string) (*Apollo, error) {
	cred, err := credentialFromBech32(bech32)
	if err != nil {
		return a, err
	}
	return a.DeregisterStake(cred), nil
}

// DelegateStakeFromAddress creates a stake delegation certificate from an address.
func (a *Apollo) DelegateStakeFromAddress(addr common.Address, poolHash common.Blake2b224) (*Apollo, error) {
	cred, err := GetStakeCredentialFromAddress(addr)
	if err != nil {
		return a, err
	}
	return a.DelegateStake(cred, poolHash), nil
}

// DelegateStakeFromBech32 creates a stake delegation certificate from a bech32 address.
func (a *Apollo) DelegateStakeFromBech32(bech32 string, poolHash common.Blake2b224) (*Apollo, error) {
	cred, err := credentialFromBech32(bech32)
	if err != nil {
		return a, err
	}
	return a.DelegateStake(cred, poolHash), nil
}

// DelegateVoteFromAddress creates a vote delegation certificate from an address.
func (a *Apollo) DelegateVoteFromAddress(addr common.Address, drep common.Drep) (*Apollo, error) {
	cred, err := GetStakeCredentialFromAddress(addr)
	if err != nil {
		return a, err
	}
	return a.DelegateVote(cred, drep), nil
}

// DelegateVoteFromBech32 creates a vote delegation certificate from a bech32 address.
func (a *Apollo) DelegateVoteFromBech32(bech32 string, drep common.Drep) (*Apollo, error) {
	cred, err := credentialFromBech32(bech32)
	if err != nil {
		return a, err
	}
	return a.DelegateVote(cred, drep), nil
}

// DelegateStakeAndVoteFromAddress creates a combined stake+vote delegation certificate from an address.
func (a *Apollo) DelegateStakeAndVoteFromAddress(addr common.Address, poolHash common.Blake2b224, drep common.Drep) (*Apollo, error) {
	cred, err := GetStakeCredentialFromAddress(addr)
	if err != nil {
		return a, err
	}
	return a.DelegateStakeAndVote(cred, poolHash, drep), nil
}

// DelegateStakeAndVoteFromBech32 creates a combined stake+vote delegation certificate from a bech32 address.
func (a *Apollo) DelegateStakeAndVoteFromBech32(bech32 string, poolHash common.Blake2b224, drep common.Drep) (*Apollo, error) {
	cred, err := credentialFromBech32(bech32)
	if err != nil {
		return a, err
	}
	return a.DelegateStakeAndVote(cred, poolHash, drep), nil
}

// RegisterAndDelegateStakeFromAddress creates a combined registration+delegation certificate from an address.
func (a *Apollo) RegisterAndDelegateStakeFromAddress(addr common.Address, poolHash common.Blake2b224, deposit uint64) (*Apollo, error) {
	cred, err := GetStakeCredentialFromAddress(addr)
	if err != nil {
		return a, err
	}
	return a.RegisterAndDelegateStake(cred, poolHash, deposit), nil
}

// RegisterAndDelegateStakeFromBech32 creates a combined registration+delegation certificate from a bech32 address.
func (a *Apollo) RegisterAndDelegateStakeFromBech32(bech32 string, poolHash common.Blake2b224, deposit uint64) (*Apollo, error) {
	cred, err := credentialFromBech32(bech32)
	if err != nil {
		return a, err
	}
	return a.RegisterAndDelegateStake(cred, poolHash, deposit), nil
}

// RegisterAndDelegateVoteFromAddress creates a combined registration+vote delegation certificate from an address.
func (a *Apollo) RegisterAndDelegateVoteFromAddress(addr common.Address, drep common.Drep, deposit uint64) (*Apollo, error) {
	cred, err := GetStakeCredentialFromAddress(addr)
	if err != nil {
		return a, err
	}
	return a.RegisterAndDelegateVote(cred, drep, deposit), nil
}

// RegisterAndDelegateVoteFromBech32 creates a combined registration+vote delegation certificate from a bech32 address.
func (a *Apollo) RegisterAndDelegateVoteFromBech32(bech32 string, drep common.Drep, deposit uint64) (*Apollo, error) {
	cred, err := credentialFromBech32(bech32)
	if err != nil {
		return a, err
	}
	return a.RegisterAndDelegateVote(cred, drep, deposit), nil
}

// RegisterAndDelegateStakeAndVoteFromAddress creates a combined registration+stake+vote certificate from an address.
func (a *Apollo) RegisterAndDelegateStakeAndVoteFromAddress(addr common.Address, poolHash common.Blake2b224, drep common.Drep, deposit uint64) (*Apollo, error) {
	cred, err := GetStakeCredentialFromAddress(addr)
	if err != nil {
		return a, err
	}
	return a.RegisterAndDelegateStakeAndVote(cred, poolHash, drep, deposit), nil
}

// RegisterAndDelegateStakeAndVoteFromBech32 creates a combined registration+stake+vote certificate from a bech32 address.
func (a *Apollo) RegisterAndDelegateStakeAndVoteFromBech32(bech32 string, poolHash common.Blake2b224, drep common.Drep, deposit uint64) (*Apollo, error) {
	cred, err := credentialFromBech32(bech32)
	if err != nil {
		return a, err
	}
	return a.RegisterAndDelegateStakeAndVote(cred, poolHash, drep, deposit), nil
}
