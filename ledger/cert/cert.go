// Package cert implements the certificate tagged sum (spec section
// 4.6): stake registration/deregistration in both the legacy and
// deposit-carrying forms, stake/vote delegation and their registration
// combinations, pool lifecycle, constitutional committee membership,
// and DRep lifecycle certificates.
package cert

import (
	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/errs"
	"github.com/Salvionied/apollo/v2/ledger/common"
)

// Kind discriminates the certificate variants by their CBOR array-0
// type tag, matching the Conway-era `certificate` CDDL numbering.
type Kind uint64

const (
	KindStakeRegistration Kind = iota
	KindStakeDeregistration
	KindStakeDelegation
	KindPoolRegistration
	KindPoolRetirement
	_ // 5: genesis_key_delegation, obsolete, not supported
	_ // 6: move_instantaneous_rewards, obsolete, not supported
	KindStakeRegistrationDeposit
	KindStakeDeregistrationDeposit
	KindVoteDelegation
	KindStakeVoteDelegation
	KindStakeRegistrationDelegation
	KindVoteRegistrationDelegation
	KindStakeVoteRegistrationDelegation
	KindAuthCommitteeHot
	KindResignCommitteeCold
	KindRegisterDrep
	KindUnregisterDrep
	KindUpdateDrep
)

var kindNames = []string{
	"stake_registration", "stake_deregistration", "stake_delegation",
	"pool_registration", "pool_retirement", "", "",
	"stake_registration_deposit", "stake_deregistration_deposit",
	"vote_delegation", "stake_vote_delegation", "stake_registration_delegation",
	"vote_registration_delegation", "stake_vote_registration_delegation",
	"auth_committee_hot", "resign_committee_cold",
	"register_drep", "unregister_drep", "update_drep",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

func validKinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for i, name := range kindNames {
		if name != "" {
			out = append(out, Kind(i))
		}
	}
	return out
}

// Relay is a stake pool network relay: single-host by address,
// single-host by DNS name, or multi-host by DNS SRV record.
type Relay struct {
	Kind     uint64 // 0 single_host_addr, 1 single_host_name, 2 multi_host_name
	Port     *uint64
	Ipv4     []byte
	Ipv6     []byte
	DnsName  string
}

func (r Relay) WriteToCBOR(w *cbor.Writer) {
	switch r.Kind {
	case 0:
		w.WriteStartArray(4)
		w.WriteUint(0)
		writeOptionalUint(w, r.Port)
		writeOptionalBytes(w, r.Ipv4)
		writeOptionalBytes(w, r.Ipv6)
	case 1:
		w.WriteStartArray(3)
		w.WriteUint(1)
		writeOptionalUint(w, r.Port)
		w.WriteTextstring(r.DnsName)
	default:
		w.WriteStartArray(2)
		w.WriteUint(2)
		w.WriteTextstring(r.DnsName)
	}
}

func writeOptionalUint(w *cbor.Writer, v *uint64) {
	if v == nil {
		w.WriteNull()
		return
	}
	w.WriteUint(*v)
}

func writeOptionalBytes(w *cbor.Writer, b []byte) {
	if b == nil {
		w.WriteNull()
		return
	}
	w.WriteBytestring(b)
}

func readOptionalUint(r *cbor.Reader) (*uint64, error) {
	st, err := r.PeekState()
	if err != nil {
		return nil, err
	}
	if st == cbor.StateNull {
		return nil, r.ReadNull()
	}
	v, err := r.ReadUint()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func readOptionalBytes(r *cbor.Reader) ([]byte, error) {
	st, err := r.PeekState()
	if err != nil {
		return nil, err
	}
	if st == cbor.StateNull {
		return nil, r.ReadNull()
	}
	return r.ReadByteString()
}

func (r *Relay) ReadFromCBOR(cr *cbor.Reader) error {
	n, err := cr.ReadStartArray()
	if err != nil {
		return err
	}
	kind, err := cr.ReadUint()
	if err != nil {
		return err
	}
	r.Kind = kind
	switch kind {
	case 0:
		if n != nil && *n != 4 {
			return errs.Newf(errs.KindInvalidCBORArraySize, "relay: expected 4 elements, got %d", *n)
		}
		if r.Port, err = readOptionalUint(cr); err != nil {
			return err
		}
		if r.Ipv4, err = readOptionalBytes(cr); err != nil {
			return err
		}
		if r.Ipv6, err = readOptionalBytes(cr); err != nil {
			return err
		}
	case 1:
		if n != nil && *n != 3 {
			return errs.Newf(errs.KindInvalidCBORArraySize, "relay: expected 3 elements, got %d", *n)
		}
		if r.Port, err = readOptionalUint(cr); err != nil {
			return err
		}
		if r.DnsName, err = cr.ReadTextString(); err != nil {
			return err
		}
	case 2:
		if n != nil && *n != 2 {
			return errs.Newf(errs.KindInvalidCBORArraySize, "relay: expected 2 elements, got %d", *n)
		}
		if r.DnsName, err = cr.ReadTextString(); err != nil {
			return err
		}
	default:
		return errs.Newf(errs.KindInvalidCBORValue, "relay: unknown kind %d", kind)
	}
	return cr.ReadEndArray()
}

// PoolMetadata is the off-chain (url, content-hash) reference attached
// to a pool registration.
type PoolMetadata struct {
	Url  string
	Hash common.Blake2b256
}

func (m PoolMetadata) WriteToCBOR(w *cbor.Writer) {
	w.WriteStartArray(2)
	w.WriteTextstring(m.Url)
	m.Hash.WriteToCBOR(w)
}

func (m *PoolMetadata) ReadFromCBOR(r *cbor.Reader) error {
	if err := r.ValidateArrayOfNElements("pool_metadata", 2); err != nil {
		return err
	}
	url, err := r.ReadTextString()
	if err != nil {
		return err
	}
	m.Url = url
	if err := m.Hash.ReadFromCBOR(r); err != nil {
		return err
	}
	return r.ValidateEndArray("pool_metadata")
}

func writePoolMetadataOrNull(w *cbor.Writer, m *PoolMetadata) {
	if m == nil {
		w.WriteNull()
		return
	}
	m.WriteToCBOR(w)
}

func readPoolMetadataOrNull(r *cbor.Reader) (*PoolMetadata, error) {
	st, err := r.PeekState()
	if err != nil {
		return nil, err
	}
	if st == cbor.StateNull {
		if err := r.ReadNull(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	var m PoolMetadata
	if err := m.ReadFromCBOR(r); err != nil {
		return nil, err
	}
	return &m, nil
}

// PoolParams is the full stake pool registration payload.
type PoolParams struct {
	Operator      common.Blake2b224
	VrfKeyHash    common.Blake2b256
	Pledge        uint64
	Cost          uint64
	Margin        common.Rational
	RewardAccount common.Address
	Owners        []common.Blake2b224
	Relays        []Relay
	Metadata      *PoolMetadata
}

func (p PoolParams) WriteToCBOR(w *cbor.Writer) {
	p.Operator.WriteToCBOR(w)
	p.VrfKeyHash.WriteToCBOR(w)
	w.WriteUint(p.Pledge)
	w.WriteUint(p.Cost)
	p.Margin.WriteToCBOR(w)
	p.RewardAccount.WriteToCBOR(w)
	w.WriteStartArray(uint64(len(p.Owners)))
	for _, o := range p.Owners {
		o.WriteToCBOR(w)
	}
	w.WriteStartArray(uint64(len(p.Relays)))
	for _, rl := range p.Relays {
		rl.WriteToCBOR(w)
	}
	writePoolMetadataOrNull(w, p.Metadata)
}

func (p *PoolParams) ReadFromCBOR(r *cbor.Reader) error {
	if err := p.Operator.ReadFromCBOR(r); err != nil {
		return err
	}
	if err := p.VrfKeyHash.ReadFromCBOR(r); err != nil {
		return err
	}
	pledge, err := r.ReadUint()
	if err != nil {
		return err
	}
	p.Pledge = pledge
	cost, err := r.ReadUint()
	if err != nil {
		return err
	}
	p.Cost = cost
	if err := p.Margin.ReadFromCBOR(r); err != nil {
		return err
	}
	if err := p.RewardAccount.ReadFromCBOR(r); err != nil {
		return err
	}
	nOwners, err := r.ReadStartArray()
	if err != nil {
		return err
	}
	p.Owners, err = readOwners(r, nOwners)
	if err != nil {
		return err
	}
	nRelays, err := r.ReadStartArray()
	if err != nil {
		return err
	}
	p.Relays, err = readRelays(r, nRelays)
	if err != nil {
		return err
	}
	p.Metadata, err = readPoolMetadataOrNull(r)
	return err
}

func readOwners(r *cbor.Reader, n *uint64) ([]common.Blake2b224, error) {
	var out []common.Blake2b224
	for {
		if n != nil && uint64(len(out)) >= *n {
			break
		}
		if n == nil {
			st, err := r.PeekState()
			if err != nil {
				return nil, err
			}
			if st == cbor.StateEndArray {
				break
			}
		}
		var h common.Blake2b224
		if err := h.ReadFromCBOR(r); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := r.ReadEndArray(); err != nil {
		return nil, err
	}
	return out, nil
}

func readRelays(r *cbor.Reader, n *uint64) ([]Relay, error) {
	var out []Relay
	for {
		if n != nil && uint64(len(out)) >= *n {
			break
		}
		if n == nil {
			st, err := r.PeekState()
			if err != nil {
				return nil, err
			}
			if st == cbor.StateEndArray {
				break
			}
		}
		var rl Relay
		if err := rl.ReadFromCBOR(r); err != nil {
			return nil, err
		}
		out = append(out, rl)
	}
	if err := r.ReadEndArray(); err != nil {
		return nil, err
	}
	return out, nil
}

// Certificate is the tagged sum over every certificate variant. Only
// the fields relevant to Kind are meaningful; construct with the
// New* helpers rather than the zero value.
type Certificate struct {
	Kind Kind

	StakeCredential *common.Credential // registration, deregistration, delegation, drep variants
	PoolKeyHash     common.Blake2b224  // delegation, pool variants
	Deposit         uint64             // *_deposit and *_registration_delegation variants
	Drep            *common.Drep       // vote delegation variants
	Anchor          *common.Anchor     // committee/drep variants

	PoolParams PoolParams // pool_registration
	Epoch      uint64     // pool_retirement

	ColdCredential *common.Credential // committee variants
	HotCredential  *common.Credential // auth_committee_hot

	cborCache []byte
}

func (c *Certificate) ClearCBORCache() { c.cborCache = nil }

func (c Certificate) Equal(o Certificate) bool {
	if c.Kind != o.Kind {
		return false
	}
	if !credEqual(c.StakeCredential, o.StakeCredential) {
		return false
	}
	if !credEqual(c.ColdCredential, o.ColdCredential) {
		return false
	}
	if !credEqual(c.HotCredential, o.HotCredential) {
		return false
	}
	if c.PoolKeyHash != o.PoolKeyHash || c.Deposit != o.Deposit || c.Epoch != o.Epoch {
		return false
	}
	if (c.Drep == nil) != (o.Drep == nil) {
		return false
	}
	if c.Drep != nil && !c.Drep.Equal(*o.Drep) {
		return false
	}
	if (c.Anchor == nil) != (o.Anchor == nil) {
		return false
	}
	if c.Anchor != nil && !c.Anchor.Equal(*o.Anchor) {
		return false
	}
	return true
}

func credEqual(a, b *common.Credential) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return a.Equal(*b)
}

// --- Constructors ---

func NewStakeRegistration(cred common.Credential) Certificate {
	return Certificate{Kind: KindStakeRegistration, StakeCredential: &cred}
}

func NewStakeDeregistration(cred common.Credential) Certificate {
	return Certificate{Kind: KindStakeDeregistration, StakeCredential: &cred}
}

func NewStakeDelegation(cred common.Credential, pool common.Blake2b224) Certificate {
	return Certificate{Kind: KindStakeDelegation, StakeCredential: &cred, PoolKeyHash: pool}
}

func NewStakeRegistrationWithDeposit(cred common.Credential, deposit uint64) Certificate {
	return Certificate{Kind: KindStakeRegistrationDeposit, StakeCredential: &cred, Deposit: deposit}
}

func NewStakeDeregistrationWithDeposit(cred common.Credential, deposit uint64) Certificate {
	return Certificate{Kind: KindStakeDeregistrationDeposit, StakeCredential: &cred, Deposit: deposit}
}

func NewVoteDelegation(cred common.Credential, drep common.Drep) Certificate {
	return Certificate{Kind: KindVoteDelegation, StakeCredential: &cred, Drep: &drep}
}

func NewStakeVoteDelegation(cred common.Credential, pool common.Blake2b224, drep common.Drep) Certificate {
	return Certificate{Kind: KindStakeVoteDelegation, StakeCredential: &cred, PoolKeyHash: pool, Drep: &drep}
}

func NewStakeRegistrationDelegation(cred common.Credential, pool common.Blake2b224, deposit uint64) Certificate {
	return Certificate{Kind: KindStakeRegistrationDelegation, StakeCredential: &cred, PoolKeyHash: pool, Deposit: deposit}
}

func NewVoteRegistrationDelegation(cred common.Credential, drep common.Drep, deposit uint64) Certificate {
	return Certificate{Kind: KindVoteRegistrationDelegation, StakeCredential: &cred, Drep: &drep, Deposit: deposit}
}

func NewStakeVoteRegistrationDelegation(cred common.Credential, pool common.Blake2b224, drep common.Drep, deposit uint64) Certificate {
	return Certificate{Kind: KindStakeVoteRegistrationDelegation, StakeCredential: &cred, PoolKeyHash: pool, Drep: &drep, Deposit: deposit}
}

func NewPoolRegistration(params PoolParams) Certificate {
	return Certificate{Kind: KindPoolRegistration, PoolParams: params}
}

func NewPoolRetirement(pool common.Blake2b224, epoch uint64) Certificate {
	return Certificate{Kind: KindPoolRetirement, PoolKeyHash: pool, Epoch: epoch}
}

func NewAuthCommitteeHot(cold, hot common.Credential) Certificate {
	return Certificate{Kind: KindAuthCommitteeHot, ColdCredential: &cold, HotCredential: &hot}
}

func NewResignCommitteeCold(cold common.Credential, anchor *common.Anchor) Certificate {
	return Certificate{Kind: KindResignCommitteeCold, ColdCredential: &cold, Anchor: anchor}
}

func NewRegisterDrep(cred common.Credential, deposit uint64, anchor *common.Anchor) Certificate {
	return Certificate{Kind: KindRegisterDrep, StakeCredential: &cred, Deposit: deposit, Anchor: anchor}
}

func NewUnregisterDrep(cred common.Credential, deposit uint64) Certificate {
	return Certificate{Kind: KindUnregisterDrep, StakeCredential: &cred, Deposit: deposit}
}

func NewUpdateDrep(cred common.Credential, anchor *common.Anchor) Certificate {
	return Certificate{Kind: KindUpdateDrep, StakeCredential: &cred, Anchor: anchor}
}
