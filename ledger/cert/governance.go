package cert

import (
	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/errs"
	"github.com/Salvionied/apollo/v2/ledger/common"
)

// GovActionId references a governance action by the transaction that
// proposed it and its index within that transaction's proposal
// procedures, matching the `gov_action_id = [transaction_id, uint]`
// CDDL used by votes and by certificates/redeemers that point at a
// specific governance action.
type GovActionId struct {
	TransactionId common.Blake2b256
	Index         uint64
}

func (g GovActionId) Equal(o GovActionId) bool {
	return g.TransactionId == o.TransactionId && g.Index == o.Index
}

func (g GovActionId) WriteToCBOR(w *cbor.Writer) {
	w.WriteStartArray(2)
	g.TransactionId.WriteToCBOR(w)
	w.WriteUint(g.Index)
}

func (g *GovActionId) ReadFromCBOR(r *cbor.Reader) error {
	if err := r.ValidateArrayOfNElements("gov_action_id", 2); err != nil {
		return err
	}
	if err := g.TransactionId.ReadFromCBOR(r); err != nil {
		return err
	}
	idx, err := r.ReadUint()
	if err != nil {
		return err
	}
	g.Index = idx
	return r.ValidateEndArray("gov_action_id")
}

// VoterKind discriminates the five roles that may cast a vote.
type VoterKind uint64

const (
	VoterCommitteeHotKeyHash VoterKind = iota
	VoterCommitteeHotScriptHash
	VoterDrepKeyHash
	VoterDrepScriptHash
	VoterStakePoolKeyHash
)

var voterKindNames = []string{
	"committee_hot_key_hash", "committee_hot_script_hash",
	"drep_key_hash", "drep_script_hash", "stake_pool_key_hash",
}

func (k VoterKind) String() string {
	if int(k) < len(voterKindNames) {
		return voterKindNames[k]
	}
	return "unknown"
}

func validVoterKinds() []VoterKind {
	return []VoterKind{VoterCommitteeHotKeyHash, VoterCommitteeHotScriptHash, VoterDrepKeyHash, VoterDrepScriptHash, VoterStakePoolKeyHash}
}

// Voter is the `voter = [0, hash] / [1, hash] / ... / [4, hash]`
// tagged sum identifying who cast a vote.
type Voter struct {
	Kind VoterKind
	Hash common.Blake2b224
}

func (v Voter) WriteToCBOR(w *cbor.Writer) {
	w.WriteStartArray(2)
	w.WriteUint(uint64(v.Kind))
	v.Hash.WriteToCBOR(w)
}

func (v *Voter) ReadFromCBOR(r *cbor.Reader) error {
	if err := r.ValidateArrayOfNElements("voter", 2); err != nil {
		return err
	}
	kind, err := r.ReadUint()
	if err != nil {
		return err
	}
	if err := cbor.ValidateEnumValue("voter", "kind", VoterKind(kind), validVoterKinds(), VoterKind.String); err != nil {
		return err
	}
	v.Kind = VoterKind(kind)
	if err := v.Hash.ReadFromCBOR(r); err != nil {
		return err
	}
	return r.ValidateEndArray("voter")
}

// Vote is a ballot cast against a governance action: no, yes, or
// abstain.
type Vote uint64

const (
	VoteNo Vote = iota
	VoteYes
	VoteAbstain
)

func (v Vote) String() string {
	switch v {
	case VoteNo:
		return "no"
	case VoteYes:
		return "yes"
	case VoteAbstain:
		return "abstain"
	default:
		return "unknown"
	}
}

// VotingProcedure pairs a vote with the optional off-chain rationale
// anchor.
type VotingProcedure struct {
	Vote   Vote
	Anchor *common.Anchor
}

func (p VotingProcedure) WriteToCBOR(w *cbor.Writer) {
	w.WriteStartArray(2)
	w.WriteUint(uint64(p.Vote))
	common.WriteAnchorOrNull(w, p.Anchor)
}

func (p *VotingProcedure) ReadFromCBOR(r *cbor.Reader) error {
	if err := r.ValidateArrayOfNElements("voting_procedure", 2); err != nil {
		return err
	}
	vote, err := r.ReadUint()
	if err != nil {
		return err
	}
	if vote > uint64(VoteAbstain) {
		return errs.Newf(errs.KindInvalidCBORValue, "voting_procedure: unknown vote %d", vote)
	}
	p.Vote = Vote(vote)
	p.Anchor, err = common.ReadAnchorOrNull(r)
	if err != nil {
		return err
	}
	return r.ValidateEndArray("voting_procedure")
}

// VoteEntry is one (gov_action_id -> voting_procedure) pair, the
// value type of the per-voter inner map.
type VoteEntry struct {
	Action    GovActionId
	Procedure VotingProcedure
}

// VotingProcedures is the Conway `{voter => {gov_action_id =>
// voting_procedure}}` map, flattened to a slice of per-voter ballot
// lists since voters cast only a handful of votes per transaction.
type VotingProcedures struct {
	Votes []VoterVotes
}

type VoterVotes struct {
	Voter   Voter
	Ballots []VoteEntry
}

func (vp VotingProcedures) WriteToCBOR(w *cbor.Writer) {
	w.WriteStartMap(uint64(len(vp.Votes)))
	for _, vv := range vp.Votes {
		vv.Voter.WriteToCBOR(w)
		w.WriteStartMap(uint64(len(vv.Ballots)))
		for _, b := range vv.Ballots {
			b.Action.WriteToCBOR(w)
			b.Procedure.WriteToCBOR(w)
		}
	}
}

func ReadVotingProceduresFromCBOR(r *cbor.Reader) (VotingProcedures, error) {
	n, err := r.ReadStartMap()
	if err != nil {
		return VotingProcedures{}, err
	}
	var out VotingProcedures
	for {
		if n != nil && uint64(len(out.Votes)) >= *n {
			break
		}
		if n == nil {
			st, err := r.PeekState()
			if err != nil {
				return VotingProcedures{}, err
			}
			if st == cbor.StateEndMap {
				break
			}
		}
		var vv VoterVotes
		if err := vv.Voter.ReadFromCBOR(r); err != nil {
			return VotingProcedures{}, err
		}
		inner, err := r.ReadStartMap()
		if err != nil {
			return VotingProcedures{}, err
		}
		for {
			if inner != nil && uint64(len(vv.Ballots)) >= *inner {
				break
			}
			if inner == nil {
				st, err := r.PeekState()
				if err != nil {
					return VotingProcedures{}, err
				}
				if st == cbor.StateEndMap {
					break
				}
			}
			var entry VoteEntry
			if err := entry.Action.ReadFromCBOR(r); err != nil {
				return VotingProcedures{}, err
			}
			if err := entry.Procedure.ReadFromCBOR(r); err != nil {
				return VotingProcedures{}, err
			}
			vv.Ballots = append(vv.Ballots, entry)
		}
		if err := r.ReadEndMap(); err != nil {
			return VotingProcedures{}, err
		}
		out.Votes = append(out.Votes, vv)
	}
	if err := r.ReadEndMap(); err != nil {
		return VotingProcedures{}, err
	}
	return out, nil
}

// GovernanceAction is a minimal closed sum over the Conway proposal
// kinds sufficient to reference and round-trip a proposal; full
// parameter-update payloads are out of scope (spec Non-goals exclude
// protocol-parameter modeling).
type GovernanceAction struct {
	Kind          uint64 // 0 parameter_change .. 6 info_action
	PrevActionId  *GovActionId
	WithdrawalsTo []common.Address
	Anchor        *common.Anchor
}

func (a GovernanceAction) WriteToCBOR(w *cbor.Writer) {
	w.WriteStartArray(2)
	w.WriteUint(a.Kind)
	if a.Anchor != nil {
		a.Anchor.WriteToCBOR(w)
	} else {
		w.WriteNull()
	}
}

func (a *GovernanceAction) ReadFromCBOR(r *cbor.Reader) error {
	if err := r.ValidateArrayOfNElements("governance_action", 2); err != nil {
		return err
	}
	kind, err := r.ReadUint()
	if err != nil {
		return err
	}
	a.Kind = kind
	anchor, err := common.ReadAnchorOrNull(r)
	if err != nil {
		return err
	}
	a.Anchor = anchor
	return r.ValidateEndArray("governance_action")
}
