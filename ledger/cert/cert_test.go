package cert

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/ledger/common"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex: %v", err)
	}
	return b
}

// decode 0x83128200581c00..00f6 - update_drep_cert with a null anchor.
func TestUpdateDrepNoAnchor(t *testing.T) {
	raw := mustHex(t, "83128200581c00000000000000000000000000000000000000000000000000000000f6")
	c, err := ReadCertificateFromCBOR(cbor.NewReader(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.Kind != KindUpdateDrep {
		t.Fatalf("expected update_drep kind, got %v", c.Kind)
	}
	if c.StakeCredential == nil || c.StakeCredential.Kind != common.CredentialKeyHash {
		t.Fatalf("expected key-hash credential, got %+v", c.StakeCredential)
	}
	if c.StakeCredential.Hash != (common.Blake2b224{}) {
		t.Errorf("expected zero hash")
	}
	if c.Anchor != nil {
		t.Errorf("expected nil anchor, got %+v", c.Anchor)
	}
	if c.PoolKeyHash != (common.Blake2b224{}) {
		t.Errorf("pool key hash should be absent/zero for this variant")
	}

	w := cbor.NewWriter()
	c.WriteToCBOR(w)
	if !bytes.Equal(w.Bytes(), raw) {
		t.Errorf("re-encode mismatch:\n got  %x\n want %x", w.Bytes(), raw)
	}
}

// decode the same credential with a populated anchor.
func TestUpdateDrepWithAnchor(t *testing.T) {
	raw := mustHex(t, "83128200581c00000000000000000000000000000000000000000000000000000000"+
		"82"+
		"7668747470733a2f2f7777772e736f6d6575726c2e696f"+
		"5820"+"0000000000000000000000000000000000000000000000000000000000000000")
	c, err := ReadCertificateFromCBOR(cbor.NewReader(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.Kind != KindUpdateDrep {
		t.Fatalf("expected update_drep kind, got %v", c.Kind)
	}
	if c.Anchor == nil {
		t.Fatal("expected a populated anchor")
	}
	if c.Anchor.Url != "https://www.someurl.io" {
		t.Errorf("expected anchor url, got %q", c.Anchor.Url)
	}
	if c.Anchor.Hash != (common.Blake2b256{}) {
		t.Errorf("expected zero anchor hash")
	}

	w := cbor.NewWriter()
	c.WriteToCBOR(w)
	if !bytes.Equal(w.Bytes(), raw) {
		t.Errorf("re-encode mismatch:\n got  %x\n want %x", w.Bytes(), raw)
	}
}

func TestStakeRegistrationRoundTrip(t *testing.T) {
	cred := common.NewKeyHashCredential(common.Blake2b224{1, 2, 3})
	c := NewStakeRegistration(cred)
	w := cbor.NewWriter()
	(&c).WriteToCBOR(w)

	got, err := ReadCertificateFromCBOR(cbor.NewReader(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(c) {
		t.Errorf("expected %+v, got %+v", c, got)
	}
}

func TestStakeVoteRegistrationDelegationRoundTrip(t *testing.T) {
	cred := common.NewScriptHashCredential(common.Blake2b224{9})
	pool := common.Blake2b224{8}
	drep := common.NewDrepAlwaysAbstain()
	c := NewStakeVoteRegistrationDelegation(cred, pool, drep, 2_000_000)
	w := cbor.NewWriter()
	(&c).WriteToCBOR(w)

	got, err := ReadCertificateFromCBOR(cbor.NewReader(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindStakeVoteRegistrationDelegation {
		t.Fatalf("unexpected kind %v", got.Kind)
	}
	if got.PoolKeyHash != pool || got.Deposit != 2_000_000 {
		t.Errorf("unexpected payload: %+v", got)
	}
	if got.Drep == nil || !got.Drep.Equal(drep) {
		t.Errorf("expected drep %+v, got %+v", drep, got.Drep)
	}
}

func TestPoolRegistrationRoundTrip(t *testing.T) {
	rawAddr := make([]byte, 1+28+28)
	addr, err := common.NewAddressFromBytes(rawAddr)
	if err != nil {
		t.Fatalf("fixture address: %v", err)
	}
	params := PoolParams{
		Operator:      common.Blake2b224{1},
		VrfKeyHash:    common.Blake2b256{2},
		Pledge:        1_000_000,
		Cost:          340_000_000,
		Margin:        common.NewRational(1, 100),
		RewardAccount: addr,
		Owners:        []common.Blake2b224{{3}, {4}},
		Relays: []Relay{
			{Kind: 1, DnsName: "relay.example.com"},
		},
	}
	c := NewPoolRegistration(params)
	w := cbor.NewWriter()
	(&c).WriteToCBOR(w)

	got, err := ReadCertificateFromCBOR(cbor.NewReader(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindPoolRegistration {
		t.Fatalf("unexpected kind %v", got.Kind)
	}
	if got.PoolParams.Operator != params.Operator || len(got.PoolParams.Owners) != 2 {
		t.Errorf("unexpected pool params: %+v", got.PoolParams)
	}
	if !got.PoolParams.Margin.Equal(params.Margin) {
		t.Errorf("expected margin %+v, got %+v", params.Margin, got.PoolParams.Margin)
	}
}

func TestCertificateRejectsUnknownType(t *testing.T) {
	w := cbor.NewWriter()
	w.WriteStartArray(2)
	w.WriteUint(99)
	w.WriteUint(0)
	if _, err := ReadCertificateFromCBOR(cbor.NewReader(w.Bytes())); err == nil {
		t.Error("expected unknown certificate type to be rejected")
	}
}

func TestVotingProceduresRoundTrip(t *testing.T) {
	vp := VotingProcedures{
		Votes: []VoterVotes{
			{
				Voter: Voter{Kind: VoterDrepKeyHash, Hash: common.Blake2b224{5}},
				Ballots: []VoteEntry{
					{
						Action:    GovActionId{TransactionId: common.Blake2b256{6}, Index: 0},
						Procedure: VotingProcedure{Vote: VoteYes},
					},
				},
			},
		},
	}
	w := cbor.NewWriter()
	vp.WriteToCBOR(w)

	got, err := ReadVotingProceduresFromCBOR(cbor.NewReader(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Votes) != 1 || len(got.Votes[0].Ballots) != 1 {
		t.Fatalf("unexpected shape: %+v", got)
	}
	if got.Votes[0].Ballots[0].Procedure.Vote != VoteYes {
		t.Errorf("expected yes vote, got %v", got.Votes[0].Ballots[0].Procedure.Vote)
	}
}
