package cert

import (
	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/errs"
	"github.com/Salvionied/apollo/v2/ledger/common"
)

// WriteToCBOR replays a cached encoding verbatim when present,
// otherwise writes the `certificate = [type, ...]` CDDL shape that
// matches c.Kind.
func (c *Certificate) WriteToCBOR(w *cbor.Writer) {
	if c.cborCache != nil {
		w.WriteEncoded(c.cborCache)
		return
	}
	inner := cbor.NewWriter()
	c.writeBody(inner)
	w.WriteEncoded(inner.Bytes())
}

func (c *Certificate) writeBody(w *cbor.Writer) {
	switch c.Kind {
	case KindStakeRegistration, KindStakeDeregistration:
		w.WriteStartArray(2)
		w.WriteUint(uint64(c.Kind))
		c.StakeCredential.WriteToCBOR(w)
	case KindStakeDelegation:
		w.WriteStartArray(3)
		w.WriteUint(uint64(c.Kind))
		c.StakeCredential.WriteToCBOR(w)
		c.PoolKeyHash.WriteToCBOR(w)
	case KindPoolRegistration:
		w.WriteStartArray(10)
		w.WriteUint(uint64(c.Kind))
		c.PoolParams.WriteToCBOR(w)
	case KindPoolRetirement:
		w.WriteStartArray(3)
		w.WriteUint(uint64(c.Kind))
		c.PoolKeyHash.WriteToCBOR(w)
		w.WriteUint(c.Epoch)
	case KindStakeRegistrationDeposit, KindStakeDeregistrationDeposit:
		w.WriteStartArray(3)
		w.WriteUint(uint64(c.Kind))
		c.StakeCredential.WriteToCBOR(w)
		w.WriteUint(c.Deposit)
	case KindVoteDelegation:
		w.WriteStartArray(3)
		w.WriteUint(uint64(c.Kind))
		c.StakeCredential.WriteToCBOR(w)
		c.Drep.WriteToCBOR(w)
	case KindStakeVoteDelegation:
		w.WriteStartArray(4)
		w.WriteUint(uint64(c.Kind))
		c.StakeCredential.WriteToCBOR(w)
		c.PoolKeyHash.WriteToCBOR(w)
		c.Drep.WriteToCBOR(w)
	case KindStakeRegistrationDelegation:
		w.WriteStartArray(4)
		w.WriteUint(uint64(c.Kind))
		c.StakeCredential.WriteToCBOR(w)
		c.PoolKeyHash.WriteToCBOR(w)
		w.WriteUint(c.Deposit)
	case KindVoteRegistrationDelegation:
		w.WriteStartArray(4)
		w.WriteUint(uint64(c.Kind))
		c.StakeCredential.WriteToCBOR(w)
		c.Drep.WriteToCBOR(w)
		w.WriteUint(c.Deposit)
	case KindStakeVoteRegistrationDelegation:
		w.WriteStartArray(5)
		w.WriteUint(uint64(c.Kind))
		c.StakeCredential.WriteToCBOR(w)
		c.PoolKeyHash.WriteToCBOR(w)
		c.Drep.WriteToCBOR(w)
		w.WriteUint(c.Deposit)
	case KindAuthCommitteeHot:
		w.WriteStartArray(3)
		w.WriteUint(uint64(c.Kind))
		c.ColdCredential.WriteToCBOR(w)
		c.HotCredential.WriteToCBOR(w)
	case KindResignCommitteeCold:
		w.WriteStartArray(3)
		w.WriteUint(uint64(c.Kind))
		c.ColdCredential.WriteToCBOR(w)
		common.WriteAnchorOrNull(w, c.Anchor)
	case KindRegisterDrep:
		w.WriteStartArray(4)
		w.WriteUint(uint64(c.Kind))
		c.StakeCredential.WriteToCBOR(w)
		w.WriteUint(c.Deposit)
		common.WriteAnchorOrNull(w, c.Anchor)
	case KindUnregisterDrep:
		w.WriteStartArray(3)
		w.WriteUint(uint64(c.Kind))
		c.StakeCredential.WriteToCBOR(w)
		w.WriteUint(c.Deposit)
	case KindUpdateDrep:
		w.WriteStartArray(3)
		w.WriteUint(uint64(c.Kind))
		c.StakeCredential.WriteToCBOR(w)
		common.WriteAnchorOrNull(w, c.Anchor)
	}
}

// ReadCertificateFromCBOR decodes a single certificate, capturing its
// raw bytes in a CBOR cache so re-encoding without mutation is
// byte-exact.
func ReadCertificateFromCBOR(r *cbor.Reader) (*Certificate, error) {
	raw, err := r.ReadEncodedValue()
	if err != nil {
		return nil, err
	}
	inner := cbor.NewReader(raw)
	c, err := decodeCertificate(inner)
	if err != nil {
		return nil, err
	}
	c.cborCache = raw
	return c, nil
}

func decodeCertificate(r *cbor.Reader) (*Certificate, error) {
	n, err := r.ReadStartArray()
	if err != nil {
		return nil, err
	}
	kindVal, err := r.ReadUint()
	if err != nil {
		return nil, err
	}
	if err := cbor.ValidateEnumValue("certificate", "type", Kind(kindVal), validKinds(), Kind.String); err != nil {
		return nil, err
	}
	c := &Certificate{Kind: Kind(kindVal)}

	readCred := func() (*common.Credential, error) {
		var cred common.Credential
		if err := cred.ReadFromCBOR(r); err != nil {
			return nil, err
		}
		return &cred, nil
	}
	readDrep := func() (*common.Drep, error) {
		var d common.Drep
		if err := d.ReadFromCBOR(r); err != nil {
			return nil, err
		}
		return &d, nil
	}

	switch c.Kind {
	case KindStakeRegistration, KindStakeDeregistration:
		if err := expectLen(n, 2); err != nil {
			return nil, err
		}
		if c.StakeCredential, err = readCred(); err != nil {
			return nil, err
		}
	case KindStakeDelegation:
		if err := expectLen(n, 3); err != nil {
			return nil, err
		}
		if c.StakeCredential, err = readCred(); err != nil {
			return nil, err
		}
		if err := c.PoolKeyHash.ReadFromCBOR(r); err != nil {
			return nil, err
		}
	case KindPoolRegistration:
		if err := expectLen(n, 10); err != nil {
			return nil, err
		}
		if err := c.PoolParams.ReadFromCBOR(r); err != nil {
			return nil, err
		}
	case KindPoolRetirement:
		if err := expectLen(n, 3); err != nil {
			return nil, err
		}
		if err := c.PoolKeyHash.ReadFromCBOR(r); err != nil {
			return nil, err
		}
		if c.Epoch, err = r.ReadUint(); err != nil {
			return nil, err
		}
	case KindStakeRegistrationDeposit, KindStakeDeregistrationDeposit:
		if err := expectLen(n, 3); err != nil {
			return nil, err
		}
		if c.StakeCredential, err = readCred(); err != nil {
			return nil, err
		}
		if c.Deposit, err = r.ReadUint(); err != nil {
			return nil, err
		}
	case KindVoteDelegation:
		if err := expectLen(n, 3); err != nil {
			return nil, err
		}
		if c.StakeCredential, err = readCred(); err != nil {
			return nil, err
		}
		if c.Drep, err = readDrep(); err != nil {
			return nil, err
		}
	case KindStakeVoteDelegation:
		if err := expectLen(n, 4); err != nil {
			return nil, err
		}
		if c.StakeCredential, err = readCred(); err != nil {
			return nil, err
		}
		if err := c.PoolKeyHash.ReadFromCBOR(r); err != nil {
			return nil, err
		}
		if c.Drep, err = readDrep(); err != nil {
			return nil, err
		}
	case KindStakeRegistrationDelegation:
		if err := expectLen(n, 4); err != nil {
			return nil, err
		}
		if c.StakeCredential, err = readCred(); err != nil {
			return nil, err
		}
		if err := c.PoolKeyHash.ReadFromCBOR(r); err != nil {
			return nil, err
		}
		if c.Deposit, err = r.ReadUint(); err != nil {
			return nil, err
		}
	case KindVoteRegistrationDelegation:
		if err := expectLen(n, 4); err != nil {
			return nil, err
		}
		if c.StakeCredential, err = readCred(); err != nil {
			return nil, err
		}
		if c.Drep, err = readDrep(); err != nil {
			return nil, err
		}
		if c.Deposit, err = r.ReadUint(); err != nil {
			return nil, err
		}
	case KindStakeVoteRegistrationDelegation:
		if err := expectLen(n, 5); err != nil {
			return nil, err
		}
		if c.StakeCredential, err = readCred(); err != nil {
			return nil, err
		}
		if err := c.PoolKeyHash.ReadFromCBOR(r); err != nil {
			return nil, err
		}
		if c.Drep, err = readDrep(); err != nil {
			return nil, err
		}
		if c.Deposit, err = r.ReadUint(); err != nil {
			return nil, err
		}
	case KindAuthCommitteeHot:
		if err := expectLen(n, 3); err != nil {
			return nil, err
		}
		if c.ColdCredential, err = readCred(); err != nil {
			return nil, err
		}
		if c.HotCredential, err = readCred(); err != nil {
			return nil, err
		}
	case KindResignCommitteeCold:
		if err := expectLen(n, 3); err != nil {
			return nil, err
		}
		if c.ColdCredential, err = readCred(); err != nil {
			return nil, err
		}
		if c.Anchor, err = common.ReadAnchorOrNull(r); err != nil {
			return nil, err
		}
	case KindRegisterDrep:
		if err := expectLen(n, 4); err != nil {
			return nil, err
		}
		if c.StakeCredential, err = readCred(); err != nil {
			return nil, err
		}
		if c.Deposit, err = r.ReadUint(); err != nil {
			return nil, err
		}
		if c.Anchor, err = common.ReadAnchorOrNull(r); err != nil {
			return nil, err
		}
	case KindUnregisterDrep:
		if err := expectLen(n, 3); err != nil {
			return nil, err
		}
		if c.StakeCredential, err = readCred(); err != nil {
			return nil, err
		}
		if c.Deposit, err = r.ReadUint(); err != nil {
			return nil, err
		}
	case KindUpdateDrep:
		if err := expectLen(n, 3); err != nil {
			return nil, err
		}
		if c.StakeCredential, err = readCred(); err != nil {
			return nil, err
		}
		if c.Anchor, err = common.ReadAnchorOrNull(r); err != nil {
			return nil, err
		}
	}
	if err := r.ReadEndArray(); err != nil {
		return nil, err
	}
	return c, nil
}

func expectLen(n *uint64, want uint64) error {
	if n != nil && *n != want {
		return errs.Newf(errs.KindInvalidCBORArraySize, "certificate: expected %d elements, got %d", want, *n)
	}
	return nil
}
