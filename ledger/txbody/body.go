package txbody

import (
	"sort"

	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/ledger/cert"
	"github.com/Salvionied/apollo/v2/ledger/common"
	"github.com/Salvionied/apollo/v2/ledger/value"
)

// Withdrawal is one reward-account withdrawal; a transaction's
// withdrawals form a reward-address-keyed map on the wire, but
// addresses are not comparable Go map keys (they hold slices), so the
// body keeps them as an ordered slice instead.
type Withdrawal struct {
	RewardAccount common.Address
	Amount        uint64
}

// tagged258 bundles a slice field with whether it was read wrapped in
// the tag-258 finite-set form, mirroring ledger/witness's per-field
// set tracking for the body's own hash-set fields (required signers,
// reference inputs, collateral).
type tagged258[T any] struct {
	items  []T
	tagged bool
}

func writeTaggedSet[T any](w *cbor.Writer, s tagged258[T], write func(*cbor.Writer, T)) {
	if s.tagged {
		w.WriteTag(cbor.TagFiniteSet)
	}
	w.WriteStartArray(uint64(len(s.items)))
	for _, it := range s.items {
		write(w, it)
	}
}

func readTaggedSet[T any](r *cbor.Reader, read func(*cbor.Reader) (T, error)) (tagged258[T], error) {
	var s tagged258[T]
	st, err := r.PeekState()
	if err != nil {
		return s, err
	}
	if st == cbor.StateTag {
		if err := r.ValidateTag("set", cbor.TagFiniteSet); err != nil {
			return s, err
		}
		s.tagged = true
	}
	n, err := r.ReadStartArray()
	if err != nil {
		return s, err
	}
	for {
		if n != nil && uint64(len(s.items)) >= *n {
			break
		}
		if n == nil {
			s2, err := r.PeekState()
			if err != nil {
				return s, err
			}
			if s2 == cbor.StateEndArray {
				break
			}
		}
		item, err := read(r)
		if err != nil {
			return s, err
		}
		s.items = append(s.items, item)
	}
	if err := r.ReadEndArray(); err != nil {
		return s, err
	}
	return s, nil
}

// Transaction body map integer field keys (Conway CDDL).
const (
	bodyFieldInputs                = 0
	bodyFieldOutputs               = 1
	bodyFieldFee                   = 2
	bodyFieldTtl                   = 3
	bodyFieldCertificates          = 4
	bodyFieldWithdrawals           = 5
	bodyFieldAuxDataHash           = 7
	bodyFieldValidityIntervalStart = 8
	bodyFieldMint                  = 9
	bodyFieldScriptDataHash        = 11
	bodyFieldCollateral            = 13
	bodyFieldRequiredSigners       = 14
	bodyFieldNetworkId             = 15
	bodyFieldCollateralReturn      = 16
	bodyFieldTotalCollateral       = 17
	bodyFieldReferenceInputs       = 18
	bodyFieldVotingProcedures      = 19
)

// TransactionBody aggregates inputs, outputs, certificates,
// withdrawals, mint, collateral, reference inputs, and votes.
type TransactionBody struct {
	Inputs  []TransactionInput
	Outputs []*TransactionOutput
	Fee     uint64

	Ttl                   *uint64
	ValidityIntervalStart *uint64
	Certificates          []*cert.Certificate
	Withdrawals           []Withdrawal
	AuxDataHash           *common.Blake2b256
	Mint                  *value.MultiAsset
	ScriptDataHash        *common.Blake2b256
	Collateral            tagged258[TransactionInput]
	RequiredSigners       tagged258[common.Blake2b224]
	NetworkId             *uint8
	CollateralReturn      *TransactionOutput
	TotalCollateral       *uint64
	ReferenceInputs       tagged258[TransactionInput]
	VotingProcedures      *cert.VotingProcedures

	cborCache []byte
}

func (b *TransactionBody) ClearCBORCache() { b.cborCache = nil }

func (b *TransactionBody) fieldCount() uint64 {
	n := uint64(3) // inputs, outputs, fee always present
	if b.Ttl != nil {
		n++
	}
	if len(b.Certificates) > 0 {
		n++
	}
	if len(b.Withdrawals) > 0 {
		n++
	}
	if b.AuxDataHash != nil {
		n++
	}
	if b.ValidityIntervalStart != nil {
		n++
	}
	if b.Mint != nil {
		n++
	}
	if b.ScriptDataHash != nil {
		n++
	}
	if len(b.Collateral.items) > 0 {
		n++
	}
	if len(b.RequiredSigners.items) > 0 {
		n++
	}
	if b.NetworkId != nil {
		n++
	}
	if b.CollateralReturn != nil {
		n++
	}
	if b.TotalCollateral != nil {
		n++
	}
	if len(b.ReferenceInputs.items) > 0 {
		n++
	}
	if b.VotingProcedures != nil && len(b.VotingProcedures.Votes) > 0 {
		n++
	}
	return n
}

func (b *TransactionBody) WriteToCBOR(w *cbor.Writer) {
	if b.cborCache != nil {
		w.WriteEncoded(b.cborCache)
		return
	}
	inner := cbor.NewWriter()
	inner.WriteStartMap(b.fieldCount())

	inner.WriteUint(bodyFieldInputs)
	sorted := SortInputs(b.Inputs)
	inner.WriteStartArray(uint64(len(sorted)))
	for _, in := range sorted {
		in.WriteToCBOR(inner)
	}

	inner.WriteUint(bodyFieldOutputs)
	inner.WriteStartArray(uint64(len(b.Outputs)))
	for _, out := range b.Outputs {
		out.WriteToCBOR(inner)
	}

	inner.WriteUint(bodyFieldFee)
	inner.WriteUint(b.Fee)

	if b.Ttl != nil {
		inner.WriteUint(bodyFieldTtl)
		inner.WriteUint(*b.Ttl)
	}
	if len(b.Certificates) > 0 {
		inner.WriteUint(bodyFieldCertificates)
		inner.WriteStartArray(uint64(len(b.Certificates)))
		for _, c := range b.Certificates {
			c.WriteToCBOR(inner)
		}
	}
	if len(b.Withdrawals) > 0 {
		inner.WriteUint(bodyFieldWithdrawals)
		sortedW := append([]Withdrawal(nil), b.Withdrawals...)
		sort.Slice(sortedW, func(i, j int) bool {
			return string(sortedW[i].RewardAccount.Bytes()) < string(sortedW[j].RewardAccount.Bytes())
		})
		inner.WriteStartMap(uint64(len(sortedW)))
		for _, wd := range sortedW {
			wd.RewardAccount.WriteToCBOR(inner)
			inner.WriteUint(wd.Amount)
		}
	}
	if b.AuxDataHash != nil {
		inner.WriteUint(bodyFieldAuxDataHash)
		b.AuxDataHash.WriteToCBOR(inner)
	}
	if b.ValidityIntervalStart != nil {
		inner.WriteUint(bodyFieldValidityIntervalStart)
		inner.WriteUint(*b.ValidityIntervalStart)
	}
	if b.Mint != nil {
		inner.WriteUint(bodyFieldMint)
		b.Mint.WriteToCBOR(inner, true)
	}
	if b.ScriptDataHash != nil {
		inner.WriteUint(bodyFieldScriptDataHash)
		b.ScriptDataHash.WriteToCBOR(inner)
	}
	if len(b.Collateral.items) > 0 {
		inner.WriteUint(bodyFieldCollateral)
		writeTaggedSet(inner, b.Collateral, func(w *cbor.Writer, in TransactionInput) { in.WriteToCBOR(w) })
	}
	if len(b.RequiredSigners.items) > 0 {
		inner.WriteUint(bodyFieldRequiredSigners)
		writeTaggedSet(inner, b.RequiredSigners, func(w *cbor.Writer, h common.Blake2b224) { h.WriteToCBOR(w) })
	}
	if b.NetworkId != nil {
		inner.WriteUint(bodyFieldNetworkId)
		inner.WriteUint(uint64(*b.NetworkId))
	}
	if b.CollateralReturn != nil {
		inner.WriteUint(bodyFieldCollateralReturn)
		b.CollateralReturn.WriteToCBOR(inner)
	}
	if b.TotalCollateral != nil {
		inner.WriteUint(bodyFieldTotalCollateral)
		inner.WriteUint(*b.TotalCollateral)
	}
	if len(b.ReferenceInputs.items) > 0 {
		inner.WriteUint(bodyFieldReferenceInputs)
		writeTaggedSet(inner, b.ReferenceInputs, func(w *cbor.Writer, in TransactionInput) { in.WriteToCBOR(w) })
	}
	if b.VotingProcedures != nil && len(b.VotingProcedures.Votes) > 0 {
		inner.WriteUint(bodyFieldVotingProcedures)
		b.VotingProcedures.WriteToCBOR(inner)
	}

	w.WriteEncoded(inner.Bytes())
}

// ReadTransactionBodyFromCBOR decodes a transaction body, capturing
// its raw bytes in a CBOR cache for byte-exact re-encoding.
func ReadTransactionBodyFromCBOR(r *cbor.Reader) (*TransactionBody, error) {
	raw, err := r.ReadEncodedValue()
	if err != nil {
		return nil, err
	}
	b, err := decodeBody(cbor.NewReader(raw))
	if err != nil {
		return nil, err
	}
	b.cborCache = raw
	return b, nil
}

func decodeBody(r *cbor.Reader) (*TransactionBody, error) {
	n, err := r.ReadStartMap()
	if err != nil {
		return nil, err
	}
	b := &TransactionBody{}
	seen := 0
	for {
		if n != nil && uint64(seen) >= *n {
			break
		}
		if n == nil {
			st, err := r.PeekState()
			if err != nil {
				return nil, err
			}
			if st == cbor.StateEndMap {
				break
			}
		}
		key, err := r.ReadUint()
		if err != nil {
			return nil, err
		}
		if err := decodeBodyField(r, b, key); err != nil {
			return nil, err
		}
		seen++
	}
	if n == nil {
		if err := r.ReadEndMap(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func decodeBodyField(r *cbor.Reader, b *TransactionBody, key uint64) error {
	switch key {
	case bodyFieldInputs:
		n, err := r.ReadStartArray()
		if err != nil {
			return err
		}
		ins, err := readInputList(r, n)
		if err != nil {
			return err
		}
		b.Inputs = ins
	case bodyFieldOutputs:
		n, err := r.ReadStartArray()
		if err != nil {
			return err
		}
		for {
			if n != nil && uint64(len(b.Outputs)) >= *n {
				break
			}
			if n == nil {
				st, err := r.PeekState()
				if err != nil {
					return err
				}
				if st == cbor.StateEndArray {
					break
				}
			}
			out, err := ReadTransactionOutputFromCBOR(r)
			if err != nil {
				return err
			}
			b.Outputs = append(b.Outputs, out)
		}
		return r.ReadEndArray()
	case bodyFieldFee:
		fee, err := r.ReadUint()
		if err != nil {
			return err
		}
		b.Fee = fee
	case bodyFieldTtl:
		v, err := r.ReadUint()
		if err != nil {
			return err
		}
		b.Ttl = &v
	case bodyFieldCertificates:
		n, err := r.ReadStartArray()
		if err != nil {
			return err
		}
		for {
			if n != nil && uint64(len(b.Certificates)) >= *n {
				break
			}
			if n == nil {
				st, err := r.PeekState()
				if err != nil {
					return err
				}
				if st == cbor.StateEndArray {
					break
				}
			}
			c, err := cert.ReadCertificateFromCBOR(r)
			if err != nil {
				return err
			}
			b.Certificates = append(b.Certificates, c)
		}
		return r.ReadEndArray()
	case bodyFieldWithdrawals:
		n, err := r.ReadStartMap()
		if err != nil {
			return err
		}
		for {
			if n != nil && uint64(len(b.Withdrawals)) >= *n {
				break
			}
			if n == nil {
				st, err := r.PeekState()
				if err != nil {
					return err
				}
				if st == cbor.StateEndMap {
					break
				}
			}
			var addr common.Address
			if err := addr.ReadFromCBOR(r); err != nil {
				return err
			}
			amt, err := r.ReadUint()
			if err != nil {
				return err
			}
			b.Withdrawals = append(b.Withdrawals, Withdrawal{RewardAccount: addr, Amount: amt})
		}
		return r.ReadEndMap()
	case bodyFieldAuxDataHash:
		var h common.Blake2b256
		if err := h.ReadFromCBOR(r); err != nil {
			return err
		}
		b.AuxDataHash = &h
	case bodyFieldValidityIntervalStart:
		v, err := r.ReadUint()
		if err != nil {
			return err
		}
		b.ValidityIntervalStart = &v
	case bodyFieldMint:
		m, err := value.ReadMultiAssetMintFromCBOR(r)
		if err != nil {
			return err
		}
		b.Mint = &m
	case bodyFieldScriptDataHash:
		var h common.Blake2b256
		if err := h.ReadFromCBOR(r); err != nil {
			return err
		}
		b.ScriptDataHash = &h
	case bodyFieldCollateral:
		s, err := readTaggedSet(r, func(r *cbor.Reader) (TransactionInput, error) {
			var in TransactionInput
			err := in.ReadFromCBOR(r)
			return in, err
		})
		if err != nil {
			return err
		}
		b.Collateral = s
	case bodyFieldRequiredSigners:
		s, err := readTaggedSet(r, func(r *cbor.Reader) (common.Blake2b224, error) {
			var h common.Blake2b224
			err := h.ReadFromCBOR(r)
			return h, err
		})
		if err != nil {
			return err
		}
		b.RequiredSigners = s
	case bodyFieldNetworkId:
		v, err := r.ReadUint()
		if err != nil {
			return err
		}
		nid := uint8(v)
		b.NetworkId = &nid
	case bodyFieldCollateralReturn:
		out, err := ReadTransactionOutputFromCBOR(r)
		if err != nil {
			return err
		}
		b.CollateralReturn = out
	case bodyFieldTotalCollateral:
		v, err := r.ReadUint()
		if err != nil {
			return err
		}
		b.TotalCollateral = &v
	case bodyFieldReferenceInputs:
		s, err := readTaggedSet(r, func(r *cbor.Reader) (TransactionInput, error) {
			var in TransactionInput
			err := in.ReadFromCBOR(r)
			return in, err
		})
		if err != nil {
			return err
		}
		b.ReferenceInputs = s
	case bodyFieldVotingProcedures:
		vp, err := cert.ReadVotingProceduresFromCBOR(r)
		if err != nil {
			return err
		}
		b.VotingProcedures = &vp
	default:
		return r.SkipValue()
	}
	return nil
}

// NewCollateralSet builds the body's collateral-inputs set field.
// tagged selects whether it round-trips wrapped in the tag-258
// finite-set form on the next WriteToCBOR.
func NewCollateralSet(items []TransactionInput, tagged bool) tagged258[TransactionInput] {
	return tagged258[TransactionInput]{items: items, tagged: tagged}
}

// CollateralInputs returns the body's collateral inputs.
func (b *TransactionBody) CollateralInputs() []TransactionInput { return b.Collateral.items }

// NewRequiredSignerSet builds the body's required-signers set field.
func NewRequiredSignerSet(items []common.Blake2b224, tagged bool) tagged258[common.Blake2b224] {
	return tagged258[common.Blake2b224]{items: items, tagged: tagged}
}

// RequiredSignerHashes returns the body's required-signer key hashes.
func (b *TransactionBody) RequiredSignerHashes() []common.Blake2b224 { return b.RequiredSigners.items }

// NewReferenceInputSet builds the body's reference-inputs set field.
func NewReferenceInputSet(items []TransactionInput, tagged bool) tagged258[TransactionInput] {
	return tagged258[TransactionInput]{items: items, tagged: tagged}
}

// ReferenceInputItems returns the body's reference inputs.
func (b *TransactionBody) ReferenceInputItems() []TransactionInput { return b.ReferenceInputs.items }

func readInputList(r *cbor.Reader, n *uint64) ([]TransactionInput, error) {
	var out []TransactionInput
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
		var in TransactionInput
		if err := in.ReadFromCBOR(r); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	if err := r.ReadEndArray(); err != nil {
		return nil, err
	}
	return out, nil
}
