package txbody

import (
	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/errs"
	"github.com/Salvionied/apollo/v2/ledger/common"
	"github.com/Salvionied/apollo/v2/ledger/plutusdata"
	"github.com/Salvionied/apollo/v2/ledger/value"
)

// DatumOptionKind discriminates whether an output's datum is carried
// by hash or included inline.
type DatumOptionKind uint64

const (
	DatumOptionHash DatumOptionKind = iota
	DatumOptionInline
)

// DatumOption is the `datum_option = [0, data_hash] / [1,
// inline_data]` tagged sum attached to a post-Alonzo output.
type DatumOption struct {
	Kind DatumOptionKind
	Hash common.Blake2b256
	Data *plutusdata.Data
}

func NewDatumOptionHash(h common.Blake2b256) *DatumOption {
	return &DatumOption{Kind: DatumOptionHash, Hash: h}
}

func NewDatumOptionInline(d *plutusdata.Data) *DatumOption {
	return &DatumOption{Kind: DatumOptionInline, Data: d}
}

func (d DatumOption) WriteToCBOR(w *cbor.Writer) {
	w.WriteStartArray(2)
	w.WriteUint(uint64(d.Kind))
	switch d.Kind {
	case DatumOptionHash:
		d.Hash.WriteToCBOR(w)
	case DatumOptionInline:
		inner := cbor.NewWriter()
		d.Data.WriteToCBOR(inner)
		w.WriteTag(cbor.TagEncodedCBORItem)
		w.WriteBytestring(inner.Bytes())
	}
}

func readDatumOption(r *cbor.Reader) (*DatumOption, error) {
	if err := r.ValidateArrayOfNElements("datum_option", 2); err != nil {
		return nil, err
	}
	kind, err := r.ReadUint()
	if err != nil {
		return nil, err
	}
	opt := &DatumOption{Kind: DatumOptionKind(kind)}
	switch opt.Kind {
	case DatumOptionHash:
		if err := opt.Hash.ReadFromCBOR(r); err != nil {
			return nil, err
		}
	case DatumOptionInline:
		if err := r.ValidateTag("inline_datum", cbor.TagEncodedCBORItem); err != nil {
			return nil, err
		}
		raw, err := r.ReadByteString()
		if err != nil {
			return nil, err
		}
		data, err := plutusdata.ReadFromCBOR(cbor.NewReader(raw))
		if err != nil {
			return nil, err
		}
		opt.Data = data
	default:
		return nil, errs.Newf(errs.KindInvalidCBORValue, "datum_option: unknown kind %d", kind)
	}
	return opt, r.ValidateEndArray("datum_option")
}

// TransactionOutput is (address, value, optional datum, optional
// script reference). The writer always selects the minimal
// post-Alonzo map-encoded form supporting the fields actually present;
// ReadFromCBOR accepts both that and the legacy array-encoded form.
type TransactionOutput struct {
	Address     common.Address
	Amount      value.Value
	DatumOption *DatumOption
	ScriptRef   *common.ScriptRef

	cborCache []byte
}

func NewSimpleOutput(addr common.Address, coin int64) TransactionOutput {
	return TransactionOutput{Address: addr, Amount: value.NewValue(value.NewCoin(coin))}
}

func (o *TransactionOutput) ClearCBORCache() { o.cborCache = nil }

// post-Alonzo output map integer field keys.
const (
	outFieldAddress   = 0
	outFieldAmount    = 1
	outFieldDatum     = 2
	outFieldScriptRef = 3
)

func (o *TransactionOutput) WriteToCBOR(w *cbor.Writer) {
	if o.cborCache != nil {
		w.WriteEncoded(o.cborCache)
		return
	}
	inner := cbor.NewWriter()
	n := uint64(2)
	if o.DatumOption != nil {
		n++
	}
	if o.ScriptRef != nil {
		n++
	}
	inner.WriteStartMap(n)
	inner.WriteUint(outFieldAddress)
	o.Address.WriteToCBOR(inner)
	inner.WriteUint(outFieldAmount)
	o.Amount.WriteToCBOR(inner)
	if o.DatumOption != nil {
		inner.WriteUint(outFieldDatum)
		o.DatumOption.WriteToCBOR(inner)
	}
	if o.ScriptRef != nil {
		inner.WriteUint(outFieldScriptRef)
		o.ScriptRef.WriteToCBOR(inner)
	}
	w.WriteEncoded(inner.Bytes())
}

// ReadTransactionOutputFromCBOR decodes either output shape,
// capturing the raw bytes in a CBOR cache so re-encoding without
// mutation is byte-exact even for a legacy-shaped source (the writer
// itself only ever produces the map shape going forward).
func ReadTransactionOutputFromCBOR(r *cbor.Reader) (*TransactionOutput, error) {
	raw, err := r.ReadEncodedValue()
	if err != nil {
		return nil, err
	}
	inner := cbor.NewReader(raw)
	o, err := decodeOutput(inner)
	if err != nil {
		return nil, err
	}
	o.cborCache = raw
	return o, nil
}

func decodeOutput(r *cbor.Reader) (*TransactionOutput, error) {
	st, err := r.PeekState()
	if err != nil {
		return nil, err
	}
	if st == cbor.StateStartMap {
		return decodePostAlonzoOutput(r)
	}
	return decodeLegacyOutput(r)
}

func decodePostAlonzoOutput(r *cbor.Reader) (*TransactionOutput, error) {
	n, err := r.ReadStartMap()
	if err != nil {
		return nil, err
	}
	o := &TransactionOutput{}
	seen := 0
	for {
		if n != nil && uint64(seen) >= *n {
			break
		}
		if n == nil {
			s2, err := r.PeekState()
			if err != nil {
				return nil, err
			}
			if s2 == cbor.StateEndMap {
				break
			}
		}
		key, err := r.ReadUint()
		if err != nil {
			return nil, err
		}
		switch key {
		case outFieldAddress:
			if err := o.Address.ReadFromCBOR(r); err != nil {
				return nil, err
			}
		case outFieldAmount:
			v, err := value.ReadValueFromCBOR(r)
			if err != nil {
				return nil, err
			}
			o.Amount = v
		case outFieldDatum:
			opt, err := readDatumOption(r)
			if err != nil {
				return nil, err
			}
			o.DatumOption = opt
		case outFieldScriptRef:
			ref, err := common.ReadScriptRefFromCBOR(r)
			if err != nil {
				return nil, err
			}
			o.ScriptRef = ref
		default:
			if err := r.SkipValue(); err != nil {
				return nil, err
			}
		}
		seen++
	}
	if n == nil {
		if err := r.ReadEndMap(); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// decodeLegacyOutput reads the pre-Alonzo `[address, amount,
// data_hash?]` array shape.
func decodeLegacyOutput(r *cbor.Reader) (*TransactionOutput, error) {
	n, err := r.ReadStartArray()
	if err != nil {
		return nil, err
	}
	o := &TransactionOutput{}
	if err := o.Address.ReadFromCBOR(r); err != nil {
		return nil, err
	}
	v, err := value.ReadValueFromCBOR(r)
	if err != nil {
		return nil, err
	}
	o.Amount = v
	if n == nil || *n > 2 {
		st, err := r.PeekState()
		if err != nil {
			return nil, err
		}
		if st != cbor.StateEndArray {
			var h common.Blake2b256
			if err := h.ReadFromCBOR(r); err != nil {
				return nil, err
			}
			o.DatumOption = NewDatumOptionHash(h)
		}
	}
	return o, r.ReadEndArray()
}
