package tx

import (
	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/ledger/common"
	"github.com/Salvionied/apollo/v2/ledger/txbody"
	"github.com/Salvionied/apollo/v2/ledger/witness"
)

// Transaction is the four-element `[body, witness_set, is_valid,
// auxiliary_data / null]` envelope that goes on the wire (spec
// section 4).
type Transaction struct {
	Body          *txbody.TransactionBody
	WitnessSet    *witness.WitnessSet
	IsValid       bool
	AuxiliaryData *AuxiliaryData
}

func (t *Transaction) WriteToCBOR(w *cbor.Writer) error {
	w.WriteStartArray(4)
	t.Body.WriteToCBOR(w)
	t.WitnessSet.WriteToCBOR(w)
	w.WriteBool(t.IsValid)
	if t.AuxiliaryData != nil {
		if err := t.AuxiliaryData.WriteToCBOR(w); err != nil {
			return err
		}
	} else {
		w.WriteNull()
	}
	return nil
}

// Bytes returns the canonical CBOR encoding of the transaction.
func (t *Transaction) Bytes() ([]byte, error) {
	w := cbor.NewWriter()
	if err := t.WriteToCBOR(w); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Hash returns the Blake2b-256 hash of the transaction body, the
// value used to identify the transaction on chain.
func (t *Transaction) Hash() common.Blake2b256 {
	w := cbor.NewWriter()
	t.Body.WriteToCBOR(w)
	return common.HashBlake2b256(w.Bytes())
}

func ReadTransactionFromCBOR(r *cbor.Reader) (*Transaction, error) {
	if err := r.ValidateArrayOfNElements("transaction", 4); err != nil {
		return nil, err
	}
	body, err := txbody.ReadTransactionBodyFromCBOR(r)
	if err != nil {
		return nil, err
	}
	ws, err := witness.ReadWitnessSetFromCBOR(r)
	if err != nil {
		return nil, err
	}
	valid, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	t := &Transaction{Body: body, WitnessSet: ws, IsValid: valid}
	st, err := r.PeekState()
	if err != nil {
		return nil, err
	}
	if st == cbor.StateNull {
		if err := r.ReadNull(); err != nil {
			return nil, err
		}
	} else {
		aux, err := ReadAuxiliaryDataFromCBOR(r)
		if err != nil {
			return nil, err
		}
		t.AuxiliaryData = aux
	}
	return t, r.ValidateEndArray("transaction")
}
