// Package txbody implements transaction inputs, outputs, and the
// transaction body that aggregates them with certificates,
// withdrawals, mint, collateral, reference inputs, and votes (spec
// section 4 overview and §4.3 "Transaction output").
package txbody

import (
	"sort"

	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/ledger/common"
)

// TransactionInput references a previously-produced output by the id
// of the transaction that produced it and its index within that
// transaction's outputs.
type TransactionInput struct {
	TransactionId common.Blake2b256
	Index         uint64
}

func NewTransactionInput(txId common.Blake2b256, index uint64) TransactionInput {
	return TransactionInput{TransactionId: txId, Index: index}
}

func (i TransactionInput) Equal(o TransactionInput) bool {
	return i.TransactionId == o.TransactionId && i.Index == o.Index
}

// Less orders inputs the way a canonical input set sorts them:
// lexicographically by transaction id, then by index.
func (i TransactionInput) Less(o TransactionInput) bool {
	if i.TransactionId != o.TransactionId {
		return string(i.TransactionId[:]) < string(o.TransactionId[:])
	}
	return i.Index < o.Index
}

func (i TransactionInput) WriteToCBOR(w *cbor.Writer) {
	w.WriteStartArray(2)
	i.TransactionId.WriteToCBOR(w)
	w.WriteUint(i.Index)
}

func (i *TransactionInput) ReadFromCBOR(r *cbor.Reader) error {
	if err := r.ValidateArrayOfNElements("transaction_input", 2); err != nil {
		return err
	}
	if err := i.TransactionId.ReadFromCBOR(r); err != nil {
		return err
	}
	idx, err := r.ReadUint()
	if err != nil {
		return err
	}
	i.Index = idx
	return r.ValidateEndArray("transaction_input")
}

// SortInputs returns a copy of ins in canonical input-set order.
func SortInputs(ins []TransactionInput) []TransactionInput {
	out := append([]TransactionInput(nil), ins...)
	sort.Slice(out, func(a, b int) bool { return out[a].Less(out[b]) })
	return out
}
