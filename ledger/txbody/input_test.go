package txbody

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/ledger/common"
)

func TestTransactionInputRoundTrip(t *testing.T) {
	txId := common.NewBlake2b256(bytes.Repeat([]byte{0x11}, 32))
	in := NewTransactionInput(txId, 3)

	w := cbor.NewWriter()
	in.WriteToCBOR(w)

	var got TransactionInput
	if err := got.ReadFromCBOR(cbor.NewReader(w.Bytes())); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !got.Equal(in) {
		t.Fatalf("got %+v, want %+v", got, in)
	}
}

func TestSortInputsOrdersByTxIdThenIndex(t *testing.T) {
	a := NewTransactionInput(common.NewBlake2b256(bytes.Repeat([]byte{0x01}, 32)), 5)
	b := NewTransactionInput(common.NewBlake2b256(bytes.Repeat([]byte{0x01}, 32)), 1)
	c := NewTransactionInput(common.NewBlake2b256(bytes.Repeat([]byte{0x00}, 32)), 9)

	sorted := SortInputs([]TransactionInput{a, b, c})
	if !sorted[0].Equal(c) || !sorted[1].Equal(b) || !sorted[2].Equal(a) {
		t.Fatalf("unexpected order: %+v", sorted)
	}
}

func TestTransactionInputRejectsWrongArraySize(t *testing.T) {
	raw, err := hex.DecodeString("81187b")
	if err != nil {
		t.Fatal(err)
	}
	var in TransactionInput
	if err := in.ReadFromCBOR(cbor.NewReader(raw)); err == nil {
		t.Fatal("expected error for 1-element array")
	}
}
