package txbody

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/ledger/common"
	"github.com/Salvionied/apollo/v2/ledger/plutusdata"
	"github.com/Salvionied/apollo/v2/ledger/value"
)

func testAddress(t *testing.T) common.Address {
	t.Helper()
	addr, err := common.NewAddressFromBytes(make([]byte, 1+28+28))
	if err != nil {
		t.Fatalf("address: %v", err)
	}
	return addr
}

func TestSimpleOutputRoundTripsAsMapShape(t *testing.T) {
	addr := testAddress(t)
	out := NewSimpleOutput(addr, 2_000_000)

	w := cbor.NewWriter()
	out.WriteToCBOR(w)

	got, err := ReadTransactionOutputFromCBOR(cbor.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !got.Address.Equal(out.Address) || got.Amount.Coin.Int64() != 2_000_000 {
		t.Fatalf("got %+v", got)
	}

	// The map-shape wire form starts with a map header (0xa2 for 2
	// fields), not an array header.
	if w.Bytes()[0]&0xe0 != 0xa0 {
		t.Fatalf("expected map major type, got byte %#x", w.Bytes()[0])
	}
}

func TestOutputWithDatumHashAndScriptRefRoundTrip(t *testing.T) {
	addr := testAddress(t)
	out := NewSimpleOutput(addr, 5_000_000)
	hash := common.NewBlake2b256(bytes.Repeat([]byte{0x22}, 32))
	out.DatumOption = NewDatumOptionHash(hash)
	script, err := common.NewScriptRef(common.NewPlutusV2Script([]byte{0x01, 0x02, 0x03}))
	if err != nil {
		t.Fatal(err)
	}
	out.ScriptRef = script

	w := cbor.NewWriter()
	out.WriteToCBOR(w)

	got, err := ReadTransactionOutputFromCBOR(cbor.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.DatumOption == nil || got.DatumOption.Kind != DatumOptionHash || got.DatumOption.Hash != hash {
		t.Fatalf("datum option mismatch: %+v", got.DatumOption)
	}
	if got.ScriptRef == nil || got.ScriptRef.Hash() != script.Hash() {
		t.Fatalf("script ref mismatch")
	}
}

func TestOutputWithInlineDatumRoundTrip(t *testing.T) {
	addr := testAddress(t)
	out := NewSimpleOutput(addr, 1_500_000)
	out.DatumOption = NewDatumOptionInline(plutusdata.NewInteger(big.NewInt(42)))

	w := cbor.NewWriter()
	out.WriteToCBOR(w)

	got, err := ReadTransactionOutputFromCBOR(cbor.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.DatumOption == nil || got.DatumOption.Kind != DatumOptionInline || got.DatumOption.Data == nil {
		t.Fatalf("inline datum missing: %+v", got.DatumOption)
	}
	if !got.DatumOption.Data.Equal(out.DatumOption.Data) {
		t.Fatalf("inline datum mismatch")
	}
}

func TestLegacyArrayOutputAcceptedOnRead(t *testing.T) {
	addr := testAddress(t)
	legacy := cbor.NewWriter()
	legacy.WriteStartArray(2)
	addr.WriteToCBOR(legacy)
	value.NewValue(value.NewCoin(7_000_000)).WriteToCBOR(legacy)

	got, err := ReadTransactionOutputFromCBOR(cbor.NewReader(legacy.Bytes()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Amount.Coin.Int64() != 7_000_000 {
		t.Fatalf("got coin %d", got.Amount.Coin.Int64())
	}

	// Re-encoding a legacy-shaped source without mutation must be
	// byte-exact (cborCache replay), even though the writer would
	// otherwise always choose the map shape for a fresh value.
	w := cbor.NewWriter()
	got.WriteToCBOR(w)
	if !bytes.Equal(w.Bytes(), legacy.Bytes()) {
		t.Fatalf("cache replay not byte-exact")
	}
}

func TestLegacyArrayOutputWithDatumHashAccepted(t *testing.T) {
	addr := testAddress(t)
	hash := common.NewBlake2b256(bytes.Repeat([]byte{0x33}, 32))
	legacy := cbor.NewWriter()
	legacy.WriteStartArray(3)
	addr.WriteToCBOR(legacy)
	value.NewValue(value.NewCoin(1)).WriteToCBOR(legacy)
	hash.WriteToCBOR(legacy)

	got, err := ReadTransactionOutputFromCBOR(cbor.NewReader(legacy.Bytes()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.DatumOption == nil || got.DatumOption.Hash != hash {
		t.Fatalf("datum hash not recovered: %+v", got.DatumOption)
	}
}

func TestDatumOptionRejectsUnknownKind(t *testing.T) {
	w := cbor.NewWriter()
	w.WriteStartArray(2)
	w.WriteUint(9)
	w.WriteUint(0)
	if _, err := readDatumOption(cbor.NewReader(w.Bytes())); err == nil {
		t.Fatal("expected error for unknown datum option kind")
	}
}

func TestTransactionOutputClearCBORCacheForcesFreshEncode(t *testing.T) {
	addr := testAddress(t)
	legacy := cbor.NewWriter()
	legacy.WriteStartArray(2)
	addr.WriteToCBOR(legacy)
	value.NewValue(value.NewCoin(1)).WriteToCBOR(legacy)

	got, err := ReadTransactionOutputFromCBOR(cbor.NewReader(legacy.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	got.ClearCBORCache()

	w := cbor.NewWriter()
	got.WriteToCBOR(w)
	if bytes.Equal(w.Bytes(), legacy.Bytes()) {
		t.Fatal("expected map-shape re-encode after clearing cache, got identical legacy bytes")
	}
	if w.Bytes()[0]&0xe0 != 0xa0 {
		t.Fatalf("expected map major type after cache clear, got byte %#x", w.Bytes()[0])
	}
}

func TestTransactionOutputRejectsTruncatedBytes(t *testing.T) {
	raw, err := hex.DecodeString("a1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ReadTransactionOutputFromCBOR(cbor.NewReader(raw)); err == nil {
		t.Fatal("expected error for truncated map header with no fields")
	}
}
