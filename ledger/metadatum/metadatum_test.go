package metadatum

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/Salvionied/apollo/v2/cbor"
)

func TestCBORRoundTripMapListIntTextBytes(t *testing.T) {
	m := NewMap([]MapEntry{
		{Key: NewText("a"), Value: NewIntFromInt64(42)},
		{Key: NewText("b"), Value: NewList([]*Metadatum{NewText("x"), NewBytes([]byte{1, 2, 3})})},
	})
	w := cbor.NewWriter()
	if err := m.WriteToCBOR(w); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFromCBOR(cbor.NewReader(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(m) {
		t.Errorf("expected %+v, got %+v", m, got)
	}
}

func TestBoundedBytesSizeEnforcedOnWrite(t *testing.T) {
	m := NewBytes(make([]byte, 65))
	w := cbor.NewWriter()
	if err := m.WriteToCBOR(w); err == nil {
		t.Error("expected error for bytes exceeding 64 bytes")
	}
}

func TestBoundedTextSizeEnforcedOnWrite(t *testing.T) {
	m := NewText(strings.Repeat("x", 65))
	w := cbor.NewWriter()
	if err := m.WriteToCBOR(w); err == nil {
		t.Error("expected error for text exceeding 64 characters")
	}
}

func TestBoundedSizeNotEnforcedOnRead(t *testing.T) {
	w := cbor.NewWriter()
	w.WriteBytestring(make([]byte, 65))
	got, err := ReadFromCBOR(cbor.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("expected oversized bytes to be readable, got error: %v", err)
	}
	if len(got.Bytes) != 65 {
		t.Errorf("expected 65 bytes, got %d", len(got.Bytes))
	}
}

// {"k":[1,"two",{"nested":3}]} round-trips through FromJSON -> ToJSON.
func TestMetadatumJSONBridgeRoundTrip(t *testing.T) {
	in := `{"k":[1,"two",{"nested":3}]}`
	m, err := FromJSON([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	out, err := ToJSON(m)
	if err != nil {
		t.Fatal(err)
	}

	var gotNorm, wantNorm any
	if err := json.Unmarshal(out, &gotNorm); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(in), &wantNorm); err != nil {
		t.Fatal(err)
	}
	gotBytes, _ := json.Marshal(gotNorm)
	wantBytes, _ := json.Marshal(wantNorm)
	if string(gotBytes) != string(wantBytes) {
		t.Errorf("expected %s, got %s", wantBytes, gotBytes)
	}
}

// a metadatum containing bytes fails to_json with invalid_metadatum_conversion.
func TestBytesFailsToJSON(t *testing.T) {
	m := NewList([]*Metadatum{NewBytes([]byte("x"))})
	if _, err := ToJSON(m); err == nil {
		t.Error("expected bytes metadatum to fail json conversion")
	}
}

func TestFromJSONRejectsNonIntegerNumber(t *testing.T) {
	if _, err := FromJSON([]byte(`1.5`)); err == nil {
		t.Error("expected non-integer json number to be rejected")
	}
}

func TestFromJSONRejectsExcessiveNesting(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < maxJSONDepth+5; i++ {
		sb.WriteString("[")
	}
	sb.WriteString("1")
	for i := 0; i < maxJSONDepth+5; i++ {
		sb.WriteString("]")
	}
	if _, err := FromJSON([]byte(sb.String())); err == nil {
		t.Error("expected deeply nested json to be rejected")
	}
}

func TestIntegerHandlesBignum(t *testing.T) {
	big64, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	m := NewInt(big64)
	w := cbor.NewWriter()
	if err := m.WriteToCBOR(w); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFromCBOR(cbor.NewReader(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if got.Int.Cmp(big64) != 0 {
		t.Errorf("expected %s, got %s", big64, got.Int)
	}
}
