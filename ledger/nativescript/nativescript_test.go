package nativescript

import (
	"encoding/json"
	"testing"

	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/ledger/common"
)

func testKeyHash(b byte) common.Blake2b224 {
	var h common.Blake2b224
	h[0] = b
	return h
}

func TestRequirePubkeyCBORRoundTrip(t *testing.T) {
	s := RequirePubkey(testKeyHash(0xaa))
	w := cbor.NewWriter()
	s.WriteToCBOR(w)

	got, err := ReadFromCBOR(cbor.NewReader(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(s) {
		t.Error("expected round-tripped script to equal original")
	}
}

func TestRequireAllOfCBORRoundTrip(t *testing.T) {
	s := RequireAllOf([]*Script{RequirePubkey(testKeyHash(1)), RequirePubkey(testKeyHash(2))})
	w := cbor.NewWriter()
	s.WriteToCBOR(w)

	got, err := ReadFromCBOR(cbor.NewReader(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(s) {
		t.Error("expected round-tripped require_all_of to equal original")
	}
}

func TestRequireNofKValidation(t *testing.T) {
	if _, err := RequireNofK(0, []*Script{RequirePubkey(testKeyHash(1))}); err == nil {
		t.Error("expected n=0 to be rejected")
	}
	if _, err := RequireNofK(1, nil); err == nil {
		t.Error("expected empty scripts list to be rejected")
	}
	if _, err := RequireNofK(3, []*Script{RequirePubkey(testKeyHash(1))}); err == nil {
		t.Error("expected n exceeding len(scripts) to be rejected")
	}
}

func TestRequireNofKCBORWireShape(t *testing.T) {
	s, err := RequireNofK(2, []*Script{
		RequirePubkey(testKeyHash(1)),
		InvalidBefore(4000),
	})
	if err != nil {
		t.Fatal(err)
	}
	w := cbor.NewWriter()
	s.WriteToCBOR(w)

	r := cbor.NewReader(w.Bytes())
	n, err := r.ReadStartArray()
	if err != nil || n == nil || *n != 3 {
		t.Fatalf("expected a 3-element array [3, n, scripts], got n=%v err=%v", n, err)
	}
	typ, err := r.ReadUint()
	if err != nil || typ != uint64(KindRequireNofK) {
		t.Fatalf("expected type %d, got %d (err=%v)", KindRequireNofK, typ, err)
	}
	required, err := r.ReadUint()
	if err != nil || required != 2 {
		t.Fatalf("expected required=2, got %d (err=%v)", required, err)
	}
}

func TestInvalidBeforeAfterCBORRoundTrip(t *testing.T) {
	before := InvalidBefore(1000)
	w := cbor.NewWriter()
	before.WriteToCBOR(w)
	got, err := ReadFromCBOR(cbor.NewReader(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(before) {
		t.Error("expected invalid_before round trip to match")
	}

	after := InvalidAfter(2000)
	w2 := cbor.NewWriter()
	after.WriteToCBOR(w2)
	got2, err := ReadFromCBOR(cbor.NewReader(w2.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if !got2.Equal(after) {
		t.Error("expected invalid_after round trip to match")
	}
}

// TestNofKJSONScenario mirrors the n-of-k native script scenario: a
// 2-of-2 script over a signature requirement and a before-slot
// requirement, checked for length/required and for JSON-driven
// equality (including inequality against a structurally different
// script).
func TestNofKJSONScenario(t *testing.T) {
	const docJSON = `{"type":"atLeast","required":2,"scripts":[{"type":"sig","keyHash":"966e394a96bb9f9e12bc29d6de30b05b41aa0f0c561ed2252eb1ebed"},{"type":"before","slot":4000}]}`

	var s Script
	if err := json.Unmarshal([]byte(docJSON), &s); err != nil {
		t.Fatal(err)
	}
	if s.Kind != KindRequireNofK {
		t.Fatalf("expected atLeast to decode as require_n_of_k, got %s", s.Kind)
	}
	if s.Required != 2 || len(s.Scripts) != 2 {
		t.Fatalf("expected required=2, len(scripts)=2, got required=%d len=%d", s.Required, len(s.Scripts))
	}

	var s2 Script
	if err := json.Unmarshal([]byte(docJSON), &s2); err != nil {
		t.Fatal(err)
	}
	if !s.Equal(&s2) {
		t.Error("expected two scripts parsed from identical JSON to be equal")
	}

	const differentJSON = `{"type":"atLeast","required":2,"scripts":[{"type":"sig","keyHash":"966e394a96bb9f9e12bc29d6de30b05b41aa0f0c561ed2252eb1ebed"},{"type":"before","slot":4000},{"type":"after","slot":9000}]}`
	var s3 Script
	if err := json.Unmarshal([]byte(differentJSON), &s3); err != nil {
		t.Fatal(err)
	}
	if s.Equal(&s3) {
		t.Error("expected script with an extra clause to compare unequal")
	}
}

func TestMarshalJSONRoundTrip(t *testing.T) {
	orig := RequireAllOf([]*Script{RequirePubkey(testKeyHash(9)), InvalidAfter(500)})
	raw, err := json.Marshal(orig)
	if err != nil {
		t.Fatal(err)
	}
	var got Script
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if !orig.Equal(&got) {
		t.Error("expected JSON marshal/unmarshal round trip to preserve structure")
	}
}

func TestCBORCachePreservesSourceBytes(t *testing.T) {
	s := RequirePubkey(testKeyHash(7))
	w := cbor.NewWriter()
	s.WriteToCBOR(w)

	decoded, err := ReadFromCBOR(cbor.NewReader(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	w2 := cbor.NewWriter()
	decoded.WriteToCBOR(w2)
	if string(w.Bytes()) != string(w2.Bytes()) {
		t.Error("expected cached CBOR to replay byte-exact")
	}

	decoded.ClearCBORCache()
	w3 := cbor.NewWriter()
	decoded.WriteToCBOR(w3)
	if string(w.Bytes()) != string(w3.Bytes()) {
		t.Error("expected freshly re-encoded bytes to still match the canonical form")
	}
}
