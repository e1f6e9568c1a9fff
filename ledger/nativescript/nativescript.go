// Package nativescript implements the native (multi-signature) script
// domain model: a recursive tagged sum of signature requirements, its
// two-element-array CBOR wire form, and the named-key JSON form used
// by off-chain tooling and Blockfrost-style evaluators.
package nativescript

import (
	"encoding/json"

	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/errs"
	"github.com/Salvionied/apollo/v2/ledger/common"
)

// Kind discriminates the six native script variants.
type Kind uint64

const (
	KindRequirePubkey Kind = iota
	KindRequireAllOf
	KindRequireAnyOf
	KindRequireNofK
	KindInvalidBefore
	KindInvalidAfter
)

func (k Kind) String() string {
	switch k {
	case KindRequirePubkey:
		return "require_pubkey"
	case KindRequireAllOf:
		return "require_all_of"
	case KindRequireAnyOf:
		return "require_any_of"
	case KindRequireNofK:
		return "require_n_of_k"
	case KindInvalidBefore:
		return "invalid_before"
	case KindInvalidAfter:
		return "invalid_after"
	default:
		return "unknown"
	}
}

// Script is a recursive native script node. Only the fields relevant
// to Kind are meaningful; the rest are zero.
type Script struct {
	Kind     Kind
	KeyHash  common.Blake2b224 // KindRequirePubkey
	Scripts  []*Script         // KindRequireAllOf/AnyOf/NofK
	Required uint64            // KindRequireNofK
	Slot     uint64            // KindInvalidBefore/After

	cborCache []byte
}

func RequirePubkey(keyHash common.Blake2b224) *Script {
	return &Script{Kind: KindRequirePubkey, KeyHash: keyHash}
}

func RequireAllOf(scripts []*Script) *Script {
	return &Script{Kind: KindRequireAllOf, Scripts: scripts}
}

func RequireAnyOf(scripts []*Script) *Script {
	return &Script{Kind: KindRequireAnyOf, Scripts: scripts}
}

// RequireNofK requires n of scripts to pass; n must lie in [1, len(scripts)].
func RequireNofK(n uint64, scripts []*Script) (*Script, error) {
	if len(scripts) == 0 {
		return nil, errs.New(errs.KindInvalidArgument, "require_n_of_k: scripts list cannot be empty")
	}
	if n == 0 {
		return nil, errs.New(errs.KindInvalidArgument, "require_n_of_k: n must be at least 1")
	}
	if n > uint64(len(scripts)) {
		return nil, errs.Newf(errs.KindInvalidArgument, "require_n_of_k: n (%d) exceeds number of scripts (%d)", n, len(scripts))
	}
	return &Script{Kind: KindRequireNofK, Required: n, Scripts: scripts}, nil
}

func InvalidBefore(slot uint64) *Script {
	return &Script{Kind: KindInvalidBefore, Slot: slot}
}

func InvalidAfter(slot uint64) *Script {
	return &Script{Kind: KindInvalidAfter, Slot: slot}
}

// Language and RawScriptBytes let Script satisfy common.Script.
func (s *Script) Language() common.ScriptLanguage { return common.ScriptLanguageNative }

func (s *Script) RawScriptBytes() []byte {
	w := cbor.NewWriter()
	s.WriteToCBOR(w)
	return w.Bytes()
}

// Hash computes the script hash the way common.Script implementations
// do: Blake2b-224 over a leading language tag followed by the raw
// script bytes.
func (s *Script) Hash() common.Blake2b224 {
	raw := append([]byte{0}, s.RawScriptBytes()...)
	h, _ := common.HashBlake2b224(raw)
	return h
}

// Equal reports structural equality, recursing into sub-scripts.
func (s *Script) Equal(o *Script) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case KindRequirePubkey:
		return s.KeyHash == o.KeyHash
	case KindRequireAllOf, KindRequireAnyOf, KindRequireNofK:
		if s.Kind == KindRequireNofK && s.Required != o.Required {
			return false
		}
		if len(s.Scripts) != len(o.Scripts) {
			return false
		}
		for i := range s.Scripts {
			if !s.Scripts[i].Equal(o.Scripts[i]) {
				return false
			}
		}
		return true
	case KindInvalidBefore, KindInvalidAfter:
		return s.Slot == o.Slot
	default:
		return false
	}
}

// ClearCBORCache invalidates any cached wire bytes, forcing the next
// WriteToCBOR to re-derive the canonical encoding. Call after
// mutating any field in place.
func (s *Script) ClearCBORCache() { s.cborCache = nil }

// WriteToCBOR writes the `[type, payload...]` wire form, replaying the
// cached bytes verbatim when present (so a script decoded from a
// non-canonical source round-trips byte-exact).
func (s *Script) WriteToCBOR(w *cbor.Writer) {
	if s.cborCache != nil {
		w.WriteEncoded(s.cborCache)
		return
	}
	s.writeFresh(w)
}

func (s *Script) writeFresh(w *cbor.Writer) {
	switch s.Kind {
	case KindRequirePubkey:
		w.WriteStartArray(2)
		w.WriteUint(uint64(s.Kind))
		s.KeyHash.WriteToCBOR(w)
	case KindRequireAllOf, KindRequireAnyOf:
		w.WriteStartArray(2)
		w.WriteUint(uint64(s.Kind))
		w.WriteStartArray(uint64(len(s.Scripts)))
		for _, sub := range s.Scripts {
			sub.WriteToCBOR(w)
		}
	case KindRequireNofK:
		w.WriteStartArray(3)
		w.WriteUint(uint64(s.Kind))
		w.WriteUint(s.Required)
		w.WriteStartArray(uint64(len(s.Scripts)))
		for _, sub := range s.Scripts {
			sub.WriteToCBOR(w)
		}
	case KindInvalidBefore, KindInvalidAfter:
		w.WriteStartArray(2)
		w.WriteUint(uint64(s.Kind))
		w.WriteUint(s.Slot)
	}
}

// ReadFromCBOR reads a native script node from its `[type,
// payload...]` wire form, caching the exact source bytes for later
// byte-exact re-encoding.
func ReadFromCBOR(r *cbor.Reader) (*Script, error) {
	raw, err := r.ReadEncodedValue()
	if err != nil {
		return nil, err
	}
	inner := cbor.NewReader(raw)
	s, err := decode(inner)
	if err != nil {
		return nil, err
	}
	s.cborCache = raw
	return s, nil
}

func decode(r *cbor.Reader) (*Script, error) {
	n, err := r.ReadStartArray()
	if err != nil {
		return nil, err
	}
	kindVal, err := r.ReadUint()
	if err != nil {
		return nil, err
	}
	kind := Kind(kindVal)
	s := &Script{Kind: kind}
	switch kind {
	case KindRequirePubkey:
		if n != nil && *n != 2 {
			return nil, errs.Newf(errs.KindInvalidCBORArraySize, "require_pubkey: expected 2 elements, got %d", *n)
		}
		if err := s.KeyHash.ReadFromCBOR(r); err != nil {
			return nil, err
		}
	case KindRequireAllOf, KindRequireAnyOf:
		if n != nil && *n != 2 {
			return nil, errs.Newf(errs.KindInvalidCBORArraySize, "%s: expected 2 elements, got %d", kind, *n)
		}
		scripts, err := decodeScriptList(r)
		if err != nil {
			return nil, err
		}
		s.Scripts = scripts
	case KindRequireNofK:
		if n != nil && *n != 3 {
			return nil, errs.Newf(errs.KindInvalidCBORArraySize, "require_n_of_k: expected 3 elements, got %d", *n)
		}
		required, err := r.ReadUint()
		if err != nil {
			return nil, err
		}
		s.Required = required
		scripts, err := decodeScriptList(r)
		if err != nil {
			return nil, err
		}
		s.Scripts = scripts
	case KindInvalidBefore, KindInvalidAfter:
		if n != nil && *n != 2 {
			return nil, errs.Newf(errs.KindInvalidCBORArraySize, "%s: expected 2 elements, got %d", kind, *n)
		}
		slot, err := r.ReadUint()
		if err != nil {
			return nil, err
		}
		s.Slot = slot
	default:
		return nil, errs.Newf(errs.KindInvalidCBORValue, "native script: unknown type %d", kindVal)
	}
	return s, r.ReadEndArray()
}

func decodeScriptList(r *cbor.Reader) ([]*Script, error) {
	n, err := r.ReadStartArray()
	if err != nil {
		return nil, err
	}
	var out []*Script
	indefinite := n == nil
	count := uint64(0)
	for indefinite || count < *n {
		if indefinite {
			st, err := r.PeekState()
			if err != nil {
				return nil, err
			}
			if st == cbor.StateEndArray {
				break
			}
		}
		sub, err := ReadFromCBOR(r)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
		count++
	}
	return out, r.ReadEndArray()
}

// jsonScript mirrors the named-key JSON form: {"type": "sig", "keyHash":
// "..."} / {"type": "all"|"any", "scripts": [...]} / {"type":
// "atLeast", "required": N, "scripts": [...]} / {"type":
// "before"|"after", "slot": N}.
type jsonScript struct {
	Type     string       `json:"type"`
	KeyHash  string       `json:"keyHash,omitempty"`
	Scripts  []jsonScript `json:"scripts,omitempty"`
	Required uint64       `json:"required,omitempty"`
	Slot     uint64       `json:"slot,omitempty"`
}

func (s *Script) MarshalJSON() ([]byte, error) {
	js, err := s.toJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(js)
}

func (s *Script) toJSON() (jsonScript, error) {
	switch s.Kind {
	case KindRequirePubkey:
		return jsonScript{Type: "sig", KeyHash: s.KeyHash.String()}, nil
	case KindRequireAllOf, KindRequireAnyOf:
		subs, err := scriptsToJSON(s.Scripts)
		if err != nil {
			return jsonScript{}, err
		}
		typ := "all"
		if s.Kind == KindRequireAnyOf {
			typ = "any"
		}
		return jsonScript{Type: typ, Scripts: subs}, nil
	case KindRequireNofK:
		subs, err := scriptsToJSON(s.Scripts)
		if err != nil {
			return jsonScript{}, err
		}
		return jsonScript{Type: "atLeast", Required: s.Required, Scripts: subs}, nil
	case KindInvalidBefore:
		return jsonScript{Type: "before", Slot: s.Slot}, nil
	case KindInvalidAfter:
		return jsonScript{Type: "after", Slot: s.Slot}, nil
	default:
		return jsonScript{}, errs.Newf(errs.KindInvalidArgument, "native script: unknown kind %d", s.Kind)
	}
}

func scriptsToJSON(scripts []*Script) ([]jsonScript, error) {
	out := make([]jsonScript, 0, len(scripts))
	for _, sub := range scripts {
		js, err := sub.toJSON()
		if err != nil {
			return nil, err
		}
		out = append(out, js)
	}
	return out, nil
}

func (s *Script) UnmarshalJSON(data []byte) error {
	var js jsonScript
	if err := json.Unmarshal(data, &js); err != nil {
		return errs.Wrap(errs.KindInvalidJSON, err, "native script: malformed JSON")
	}
	parsed, err := fromJSON(js)
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}

func fromJSON(js jsonScript) (*Script, error) {
	switch js.Type {
	case "sig":
		var h common.Blake2b224
		if err := h.UnmarshalHex(js.KeyHash); err != nil {
			return nil, err
		}
		return RequirePubkey(h), nil
	case "all", "any":
		subs, err := scriptsFromJSON(js.Scripts)
		if err != nil {
			return nil, err
		}
		if js.Type == "all" {
			return RequireAllOf(subs), nil
		}
		return RequireAnyOf(subs), nil
	case "atLeast":
		subs, err := scriptsFromJSON(js.Scripts)
		if err != nil {
			return nil, err
		}
		return RequireNofK(js.Required, subs)
	case "before":
		return InvalidBefore(js.Slot), nil
	case "after":
		return InvalidAfter(js.Slot), nil
	default:
		return nil, errs.Newf(errs.KindInvalidJSON, "native script: unknown JSON type %q", js.Type)
	}
}

func scriptsFromJSON(scripts []jsonScript) ([]*Script, error) {
	out := make([]*Script, 0, len(scripts))
	for _, js := range scripts {
		sub, err := fromJSON(js)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}
