package common

import (
	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/errs"
)

// ScriptLanguage discriminates the script families that can appear in
// a witness set or a ScriptRef. NativeScript and the Plutus versions
// each hash differently, which is why the language tag travels with
// the raw bytes rather than being inferred.
type ScriptLanguage uint8

const (
	ScriptLanguageNative ScriptLanguage = iota
	ScriptLanguagePlutusV1
	ScriptLanguagePlutusV2
	ScriptLanguagePlutusV3
)

// Script is implemented by NativeScript and the Plutus*Script raw-bytes
// wrappers; it is the common currency of witness sets and
// ScriptRef so that those aggregates need not special-case every
// script family.
type Script interface {
	Language() ScriptLanguage
	RawScriptBytes() []byte
	Hash() Blake2b224
}

// plutusScript is the shared representation of a versioned Plutus
// script: its serialized bytes (the compiled Plutus Core program), not
// interpreted by this module (script execution is out of scope).
type plutusScript struct {
	lang ScriptLanguage
	raw  []byte
}

func (p plutusScript) Language() ScriptLanguage { return p.lang }
func (p plutusScript) RawScriptBytes() []byte   { return p.raw }

// Hash computes the script hash: Blake2b-224 over a single leading
// language-tag byte followed by the raw script bytes, per the Cardano
// ledger's script-hashing rule (distinct tags keep native, V1, V2, V3
// scripts from colliding even with identical bytes).
func (p plutusScript) Hash() Blake2b224 {
	tag := plutusHashTag(p.lang)
	h, _ := HashBlake2b224(append([]byte{tag}, p.raw...))
	return h
}

func plutusHashTag(lang ScriptLanguage) byte {
	switch lang {
	case ScriptLanguageNative:
		return 0
	case ScriptLanguagePlutusV1:
		return 1
	case ScriptLanguagePlutusV2:
		return 2
	case ScriptLanguagePlutusV3:
		return 3
	default:
		return 0
	}
}

type PlutusV1Script struct{ plutusScript }
type PlutusV2Script struct{ plutusScript }
type PlutusV3Script struct{ plutusScript }

func NewPlutusV1Script(raw []byte) PlutusV1Script {
	return PlutusV1Script{plutusScript{lang: ScriptLanguagePlutusV1, raw: raw}}
}
func NewPlutusV2Script(raw []byte) PlutusV2Script {
	return PlutusV2Script{plutusScript{lang: ScriptLanguagePlutusV2, raw: raw}}
}
func NewPlutusV3Script(raw []byte) PlutusV3Script {
	return PlutusV3Script{plutusScript{lang: ScriptLanguagePlutusV3, raw: raw}}
}

// ScriptRef bundles a script with the language tag needed to compute
// its hash correctly, for the post-Alonzo output's optional reference
// script field (`script_ref = #6.24(bytes .cbor script)`).
type ScriptRef struct {
	Script Script
}

func NewScriptRef(s Script) (*ScriptRef, error) {
	if s == nil {
		return nil, errs.New(errs.KindPointerIsNull, "script ref requires a non-nil script")
	}
	return &ScriptRef{Script: s}, nil
}

func (s ScriptRef) Hash() Blake2b224 { return s.Script.Hash() }

// rawScript is a language-tagged script held as opaque bytes, used to
// satisfy Script when decoding a ScriptRef without depending on
// ledger/nativescript (which itself imports common, so common cannot
// import it back). Callers that need the parsed native-script tree
// re-parse RawScriptBytes() with nativescript.ReadFromCBOR themselves.
type rawScript struct {
	lang ScriptLanguage
	raw  []byte
}

func (s rawScript) Language() ScriptLanguage { return s.lang }
func (s rawScript) RawScriptBytes() []byte   { return s.raw }
func (s rawScript) Hash() Blake2b224 {
	tag := plutusHashTag(s.lang)
	h, _ := HashBlake2b224(append([]byte{tag}, s.raw...))
	return h
}

// ReadScriptRefFromCBOR decodes the post-Alonzo output's optional
// reference-script field: `#6.24(bytes .cbor script)`.
func ReadScriptRefFromCBOR(r *cbor.Reader) (*ScriptRef, error) {
	if err := r.ValidateTag("script_ref", cbor.TagEncodedCBORItem); err != nil {
		return nil, err
	}
	raw, err := r.ReadByteString()
	if err != nil {
		return nil, err
	}
	inner := cbor.NewReader(raw)
	if err := inner.ValidateArrayOfNElements("script", 2); err != nil {
		return nil, err
	}
	langVal, err := inner.ReadUint()
	if err != nil {
		return nil, err
	}
	lang := ScriptLanguage(langVal)
	var payload []byte
	if lang == ScriptLanguageNative {
		payload, err = inner.ReadEncodedValue()
	} else {
		payload, err = inner.ReadByteString()
	}
	if err != nil {
		return nil, err
	}
	if err := inner.ValidateEndArray("script"); err != nil {
		return nil, err
	}
	return &ScriptRef{Script: rawScript{lang: lang, raw: payload}}, nil
}

// scriptWire mirrors `script = [0, native_script] / [1, plutus_v1] /
// [2, plutus_v2] / [3, plutus_v3]`, the tagged sum used inside
// ScriptRef and the witness-set's per-language script lists share.
func (s ScriptRef) WriteToCBOR(w *cbor.Writer) {
	inner := cbor.NewWriter()
	inner.WriteStartArray(2)
	inner.WriteUint(uint64(s.Script.Language()))
	inner.WriteEncoded(scriptPayload(s.Script))
	w.WriteTag(cbor.TagEncodedCBORItem)
	w.WriteBytestring(inner.Bytes())
}

// scriptPayload renders the `script` CDDL alternative's second element.
// For a native script that element IS the native_script array itself
// (already-encoded CBOR, written verbatim); for a Plutus script it is
// the opaque compiled-code bytes wrapped as a single byte string.
// RawScriptBytes on a *nativescript.Script already returns its
// [type, payload...] encoding, so the native case only needs to splice
// those bytes in rather than re-wrap them.
func scriptPayload(s Script) []byte {
	switch s.Language() {
	case ScriptLanguageNative:
		return s.RawScriptBytes()
	default:
		w := cbor.NewWriter()
		w.WriteBytestring(s.RawScriptBytes())
		return w.Bytes()
	}
}
