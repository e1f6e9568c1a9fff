package metadatum

import (
	"bytes"
	"encoding/json"
	"math/big"

	"github.com/Salvionied/apollo/v2/errs"
)

// maxJSONDepth bounds the JSON<->metadatum conversion's container
// nesting, rejecting inputs deeper than 256 nested containers rather
// than recursing unbounded.
const maxJSONDepth = 256

// FromJSON parses a JSON document into a Metadatum tree: objects
// become maps (text keys), arrays become lists, numbers become
// integers, strings become text. There is no JSON representation for
// the bytes variant.
func FromJSON(data []byte) (*Metadatum, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errs.Wrap(errs.KindInvalidJSON, err, "metadatum: invalid json")
	}
	return fromJSONValue(v, 0)
}

func fromJSONValue(v any, depth int) (*Metadatum, error) {
	if depth > maxJSONDepth {
		return nil, errs.Newf(errs.KindDecodingError, "metadatum: json nesting exceeds %d containers", maxJSONDepth)
	}
	switch t := v.(type) {
	case map[string]any:
		entries := make([]MapEntry, 0, len(t))
		for k, raw := range t {
			val, err := fromJSONValue(raw, depth+1)
			if err != nil {
				return nil, err
			}
			entries = append(entries, MapEntry{Key: NewText(k), Value: val})
		}
		return NewMap(entries), nil
	case []any:
		items := make([]*Metadatum, 0, len(t))
		for _, raw := range t {
			item, err := fromJSONValue(raw, depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return NewList(items), nil
	case json.Number:
		i, ok := new(big.Int).SetString(t.String(), 10)
		if !ok {
			return nil, errs.Newf(errs.KindLossOfPrecision, "metadatum: json number %q is not an integer", t.String())
		}
		return NewInt(i), nil
	case string:
		return NewText(t), nil
	case bool, nil:
		return nil, errs.New(errs.KindInvalidJSON, "metadatum: booleans and null have no metadatum representation")
	default:
		return nil, errs.Newf(errs.KindInvalidJSON, "metadatum: unsupported json value %T", v)
	}
}

// ToJSON renders a Metadatum tree as JSON. A bytes metadatum anywhere
// in the tree fails the whole conversion, since JSON has no native
// byte-string type and this module does not silently hex-encode one in.
func ToJSON(m *Metadatum) ([]byte, error) {
	v, err := toJSONValue(m, 0)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func toJSONValue(m *Metadatum, depth int) (any, error) {
	if depth > maxJSONDepth {
		return nil, errs.Newf(errs.KindDecodingError, "metadatum: nesting exceeds %d containers", maxJSONDepth)
	}
	switch m.Kind {
	case KindMap:
		out := make(map[string]any, len(m.MapEntries))
		for _, e := range m.MapEntries {
			if e.Key.Kind != KindText {
				return nil, errs.New(errs.KindInvalidMetadatumConversion, "metadatum: non-text map key cannot be converted to json")
			}
			val, err := toJSONValue(e.Value, depth+1)
			if err != nil {
				return nil, err
			}
			out[e.Key.Text] = val
		}
		return out, nil
	case KindList:
		out := make([]any, 0, len(m.ListItems))
		for _, it := range m.ListItems {
			val, err := toJSONValue(it, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	case KindInt:
		return json.Number(m.Int.String()), nil
	case KindText:
		return m.Text, nil
	case KindBytes:
		return nil, errs.New(errs.KindInvalidMetadatumConversion, "metadatum: bytes cannot be converted to json")
	default:
		return nil, errs.New(errs.KindInvalidMetadatumConversion, "metadatum: unknown kind")
	}
}
