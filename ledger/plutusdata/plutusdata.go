// Package plutusdata implements the Plutus Data domain model: the
// tagged recursive sum (Constr/Map/List/Integer/Bytes), its
// constructor-alternative CBOR tag selection, and a CBOR cache for
// byte-exact round-trips of non-canonical source encodings (needed
// because re-serializing a datum with a different tag or field order
// changes its hash). The in-memory shapes are plutigo's data.PlutusData
// types; this package adds the wire codec plutigo's own API does not
// expose in the streaming-cursor form this module needs.
package plutusdata

import (
	"math/big"

	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/errs"
	"github.com/blinklabs-io/plutigo/data"
)

// Data wraps a plutigo data.PlutusData value together with the exact
// bytes it was decoded from, when available.
type Data struct {
	Value     data.PlutusData
	cborCache []byte
}

func Wrap(v data.PlutusData) *Data { return &Data{Value: v} }

func NewConstr(tag uint, fields ...data.PlutusData) *Data {
	return Wrap(data.NewConstr(tag, fields...))
}

func NewMap(pairs [][2]data.PlutusData) *Data { return Wrap(data.NewMap(pairs)) }

func NewList(items ...data.PlutusData) *Data { return Wrap(data.NewList(items...)) }

func NewInteger(v *big.Int) *Data { return Wrap(data.NewInteger(v)) }

func NewByteString(b []byte) *Data { return Wrap(data.NewByteString(b)) }

// ClearCBORCache invalidates cached wire bytes, forcing the next
// WriteToCBOR to re-derive the canonical encoding from Value.
func (d *Data) ClearCBORCache() { d.cborCache = nil }

// Equal reports structural equality of the wrapped PlutusData values.
func (d *Data) Equal(o *Data) bool {
	if d == nil || o == nil {
		return d == o
	}
	return equalValue(d.Value, o.Value)
}

func equalValue(a, b data.PlutusData) bool {
	switch av := a.(type) {
	case *data.Constr:
		bv, ok := b.(*data.Constr)
		if !ok || av.Tag != bv.Tag || len(av.Fields) != len(bv.Fields) {
			return false
		}
		for i := range av.Fields {
			if !equalValue(av.Fields[i], bv.Fields[i]) {
				return false
			}
		}
		return true
	case *data.Map:
		bv, ok := b.(*data.Map)
		if !ok || len(av.Pairs) != len(bv.Pairs) {
			return false
		}
		for i := range av.Pairs {
			if !equalValue(av.Pairs[i][0], bv.Pairs[i][0]) || !equalValue(av.Pairs[i][1], bv.Pairs[i][1]) {
				return false
			}
		}
		return true
	case *data.List:
		bv, ok := b.(*data.List)
		if !ok || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !equalValue(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case *data.Integer:
		bv, ok := b.(*data.Integer)
		return ok && av.Inner.Cmp(bv.Inner) == 0
	case *data.ByteString:
		bv, ok := b.(*data.ByteString)
		return ok && string(av.Inner) == string(bv.Inner)
	default:
		return false
	}
}

// WriteToCBOR writes the Plutus Data wire form, replaying cached
// source bytes verbatim when present.
func (d *Data) WriteToCBOR(w *cbor.Writer) {
	if d.cborCache != nil {
		w.WriteEncoded(d.cborCache)
		return
	}
	writeValue(w, d.Value)
}

func writeValue(w *cbor.Writer, v data.PlutusData) {
	switch tv := v.(type) {
	case *data.Constr:
		writeConstr(w, tv)
	case *data.Map:
		w.WriteStartMap(uint64(len(tv.Pairs)))
		for _, pair := range tv.Pairs {
			writeValue(w, pair[0])
			writeValue(w, pair[1])
		}
	case *data.List:
		w.WriteStartArray(uint64(len(tv.Items)))
		for _, item := range tv.Items {
			writeValue(w, item)
		}
	case *data.Integer:
		w.WriteBigint(tv.Inner)
	case *data.ByteString:
		writeBoundedBytestring(w, tv.Inner)
	}
}

// writeBoundedBytestring splits byte strings over 64 bytes into an
// indefinite-length sequence of 64-byte chunks, per the Plutus Data
// CBOR convention that keeps individual chunks within the protocol's
// bounded-bytes limit.
const plutusDataChunkSize = 64

func writeBoundedBytestring(w *cbor.Writer, b []byte) {
	if len(b) <= plutusDataChunkSize {
		w.WriteBytestring(b)
		return
	}
	w.WriteStartByteStringIndefinite()
	for i := 0; i < len(b); i += plutusDataChunkSize {
		end := i + plutusDataChunkSize
		if end > len(b) {
			end = len(b)
		}
		w.WriteBytestring(b[i:end])
	}
	w.WriteBreak()
}

func writeConstr(w *cbor.Writer, c *data.Constr) {
	tag, indirect := cbor.ConstrTagForAlt(uint64(c.Tag))
	if !indirect {
		w.WriteTag(tag)
		w.WriteStartArray(uint64(len(c.Fields)))
		for _, f := range c.Fields {
			writeValue(w, f)
		}
		return
	}
	w.WriteTag(tag)
	w.WriteStartArray(2)
	w.WriteUint(uint64(c.Tag))
	w.WriteStartArray(uint64(len(c.Fields)))
	for _, f := range c.Fields {
		writeValue(w, f)
	}
}

// ReadFromCBOR reads a Plutus Data value, caching the exact source
// bytes for byte-exact re-encoding.
func ReadFromCBOR(r *cbor.Reader) (*Data, error) {
	raw, err := r.ReadEncodedValue()
	if err != nil {
		return nil, err
	}
	v, err := readValue(cbor.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return &Data{Value: v, cborCache: raw}, nil
}

func readValue(r *cbor.Reader) (data.PlutusData, error) {
	st, err := r.PeekState()
	if err != nil {
		return nil, err
	}
	switch st {
	case cbor.StateUnsignedInt, cbor.StateNegativeInt:
		n, err := r.ReadBigint()
		if err != nil {
			return nil, err
		}
		return data.NewInteger(n), nil
	case cbor.StateByteString, cbor.StateStartIndefiniteByteString:
		b, err := r.ReadByteString()
		if err != nil {
			return nil, err
		}
		return data.NewByteString(b), nil
	case cbor.StateStartArray:
		n, err := r.ReadStartArray()
		if err != nil {
			return nil, err
		}
		items, err := readItems(r, n)
		if err != nil {
			return nil, err
		}
		return data.NewList(items...), nil
	case cbor.StateStartMap:
		n, err := r.ReadStartMap()
		if err != nil {
			return nil, err
		}
		pairs, err := readPairs(r, n)
		if err != nil {
			return nil, err
		}
		return data.NewMap(pairs), nil
	case cbor.StateTag:
		tag, err := r.PeekTag()
		if err != nil {
			return nil, err
		}
		if tag == cbor.TagBignumUnsigned || tag == cbor.TagBignumNegative {
			n, err := r.ReadBigint()
			if err != nil {
				return nil, err
			}
			return data.NewInteger(n), nil
		}
		return readTaggedConstr(r)
	default:
		return nil, errs.Newf(errs.KindUnexpectedCBORType, "plutus data: unexpected state %s", st)
	}
}

func readItems(r *cbor.Reader, n *uint64) ([]data.PlutusData, error) {
	var out []data.PlutusData
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
		v, err := readValue(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		count++
	}
	return out, r.ReadEndArray()
}

func readPairs(r *cbor.Reader, n *uint64) ([][2]data.PlutusData, error) {
	var out [][2]data.PlutusData
	indefinite := n == nil
	count := uint64(0)
	for indefinite || count < *n {
		if indefinite {
			st, err := r.PeekState()
			if err != nil {
				return nil, err
			}
			if st == cbor.StateEndMap {
				break
			}
		}
		k, err := readValue(r)
		if err != nil {
			return nil, err
		}
		v, err := readValue(r)
		if err != nil {
			return nil, err
		}
		out = append(out, [2]data.PlutusData{k, v})
		count++
	}
	return out, r.ReadEndMap()
}

func readTaggedConstr(r *cbor.Reader) (data.PlutusData, error) {
	tag, err := r.ReadTag()
	if err != nil {
		return nil, err
	}
	if tag == cbor.TagConstrAltIndirect {
		n, err := r.ReadStartArray()
		if err != nil {
			return nil, err
		}
		if n != nil && *n != 2 {
			return nil, errs.Newf(errs.KindInvalidCBORArraySize, "plutus constr (indirect): expected 2 elements, got %d", *n)
		}
		alt, err := r.ReadUint()
		if err != nil {
			return nil, err
		}
		fn, err := r.ReadStartArray()
		if err != nil {
			return nil, err
		}
		fields, err := readItems(r, fn)
		if err != nil {
			return nil, err
		}
		if err := r.ReadEndArray(); err != nil {
			return nil, err
		}
		return data.NewConstr(uint(alt), fields...), nil
	}
	alt, ok := cbor.AltForConstrTag(tag)
	if !ok {
		return nil, errs.Newf(errs.KindInvalidCBORValue, "plutus data: unrecognized tag %d", tag)
	}
	n, err := r.ReadStartArray()
	if err != nil {
		return nil, err
	}
	fields, err := readItems(r, n)
	if err != nil {
		return nil, err
	}
	return data.NewConstr(uint(alt), fields...), nil
}
