// Package tx implements the top-level transaction envelope: body,
// witness set, validity flag and auxiliary data (spec section 4).
package tx

import (
	"sort"

	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/ledger/metadatum"
	"github.com/Salvionied/apollo/v2/ledger/nativescript"
)

// tagAuxiliaryData marks the post-Alonzo map-shaped auxiliary data
// encoding; it is not a general-purpose CBOR tag so it is kept local
// to this package rather than in the shared cbor tag table.
const tagAuxiliaryData = 259

const (
	auxFieldMetadata     = 0
	auxFieldNativeScripts = 1
	auxFieldPlutusV1     = 2
	auxFieldPlutusV2     = 3
	auxFieldPlutusV3     = 4
)

// MetadatumLabel pairs a transaction-metadata label with its value;
// labels are arbitrary uints, not necessarily contiguous or sorted on
// read, but are written back out in ascending order.
type MetadatumLabel struct {
	Label uint64
	Value *metadatum.Metadatum
}

// AuxiliaryData carries transaction metadata together with the
// scripts referenced by it but not already pinned to an input or
// witness. It accepts the legacy bare-metadata-map shape and the
// Shelley-Mary `[metadata, native_scripts]` array shape on read, but
// always writes the post-Alonzo tag-259 map shape.
type AuxiliaryData struct {
	Metadata      []MetadatumLabel
	NativeScripts []*nativescript.Script
	PlutusV1      [][]byte
	PlutusV2      [][]byte
	PlutusV3      [][]byte

	cborCache []byte
}

// ClearCBORCache invalidates the cached source bytes, forcing
// re-derivation of the canonical encoding on the next WriteToCBOR.
func (a *AuxiliaryData) ClearCBORCache() { a.cborCache = nil }

func (a *AuxiliaryData) fieldCount() uint64 {
	var n uint64
	if len(a.Metadata) > 0 {
		n++
	}
	if len(a.NativeScripts) > 0 {
		n++
	}
	if len(a.PlutusV1) > 0 {
		n++
	}
	if len(a.PlutusV2) > 0 {
		n++
	}
	if len(a.PlutusV3) > 0 {
		n++
	}
	return n
}

func (a *AuxiliaryData) WriteToCBOR(w *cbor.Writer) error {
	if a.cborCache != nil {
		w.WriteEncoded(a.cborCache)
		return nil
	}
	inner := cbor.NewWriter()
	inner.WriteTag(tagAuxiliaryData)
	inner.WriteStartMap(a.fieldCount())
	if len(a.Metadata) > 0 {
		inner.WriteUint(auxFieldMetadata)
		inner.WriteStartMap(uint64(len(a.Metadata)))
		labels := append([]MetadatumLabel(nil), a.Metadata...)
		sort.Slice(labels, func(i, j int) bool { return labels[i].Label < labels[j].Label })
		for _, m := range labels {
			inner.WriteUint(m.Label)
			if err := m.Value.WriteToCBOR(inner); err != nil {
				return err
			}
		}
	}
	if len(a.NativeScripts) > 0 {
		inner.WriteUint(auxFieldNativeScripts)
		inner.WriteStartArray(uint64(len(a.NativeScripts)))
		for _, s := range a.NativeScripts {
			s.WriteToCBOR(inner)
		}
	}
	if len(a.PlutusV1) > 0 {
		inner.WriteUint(auxFieldPlutusV1)
		inner.WriteStartArray(uint64(len(a.PlutusV1)))
		for _, s := range a.PlutusV1 {
			inner.WriteBytestring(s)
		}
	}
	if len(a.PlutusV2) > 0 {
		inner.WriteUint(auxFieldPlutusV2)
		inner.WriteStartArray(uint64(len(a.PlutusV2)))
		for _, s := range a.PlutusV2 {
			inner.WriteBytestring(s)
		}
	}
	if len(a.PlutusV3) > 0 {
		inner.WriteUint(auxFieldPlutusV3)
		inner.WriteStartArray(uint64(len(a.PlutusV3)))
		for _, s := range a.PlutusV3 {
			inner.WriteBytestring(s)
		}
	}
	w.WriteEncoded(inner.Bytes())
	return nil
}

// ReadAuxiliaryDataFromCBOR decodes auxiliary data in any of its three
// historical shapes, capturing the raw bytes for byte-exact re-encode.
func ReadAuxiliaryDataFromCBOR(r *cbor.Reader) (*AuxiliaryData, error) {
	raw, err := r.ReadEncodedValue()
	if err != nil {
		return nil, err
	}
	a, err := decodeAuxiliaryData(cbor.NewReader(raw))
	if err != nil {
		return nil, err
	}
	a.cborCache = raw
	return a, nil
}

func decodeAuxiliaryData(r *cbor.Reader) (*AuxiliaryData, error) {
	st, err := r.PeekState()
	if err != nil {
		return nil, err
	}
	a := &AuxiliaryData{}
	switch st {
	case cbor.StateTag:
		if err := r.ValidateTag("auxiliary_data", tagAuxiliaryData); err != nil {
			return nil, err
		}
		if err := decodePostAlonzoAuxData(r, a); err != nil {
			return nil, err
		}
	case cbor.StateStartArray:
		if err := decodeShelleyMaryAuxData(r, a); err != nil {
			return nil, err
		}
	default:
		meta, err := decodeMetadataMap(r)
		if err != nil {
			return nil, err
		}
		a.Metadata = meta
	}
	return a, nil
}

func decodePostAlonzoAuxData(r *cbor.Reader, a *AuxiliaryData) error {
	n, err := r.ReadStartMap()
	if err != nil {
		return err
	}
	seen := 0
	for {
		if n != nil && uint64(seen) >= *n {
			break
		}
		if n == nil {
			st, err := r.PeekState()
			if err != nil {
				return err
			}
			if st == cbor.StateEndMap {
				break
			}
		}
		key, err := r.ReadUint()
		if err != nil {
			return err
		}
		switch key {
		case auxFieldMetadata:
			meta, err := decodeMetadataMap(r)
			if err != nil {
				return err
			}
			a.Metadata = meta
		case auxFieldNativeScripts:
			scripts, err := decodeScriptArray(r)
			if err != nil {
				return err
			}
			a.NativeScripts = scripts
		case auxFieldPlutusV1:
			blobs, err := decodeByteArray(r)
			if err != nil {
				return err
			}
			a.PlutusV1 = blobs
		case auxFieldPlutusV2:
			blobs, err := decodeByteArray(r)
			if err != nil {
				return err
			}
			a.PlutusV2 = blobs
		case auxFieldPlutusV3:
			blobs, err := decodeByteArray(r)
			if err != nil {
				return err
			}
			a.PlutusV3 = blobs
		default:
			if err := r.SkipValue(); err != nil {
				return err
			}
		}
		seen++
	}
	if n == nil {
		return r.ReadEndMap()
	}
	return nil
}

func decodeShelleyMaryAuxData(r *cbor.Reader, a *AuxiliaryData) error {
	if err := r.ValidateArrayOfNElements("auxiliary_data", 2); err != nil {
		return err
	}
	meta, err := decodeMetadataMap(r)
	if err != nil {
		return err
	}
	a.Metadata = meta
	scripts, err := decodeScriptArray(r)
	if err != nil {
		return err
	}
	a.NativeScripts = scripts
	return r.ValidateEndArray("auxiliary_data")
}

func decodeMetadataMap(r *cbor.Reader) ([]MetadatumLabel, error) {
	n, err := r.ReadStartMap()
	if err != nil {
		return nil, err
	}
	var out []MetadatumLabel
	for {
		if n != nil && uint64(len(out)) >= *n {
			break
		}
		if n == nil {
			st, err := r.PeekState()
			if err != nil {
				return nil, err
			}
			if st == cbor.StateEndMap {
				break
			}
		}
		label, err := r.ReadUint()
		if err != nil {
			return nil, err
		}
		val, err := metadatum.ReadFromCBOR(r)
		if err != nil {
			return nil, err
		}
		out = append(out, MetadatumLabel{Label: label, Value: val})
	}
	return out, r.ReadEndMap()
}

func decodeScriptArray(r *cbor.Reader) ([]*nativescript.Script, error) {
	n, err := r.ReadStartArray()
	if err != nil {
		return nil, err
	}
	var out []*nativescript.Script
	for {
		if n != nil && uint64(len(out)) >= *n {
			break
		}
		if n == nil {
			st, err := r.PeekState()
			if err != nil {
				return nil, err
			}
			if st == cbor.StateEndArray {
				break
			}
		}
		s, err := nativescript.ReadFromCBOR(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, r.ReadEndArray()
}

func decodeByteArray(r *cbor.Reader) ([][]byte, error) {
	n, err := r.ReadStartArray()
	if err != nil {
		return nil, err
	}
	var out [][]byte
	for {
		if n != nil && uint64(len(out)) >= *n {
			break
		}
		if n == nil {
			st, err := r.PeekState()
			if err != nil {
				return nil, err
			}
			if st == cbor.StateEndArray {
				break
			}
		}
		b, err := r.ReadByteString()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, r.ReadEndArray()
}
