package witness

import (
	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/ledger/common"
	"github.com/Salvionied/apollo/v2/ledger/nativescript"
	"github.com/Salvionied/apollo/v2/ledger/plutusdata"
)

// Witness-set integer field keys (spec section 4.5).
const (
	fieldVKeyWitnesses = 0
	fieldNativeScripts = 1
	fieldBootstrap     = 2
	fieldPlutusV1      = 3
	fieldPlutusData    = 4
	fieldRedeemers     = 5
	fieldPlutusV2      = 6
	fieldPlutusV3      = 7
)

// setField bundles a tag-258-trackable field's contents with the flag
// remembering whether the source used the set tag, so write restores
// it exactly.
type setField[T any] struct {
	items []T
	tagged bool
}

func (s setField[T]) present() bool { return len(s.items) > 0 }

// newSetField builds a setField value; tagged selects whether the
// field round-trips wrapped in the tag-258 finite-set form.
func newSetField[T any](items []T, tagged bool) setField[T] {
	return setField[T]{items: items, tagged: tagged}
}

// WitnessSet bundles every witness sub-field keyed by its CBOR map
// integer key. Each list-valued field independently remembers whether
// its source encoding used the tag-258 finite-set wrapper.
type WitnessSet struct {
	VKeyWitnesses     setField[VKeyWitness]
	NativeScripts     setField[*nativescript.Script]
	BootstrapWitnesses setField[BootstrapWitness]
	PlutusV1Scripts   setField[common.PlutusV1Script]
	PlutusV2Scripts   setField[common.PlutusV2Script]
	PlutusV3Scripts   setField[common.PlutusV3Script]
	PlutusDataSet     setField[*plutusdata.Data]
	Redeemers         []Redeemer

	cborCache []byte
}

// ClearCBORCache invalidates the cached source bytes, forcing
// re-derivation of the canonical map encoding on the next WriteToCBOR.
func (ws *WitnessSet) ClearCBORCache() { ws.cborCache = nil }

func (ws *WitnessSet) WriteToCBOR(w *cbor.Writer) {
	if ws.cborCache != nil {
		w.WriteEncoded(ws.cborCache)
		return
	}
	fields := ws.presentFieldKeys()
	w.WriteStartMap(uint64(len(fields)))
	for _, key := range fields {
		w.WriteUint(uint64(key))
		switch key {
		case fieldVKeyWitnesses:
			writeTaggedSet(w, ws.VKeyWitnesses.tagged, uint64(len(ws.VKeyWitnesses.items)), func() {
				for _, v := range ws.VKeyWitnesses.items {
					v.WriteToCBOR(w)
				}
			})
		case fieldNativeScripts:
			writeTaggedSet(w, ws.NativeScripts.tagged, uint64(len(ws.NativeScripts.items)), func() {
				for _, s := range ws.NativeScripts.items {
					s.WriteToCBOR(w)
				}
			})
		case fieldBootstrap:
			writeTaggedSet(w, ws.BootstrapWitnesses.tagged, uint64(len(ws.BootstrapWitnesses.items)), func() {
				for _, b := range ws.BootstrapWitnesses.items {
					b.WriteToCBOR(w)
				}
			})
		case fieldPlutusV1:
			writeTaggedSet(w, ws.PlutusV1Scripts.tagged, uint64(len(ws.PlutusV1Scripts.items)), func() {
				for _, s := range ws.PlutusV1Scripts.items {
					w.WriteBytestring(s.RawScriptBytes())
				}
			})
		case fieldPlutusData:
			writeTaggedSet(w, ws.PlutusDataSet.tagged, uint64(len(ws.PlutusDataSet.items)), func() {
				for _, d := range ws.PlutusDataSet.items {
					d.WriteToCBOR(w)
				}
			})
		case fieldRedeemers:
			writeRedeemers(w, ws.Redeemers)
		case fieldPlutusV2:
			writeTaggedSet(w, ws.PlutusV2Scripts.tagged, uint64(len(ws.PlutusV2Scripts.items)), func() {
				for _, s := range ws.PlutusV2Scripts.items {
					w.WriteBytestring(s.RawScriptBytes())
				}
			})
		case fieldPlutusV3:
			writeTaggedSet(w, ws.PlutusV3Scripts.tagged, uint64(len(ws.PlutusV3Scripts.items)), func() {
				for _, s := range ws.PlutusV3Scripts.items {
					w.WriteBytestring(s.RawScriptBytes())
				}
			})
		}
	}
}

func (ws *WitnessSet) presentFieldKeys() []int {
	var out []int
	if ws.VKeyWitnesses.present() {
		out = append(out, fieldVKeyWitnesses)
	}
	if ws.NativeScripts.present() {
		out = append(out, fieldNativeScripts)
	}
	if ws.BootstrapWitnesses.present() {
		out = append(out, fieldBootstrap)
	}
	if ws.PlutusV1Scripts.present() {
		out = append(out, fieldPlutusV1)
	}
	if ws.PlutusDataSet.present() {
		out = append(out, fieldPlutusData)
	}
	if len(ws.Redeemers) > 0 {
		out = append(out, fieldRedeemers)
	}
	if ws.PlutusV2Scripts.present() {
		out = append(out, fieldPlutusV2)
	}
	if ws.PlutusV3Scripts.present() {
		out = append(out, fieldPlutusV3)
	}
	return out
}

// writeRedeemers writes the pre-Conway array-of-records shape; the map
// keyed by RedeemerKey introduced in Conway is equivalent for this
// module's purposes, and ReadWitnessSetFromCBOR accepts either shape
// on decode, so only one canonical shape needs a writer.
func writeRedeemers(w *cbor.Writer, redeemers []Redeemer) {
	w.WriteStartArray(uint64(len(redeemers)))
	for _, r := range redeemers {
		r.WriteToCBOR(w)
	}
}

// NewVKeyWitnessSet builds the witness set's vkey-witnesses field.
func NewVKeyWitnessSet(items []VKeyWitness, tagged bool) setField[VKeyWitness] {
	return newSetField(items, tagged)
}

// VKeyWitnessItems returns the witness set's vkey witnesses.
func (ws *WitnessSet) VKeyWitnessItems() []VKeyWitness { return ws.VKeyWitnesses.items }

// NewNativeScriptSet builds the witness set's native-scripts field.
func NewNativeScriptSet(items []*nativescript.Script, tagged bool) setField[*nativescript.Script] {
	return newSetField(items, tagged)
}

// NewBootstrapWitnessSet builds the witness set's bootstrap-witnesses field.
func NewBootstrapWitnessSet(items []BootstrapWitness, tagged bool) setField[BootstrapWitness] {
	return newSetField(items, tagged)
}

// NewPlutusV1ScriptSet builds the witness set's PlutusV1-scripts field.
func NewPlutusV1ScriptSet(items []common.PlutusV1Script, tagged bool) setField[common.PlutusV1Script] {
	return newSetField(items, tagged)
}

// NewPlutusV2ScriptSet builds the witness set's PlutusV2-scripts field.
func NewPlutusV2ScriptSet(items []common.PlutusV2Script, tagged bool) setField[common.PlutusV2Script] {
	return newSetField(items, tagged)
}

// NewPlutusV3ScriptSet builds the witness set's PlutusV3-scripts field.
func NewPlutusV3ScriptSet(items []common.PlutusV3Script, tagged bool) setField[common.PlutusV3Script] {
	return newSetField(items, tagged)
}

// NewPlutusDataSet builds the witness set's Plutus-data field.
func NewPlutusDataSet(items []*plutusdata.Data, tagged bool) setField[*plutusdata.Data] {
	return newSetField(items, tagged)
}

// PlutusDataItems returns the witness set's Plutus data items.
func (ws *WitnessSet) PlutusDataItems() []*plutusdata.Data { return ws.PlutusDataSet.items }

// ReadWitnessSetFromCBOR reads a witness set, accepting either the
// pre-Conway array-of-redeemer-records or the Conway map-of-redeemers
// shape for field 5.
func ReadWitnessSetFromCBOR(r *cbor.Reader) (*WitnessSet, error) {
	raw, err := r.ReadEncodedValue()
	if err != nil {
		return nil, err
	}
	ws, err := decodeWitnessSet(cbor.NewReader(raw))
	if err != nil {
		return nil, err
	}
	ws.cborCache = raw
	return ws, nil
}

func decodeWitnessSet(r *cbor.Reader) (*WitnessSet, error) {
	ws := &WitnessSet{}
	n, err := r.ReadStartMap()
	if err != nil {
		return nil, err
	}
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
		key, err := r.ReadUint()
		if err != nil {
			return nil, err
		}
		if err := decodeWitnessField(r, ws, int(key)); err != nil {
			return nil, err
		}
		count++
	}
	return ws, r.ReadEndMap()
}

func decodeWitnessField(r *cbor.Reader, ws *WitnessSet, key int) error {
	switch key {
	case fieldVKeyWitnesses:
		tagged, n, err := readTaggedSet(r)
		if err != nil {
			return err
		}
		items, err := readList(r, n, func() (VKeyWitness, error) {
			var v VKeyWitness
			err := v.ReadFromCBOR(r)
			return v, err
		})
		if err != nil {
			return err
		}
		ws.VKeyWitnesses = setField[VKeyWitness]{items: items, tagged: tagged}
	case fieldNativeScripts:
		tagged, n, err := readTaggedSet(r)
		if err != nil {
			return err
		}
		items, err := readList(r, n, func() (*nativescript.Script, error) {
			return nativescript.ReadFromCBOR(r)
		})
		if err != nil {
			return err
		}
		ws.NativeScripts = setField[*nativescript.Script]{items: items, tagged: tagged}
	case fieldBootstrap:
		tagged, n, err := readTaggedSet(r)
		if err != nil {
			return err
		}
		items, err := readList(r, n, func() (BootstrapWitness, error) {
			var b BootstrapWitness
			err := b.ReadFromCBOR(r)
			return b, err
		})
		if err != nil {
			return err
		}
		ws.BootstrapWitnesses = setField[BootstrapWitness]{items: items, tagged: tagged}
	case fieldPlutusV1:
		tagged, n, err := readTaggedSet(r)
		if err != nil {
			return err
		}
		items, err := readList(r, n, func() (common.PlutusV1Script, error) {
			raw, err := r.ReadByteString()
			return common.NewPlutusV1Script(raw), err
		})
		if err != nil {
			return err
		}
		ws.PlutusV1Scripts = setField[common.PlutusV1Script]{items: items, tagged: tagged}
	case fieldPlutusData:
		tagged, n, err := readTaggedSet(r)
		if err != nil {
			return err
		}
		items, err := readList(r, n, func() (*plutusdata.Data, error) {
			return plutusdata.ReadFromCBOR(r)
		})
		if err != nil {
			return err
		}
		ws.PlutusDataSet = setField[*plutusdata.Data]{items: items, tagged: tagged}
	case fieldRedeemers:
		redeemers, err := readRedeemers(r)
		if err != nil {
			return err
		}
		ws.Redeemers = redeemers
	case fieldPlutusV2:
		tagged, n, err := readTaggedSet(r)
		if err != nil {
			return err
		}
		items, err := readList(r, n, func() (common.PlutusV2Script, error) {
			raw, err := r.ReadByteString()
			return common.NewPlutusV2Script(raw), err
		})
		if err != nil {
			return err
		}
		ws.PlutusV2Scripts = setField[common.PlutusV2Script]{items: items, tagged: tagged}
	case fieldPlutusV3:
		tagged, n, err := readTaggedSet(r)
		if err != nil {
			return err
		}
		items, err := readList(r, n, func() (common.PlutusV3Script, error) {
			raw, err := r.ReadByteString()
			return common.NewPlutusV3Script(raw), err
		})
		if err != nil {
			return err
		}
		ws.PlutusV3Scripts = setField[common.PlutusV3Script]{items: items, tagged: tagged}
	default:
		return r.SkipValue()
	}
	return nil
}

func readList[T any](r *cbor.Reader, n *uint64, readOne func() (T, error)) ([]T, error) {
	var out []T
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
		v, err := readOne()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		count++
	}
	return out, r.ReadEndArray()
}

// readRedeemers accepts both the pre-Conway array-of-records shape and
// the Conway map-of-(key => (data, ex_units)) shape, normalizing both
// into a flat []Redeemer.
func readRedeemers(r *cbor.Reader) ([]Redeemer, error) {
	st, err := r.PeekState()
	if err != nil {
		return nil, err
	}
	if st == cbor.StateStartMap {
		n, err := r.ReadStartMap()
		if err != nil {
			return nil, err
		}
		var out []Redeemer
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
			if err := r.ValidateArrayOfNElements("redeemer_key", 2); err != nil {
				return nil, err
			}
			tag, err := r.ReadUint()
			if err != nil {
				return nil, err
			}
			index, err := r.ReadUint()
			if err != nil {
				return nil, err
			}
			if err := r.ValidateEndArray("redeemer_key"); err != nil {
				return nil, err
			}
			if err := r.ValidateArrayOfNElements("redeemer_value", 2); err != nil {
				return nil, err
			}
			data, err := plutusdata.ReadFromCBOR(r)
			if err != nil {
				return nil, err
			}
			var exUnits ExUnits
			if err := exUnits.ReadFromCBOR(r); err != nil {
				return nil, err
			}
			if err := r.ValidateEndArray("redeemer_value"); err != nil {
				return nil, err
			}
			out = append(out, Redeemer{Tag: RedeemerTag(tag), Index: index, Data: data, ExUnits: exUnits})
			count++
		}
		return out, r.ReadEndMap()
	}
	n, err := r.ReadStartArray()
	if err != nil {
		return nil, err
	}
	return readList(r, n, func() (Redeemer, error) {
		var red Redeemer
		err := red.ReadFromCBOR(r)
		return red, err
	})
}
