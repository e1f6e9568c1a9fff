// Package cbor implements a single-pass, streaming CBOR (RFC 8949)
// reader and writer over a borrowed byte slice, in the Cardano-specific
// flavor used throughout this module: shortest-form canonical writing,
// tag-aware decoding of bignums (tags 2/3), Plutus constructor
// alternatives (tags 102/121-127/1280-1400) and finite sets (tag 258),
// and byte-exact capture of raw encoded items for CBOR caches.
//
// The reader never materializes a tree. Callers drive a cursor with
// PeekState to decide what is next, then call the matching typed
// Read/Start method. This mirrors how the on-chain domain model in
// ledger/ is built: every ReadFromCBOR walks the reader directly.
package cbor

// State names the shape of the next CBOR data item without consuming
// it. See Reader.PeekState.
type State int

const (
	StateUnsignedInt State = iota
	StateNegativeInt
	StateByteString
	StateStartIndefiniteByteString
	StateTextString
	StateStartIndefiniteTextString
	StateStartArray
	StateStartMap
	StateTag
	StateBoolean
	StateNull
	StateUndefined
	StateFloat
	StateSimple
	StateEndArray
	StateEndMap
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateUnsignedInt:
		return "unsigned_int"
	case StateNegativeInt:
		return "negative_int"
	case StateByteString:
		return "bytestring"
	case StateStartIndefiniteByteString:
		return "start_indefinite_bytestring"
	case StateTextString:
		return "textstring"
	case StateStartIndefiniteTextString:
		return "start_indefinite_textstring"
	case StateStartArray:
		return "start_array"
	case StateStartMap:
		return "start_map"
	case StateTag:
		return "tag"
	case StateBoolean:
		return "boolean"
	case StateNull:
		return "null"
	case StateUndefined:
		return "undefined"
	case StateFloat:
		return "float"
	case StateSimple:
		return "simple"
	case StateEndArray:
		return "end_array"
	case StateEndMap:
		return "end_map"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Well-known tags this module cares about.
const (
	TagBignumUnsigned     = 2
	TagBignumNegative     = 3
	TagEncodedCBORItem    = 24
	TagRational           = 30
	TagConstrAltBase      = 121 // alternatives 0..6 => 121..127
	TagConstrAltMax       = 127
	TagConstrAltWideBase  = 1280 // alternatives 7..127 => 1280..1400
	TagConstrAltWideMax   = 1400
	TagConstrAltIndirect  = 102 // [alt, fields] for alt outside the ranges above
	TagFiniteSet          = 258
)

// ConstrTagForAlt returns the CBOR tag used to encode a Plutus
// constructor alternative, and whether alt needs the indirect tag-102
// form (in which case the caller must also write [alt, fields]).
func ConstrTagForAlt(alt uint64) (tag uint64, indirect bool) {
	switch {
	case alt <= 6:
		return TagConstrAltBase + alt, false
	case alt >= 7 && alt <= 127:
		return TagConstrAltWideBase + (alt - 7), false
	default:
		return TagConstrAltIndirect, true
	}
}

// AltForConstrTag inverts ConstrTagForAlt for tags in the 121-127 and
// 1280-1400 ranges. ok is false for any other tag (including 102, which
// callers must special-case since it carries the alt as a CBOR value,
// not in the tag number).
func AltForConstrTag(tag uint64) (alt uint64, ok bool) {
	switch {
	case tag >= TagConstrAltBase && tag <= TagConstrAltMax:
		return tag - TagConstrAltBase, true
	case tag >= TagConstrAltWideBase && tag <= TagConstrAltWideMax:
		return (tag - TagConstrAltWideBase) + 7, true
	default:
		return 0, false
	}
}
