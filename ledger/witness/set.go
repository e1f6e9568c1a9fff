package witness

import "github.com/Salvionied/apollo/v2/cbor"

// writeTaggedSet writes n items as an array, wrapped in CBOR tag 258
// when tagged is true, matching the `#6.258([* a])` finite-set
// encoding toggle each witness-set sub-field tracks independently.
func writeTaggedSet(w *cbor.Writer, tagged bool, n uint64, writeItems func()) {
	if tagged {
		w.WriteTag(cbor.TagFiniteSet)
	}
	w.WriteStartArray(n)
	writeItems()
}

// readTaggedSet reads an array optionally wrapped in tag 258,
// reporting whether the tag was present so the caller can restore it
// on write.
func readTaggedSet(r *cbor.Reader) (tagged bool, n *uint64, err error) {
	st, err := r.PeekState()
	if err != nil {
		return false, nil, err
	}
	if st == cbor.StateTag {
		if err := r.ValidateTag("witness set field", cbor.TagFiniteSet); err != nil {
			return false, nil, err
		}
		tagged = true
	}
	n, err = r.ReadStartArray()
	return tagged, n, err
}
