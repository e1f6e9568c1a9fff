package cbor

import (
	"math/big"

	"github.com/Salvionied/apollo/v2/errs"
)

// DefaultMaxDepth bounds recursive container traversal (SkipValue,
// ReadEncodedValue) so that adversarial input cannot force unbounded
// recursion; see the Design Notes on recursion limits.
const DefaultMaxDepth = 256

// frame tracks one open array/map while decoding.
type frame struct {
	isMap       bool
	indefinite  bool
	remaining   uint64 // items left (pairs*2 for maps), meaningless if indefinite
}

// Reader is a streaming cursor over a borrowed byte slice. It never
// allocates for primitive reads; allocation happens only for
// byte/text strings, bignums, and ReadEncodedValue.
type Reader struct {
	buf      []byte
	pos      int
	stack    []frame
	maxDepth int
	lastErr  error
}

// NewReader wraps buf without copying it. buf must outlive the Reader.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf, maxDepth: DefaultMaxDepth}
}

// SetMaxDepth overrides the default container nesting bound.
func (r *Reader) SetMaxDepth(n int) { r.maxDepth = n }

// LastError returns the most recent decode error, if any operation has
// failed on this cursor.
func (r *Reader) LastError() error { return r.lastErr }

// Pos returns the current byte offset into the wrapped slice.
func (r *Reader) Pos() int { return r.pos }

// Remaining returns the unread tail of the wrapped slice.
func (r *Reader) Remaining() []byte { return r.buf[r.pos:] }

// Clone returns an independent cursor at the same offset and container
// stack depth, used to capture CBOR caches without disturbing the
// original cursor's progress.
func (r *Reader) Clone() *Reader {
	cp := &Reader{buf: r.buf, pos: r.pos, maxDepth: r.maxDepth}
	cp.stack = append([]frame(nil), r.stack...)
	return cp
}

func (r *Reader) fail(err error) error {
	r.lastErr = err
	return err
}

func (r *Reader) byteAt(off int) (byte, error) {
	if off < 0 || off >= len(r.buf) {
		return 0, r.fail(errs.New(errs.KindOutOfBoundsRead, "read past end of buffer"))
	}
	return r.buf[off], nil
}

// topIsClosedDefinite reports whether the current container frame is a
// definite-length container with no items left.
func (r *Reader) topIsClosedDefinite() (State, bool) {
	if len(r.stack) == 0 {
		return 0, false
	}
	top := r.stack[len(r.stack)-1]
	if !top.indefinite && top.remaining == 0 {
		if top.isMap {
			return StateEndMap, true
		}
		return StateEndArray, true
	}
	return 0, false
}

// PeekState reports the shape of the next item without consuming it.
func (r *Reader) PeekState() (State, error) {
	if st, closed := r.topIsClosedDefinite(); closed {
		return st, nil
	}
	if r.pos >= len(r.buf) {
		if len(r.stack) == 0 {
			return StateFinished, nil
		}
		return 0, r.fail(errs.New(errs.KindOutOfBoundsRead, "unexpected end of input inside open container"))
	}
	b := r.buf[r.pos]
	major := b >> 5
	info := b & 0x1f

	if len(r.stack) > 0 && r.stack[len(r.stack)-1].indefinite && b == 0xFF {
		if r.stack[len(r.stack)-1].isMap {
			return StateEndMap, nil
		}
		return StateEndArray, nil
	}

	switch major {
	case 0:
		return StateUnsignedInt, nil
	case 1:
		return StateNegativeInt, nil
	case 2:
		if info == 31 {
			return StateStartIndefiniteByteString, nil
		}
		return StateByteString, nil
	case 3:
		if info == 31 {
			return StateStartIndefiniteTextString, nil
		}
		return StateTextString, nil
	case 4:
		return StateStartArray, nil
	case 5:
		return StateStartMap, nil
	case 6:
		return StateTag, nil
	case 7:
		switch info {
		case 20, 21:
			return StateBoolean, nil
		case 22:
			return StateNull, nil
		case 23:
			return StateUndefined, nil
		case 25, 26, 27:
			return StateFloat, nil
		default:
			return StateSimple, nil
		}
	default:
		return 0, r.fail(errs.New(errs.KindInvalidCBORValue, "impossible major type"))
	}
}

// readHeader consumes a major-type/length-prefix pair for the item at
// the cursor, returning the additional-info-derived value. wantMajor,
// if >= 0, validates the major type matches.
func (r *Reader) readHeader(wantMajor int) (major byte, value uint64, info byte, err error) {
	b, err := r.byteAt(r.pos)
	if err != nil {
		return 0, 0, 0, err
	}
	major = b >> 5
	info = b & 0x1f
	if wantMajor >= 0 && int(major) != wantMajor {
		return 0, 0, 0, r.fail(errs.Newf(errs.KindUnexpectedCBORType, "expected major type %d, got %d", wantMajor, major))
	}
	r.pos++
	switch {
	case info < 24:
		value = uint64(info)
	case info == 24:
		v, e := r.take(1)
		if e != nil {
			return 0, 0, 0, e
		}
		value = uint64(v[0])
	case info == 25:
		v, e := r.take(2)
		if e != nil {
			return 0, 0, 0, e
		}
		value = uint64(v[0])<<8 | uint64(v[1])
	case info == 26:
		v, e := r.take(4)
		if e != nil {
			return 0, 0, 0, e
		}
		value = uint64(v[0])<<24 | uint64(v[1])<<16 | uint64(v[2])<<8 | uint64(v[3])
	case info == 27:
		v, e := r.take(8)
		if e != nil {
			return 0, 0, 0, e
		}
		value = 0
		for _, bb := range v {
			value = value<<8 | uint64(bb)
		}
	case info == 31:
		value = 0 // indefinite marker; caller inspects info itself
	default:
		return 0, 0, 0, r.fail(errs.Newf(errs.KindInvalidCBORValue, "reserved additional info %d", info))
	}
	return major, value, info, nil
}

// take consumes and returns the next n bytes, failing without
// advancing past the item boundary on short input.
func (r *Reader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, r.fail(errs.New(errs.KindOutOfBoundsRead, "truncated CBOR item"))
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *Reader) decrementParent() {
	if len(r.stack) == 0 {
		return
	}
	top := &r.stack[len(r.stack)-1]
	if !top.indefinite && top.remaining > 0 {
		top.remaining--
	}
}

// ReadUint consumes an unsigned integer (major type 0).
func (r *Reader) ReadUint() (uint64, error) {
	_, v, _, err := r.readHeader(0)
	if err != nil {
		return 0, err
	}
	r.decrementParent()
	return v, nil
}

// ReadInt consumes a signed integer (major type 0 or 1), failing if the
// magnitude does not fit in an int64.
func (r *Reader) ReadInt() (int64, error) {
	st, err := r.PeekState()
	if err != nil {
		return 0, err
	}
	switch st {
	case StateUnsignedInt:
		v, err := r.ReadUint()
		if err != nil {
			return 0, err
		}
		if v > 1<<63-1 {
			return 0, r.fail(errs.New(errs.KindLossOfPrecision, "unsigned value overflows int64"))
		}
		return int64(v), nil
	case StateNegativeInt:
		_, v, _, err := r.readHeader(1)
		if err != nil {
			return 0, err
		}
		if v > 1<<63-1 {
			return 0, r.fail(errs.New(errs.KindLossOfPrecision, "negative value overflows int64"))
		}
		r.decrementParent()
		return -1 - int64(v), nil
	default:
		return 0, r.fail(errs.Newf(errs.KindUnexpectedCBORType, "expected int, got %s", st))
	}
}

// ReadBigint consumes either a native CBOR int or a bignum tag (2/3),
// returning an arbitrary-precision signed integer.
func (r *Reader) ReadBigint() (*big.Int, error) {
	st, err := r.PeekState()
	if err != nil {
		return nil, err
	}
	if st == StateTag {
		tag, err := r.peekTagValue()
		if err != nil {
			return nil, err
		}
		if tag == TagBignumUnsigned || tag == TagBignumNegative {
			if _, err := r.ReadTag(); err != nil {
				return nil, err
			}
			raw, err := r.ReadByteString()
			if err != nil {
				return nil, err
			}
			mag := new(big.Int).SetBytes(raw)
			if tag == TagBignumNegative {
				mag.Neg(mag)
				mag.Sub(mag, big.NewInt(1))
			}
			return mag, nil
		}
		return nil, r.fail(errs.Newf(errs.KindUnexpectedCBORType, "unexpected tag %d for bigint", tag))
	}
	switch st {
	case StateUnsignedInt:
		_, v, _, err := r.readHeader(0)
		if err != nil {
			return nil, err
		}
		r.decrementParent()
		return new(big.Int).SetUint64(v), nil
	case StateNegativeInt:
		_, v, _, err := r.readHeader(1)
		if err != nil {
			return nil, err
		}
		r.decrementParent()
		n := new(big.Int).SetUint64(v)
		n.Neg(n)
		n.Sub(n, big.NewInt(1))
		return n, nil
	default:
		return nil, r.fail(errs.Newf(errs.KindUnexpectedCBORType, "expected int or bignum, got %s", st))
	}
}

// peekTagValue peeks the tag number of the item at the cursor without
// consuming the tag header, used internally by ReadBigint.
func (r *Reader) peekTagValue() (uint64, error) {
	save := r.pos
	_, v, _, err := r.readHeader(6)
	r.pos = save
	return v, err
}

// PeekTag returns the tag number of the next item without consuming
// it. Callers must have verified PeekState()==StateTag first.
func (r *Reader) PeekTag() (uint64, error) {
	return r.peekTagValue()
}

// ReadTag consumes a tag header and returns its number.
func (r *Reader) ReadTag() (uint64, error) {
	_, v, _, err := r.readHeader(6)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// ReadByteString consumes a definite or indefinite-length byte string,
// concatenating chunks on the indefinite form.
func (r *Reader) ReadByteString() ([]byte, error) {
	st, err := r.PeekState()
	if err != nil {
		return nil, err
	}
	switch st {
	case StateByteString:
		_, n, _, err := r.readHeader(2)
		if err != nil {
			return nil, err
		}
		data, err := r.take(int(n))
		if err != nil {
			return nil, err
		}
		r.decrementParent()
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	case StateStartIndefiniteByteString:
		if _, err := r.take(1); err != nil { // consume 0x5F header byte
			return nil, err
		}
		var out []byte
		for {
			if r.pos >= len(r.buf) {
				return nil, r.fail(errs.New(errs.KindOutOfBoundsRead, "truncated indefinite bytestring"))
			}
			b := r.buf[r.pos]
			if b == 0xFF {
				r.pos++
				r.decrementParent()
				return out, nil
			}
			_, n, _, err := r.readHeader(2)
			if err != nil {
				return nil, err
			}
			chunk, err := r.take(int(n))
			if err != nil {
				return nil, err
			}
			out = append(out, chunk...)
		}
	default:
		return nil, r.fail(errs.Newf(errs.KindUnexpectedCBORType, "expected bytestring, got %s", st))
	}
}

// ReadTextString consumes a definite or indefinite-length text string.
func (r *Reader) ReadTextString() (string, error) {
	st, err := r.PeekState()
	if err != nil {
		return "", err
	}
	switch st {
	case StateTextString:
		_, n, _, err := r.readHeader(3)
		if err != nil {
			return "", err
		}
		data, err := r.take(int(n))
		if err != nil {
			return "", err
		}
		r.decrementParent()
		return string(data), nil
	case StateStartIndefiniteTextString:
		if _, err := r.take(1); err != nil {
			return "", err
		}
		var out []byte
		for {
			if r.pos >= len(r.buf) {
				return "", r.fail(errs.New(errs.KindOutOfBoundsRead, "truncated indefinite textstring"))
			}
			b := r.buf[r.pos]
			if b == 0xFF {
				r.pos++
				r.decrementParent()
				return string(out), nil
			}
			_, n, _, err := r.readHeader(3)
			if err != nil {
				return "", err
			}
			chunk, err := r.take(int(n))
			if err != nil {
				return "", err
			}
			out = append(out, chunk...)
		}
	default:
		return "", r.fail(errs.Newf(errs.KindUnexpectedCBORType, "expected textstring, got %s", st))
	}
}

// ReadStartArray consumes an array header, returning the element count
// for a definite-length array or nil for an indefinite one.
func (r *Reader) ReadStartArray() (*uint64, error) {
	if len(r.stack) >= r.maxDepth {
		return nil, r.fail(errs.New(errs.KindDecodingError, "container nesting exceeds maximum depth"))
	}
	_, n, info, err := r.readHeader(4)
	if err != nil {
		return nil, err
	}
	if info == 31 {
		r.stack = append(r.stack, frame{isMap: false, indefinite: true})
		return nil, nil
	}
	r.stack = append(r.stack, frame{isMap: false, remaining: n})
	return &n, nil
}

// ReadStartMap consumes a map header, returning the pair count for a
// definite-length map or nil for an indefinite one.
func (r *Reader) ReadStartMap() (*uint64, error) {
	if len(r.stack) >= r.maxDepth {
		return nil, r.fail(errs.New(errs.KindDecodingError, "container nesting exceeds maximum depth"))
	}
	_, n, info, err := r.readHeader(5)
	if err != nil {
		return nil, err
	}
	if info == 31 {
		r.stack = append(r.stack, frame{isMap: true, indefinite: true})
		return nil, nil
	}
	r.stack = append(r.stack, frame{isMap: true, remaining: n * 2})
	return &n, nil
}

// ReadEndArray closes the innermost open array, erroring if elements
// remain (definite form) or the break byte is missing (indefinite
// form).
func (r *Reader) ReadEndArray() error {
	return r.readEndContainer(false)
}

// ReadEndMap closes the innermost open map, with the same semantics as
// ReadEndArray.
func (r *Reader) ReadEndMap() error {
	return r.readEndContainer(true)
}

func (r *Reader) readEndContainer(wantMap bool) error {
	if len(r.stack) == 0 {
		return r.fail(errs.New(errs.KindInvalidArgument, "no open container to end"))
	}
	top := r.stack[len(r.stack)-1]
	if top.isMap != wantMap {
		return r.fail(errs.New(errs.KindInvalidArgument, "container kind mismatch on end"))
	}
	if top.indefinite {
		if r.pos >= len(r.buf) || r.buf[r.pos] != 0xFF {
			return r.fail(errs.New(errs.KindDecodingError, "missing break byte for indefinite container"))
		}
		r.pos++
	} else if top.remaining != 0 {
		kind := errs.KindInvalidCBORArraySize
		if wantMap {
			kind = errs.KindInvalidCBORMapSize
		}
		return r.fail(errs.Newf(kind, "%d element(s) remain before end", top.remaining))
	}
	r.stack = r.stack[:len(r.stack)-1]
	r.decrementParent()
	return nil
}

// ReadNull consumes a null simple value.
func (r *Reader) ReadNull() error {
	b, err := r.byteAt(r.pos)
	if err != nil {
		return err
	}
	if b != 0xF6 {
		return r.fail(errs.Newf(errs.KindUnexpectedCBORType, "expected null, got byte 0x%02x", b))
	}
	r.pos++
	r.decrementParent()
	return nil
}

// ReadBool consumes a boolean simple value.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.byteAt(r.pos)
	if err != nil {
		return false, err
	}
	switch b {
	case 0xF4:
		r.pos++
		r.decrementParent()
		return false, nil
	case 0xF5:
		r.pos++
		r.decrementParent()
		return true, nil
	default:
		return false, r.fail(errs.Newf(errs.KindUnexpectedCBORType, "expected bool, got byte 0x%02x", b))
	}
}

// SkipValue consumes the next complete data item, recursing through
// composites. It terminates in time linear in the bytes consumed even
// on malformed or deeply-nested input, bounded by maxDepth.
func (r *Reader) SkipValue() error {
	st, err := r.PeekState()
	if err != nil {
		return err
	}
	switch st {
	case StateUnsignedInt:
		_, err := r.ReadUint()
		return err
	case StateNegativeInt:
		_, err := r.ReadInt()
		return err
	case StateByteString, StateStartIndefiniteByteString:
		_, err := r.ReadByteString()
		return err
	case StateTextString, StateStartIndefiniteTextString:
		_, err := r.ReadTextString()
		return err
	case StateBoolean:
		_, err := r.ReadBool()
		return err
	case StateNull, StateUndefined:
		r.pos++
		r.decrementParent()
		return nil
	case StateFloat:
		b, err := r.byteAt(r.pos)
		if err != nil {
			return err
		}
		var n int
		switch b & 0x1f {
		case 25:
			n = 3
		case 26:
			n = 5
		case 27:
			n = 9
		}
		if _, err := r.take(n); err != nil {
			return err
		}
		r.decrementParent()
		return nil
	case StateSimple:
		if _, err := r.take(1); err != nil {
			return err
		}
		r.decrementParent()
		return nil
	case StateTag:
		if _, err := r.ReadTag(); err != nil {
			return err
		}
		return r.SkipValue()
	case StateStartArray:
		n, err := r.ReadStartArray()
		if err != nil {
			return err
		}
		if n != nil {
			for i := uint64(0); i < *n; i++ {
				if err := r.SkipValue(); err != nil {
					return err
				}
			}
		} else {
			for {
				s, err := r.PeekState()
				if err != nil {
					return err
				}
				if s == StateEndArray {
					break
				}
				if err := r.SkipValue(); err != nil {
					return err
				}
			}
		}
		return r.ReadEndArray()
	case StateStartMap:
		n, err := r.ReadStartMap()
		if err != nil {
			return err
		}
		if n != nil {
			for i := uint64(0); i < (*n)*2; i++ {
				if err := r.SkipValue(); err != nil {
					return err
				}
			}
		} else {
			for {
				s, err := r.PeekState()
				if err != nil {
					return err
				}
				if s == StateEndMap {
					break
				}
				if err := r.SkipValue(); err != nil {
					return err
				}
			}
		}
		return r.ReadEndMap()
	default:
		return r.fail(errs.Newf(errs.KindDecodingError, "cannot skip value in state %s", st))
	}
}

// ReadEncodedValue returns the raw bytes of the next complete data item
// without interpreting it, used to populate CBOR caches so that
// re-encoding a non-canonical source reproduces it byte-for-byte.
func (r *Reader) ReadEncodedValue() ([]byte, error) {
	start := r.pos
	scratch := r.Clone()
	if err := scratch.SkipValue(); err != nil {
		return nil, err
	}
	end := scratch.pos
	out := make([]byte, end-start)
	copy(out, r.buf[start:end])
	r.pos = end
	r.decrementParent()
	return out, nil
}

// --- Validators ---

// ValidateArrayOfNElements reads a definite-length array header and
// fails with a diagnostic naming the field if the length is not
// exactly n (indefinite arrays always fail this check).
func (r *Reader) ValidateArrayOfNElements(name string, n uint64) error {
	got, err := r.ReadStartArray()
	if err != nil {
		return err
	}
	if got == nil || *got != n {
		return r.fail(errs.Newf(errs.KindInvalidCBORArraySize, "%s: expected array of %d elements", name, n).WithField(name))
	}
	return nil
}

// ValidateEndArray closes the innermost array, naming the field on
// failure.
func (r *Reader) ValidateEndArray(name string) error {
	if err := r.ReadEndArray(); err != nil {
		if e, ok := err.(*errs.Error); ok {
			return e.WithField(name)
		}
		return err
	}
	return nil
}

// ValidateTag reads a tag header and fails with a diagnostic naming the
// field if it does not equal expected.
func (r *Reader) ValidateTag(name string, expected uint64) error {
	got, err := r.ReadTag()
	if err != nil {
		return err
	}
	if got != expected {
		return r.fail(errs.Newf(errs.KindInvalidCBORValue, "%s: expected tag %d, got %d", name, expected, got).WithField(name))
	}
	return nil
}

// ValidateEnumValue checks that value matches one of expected,
// producing a diagnostic via toString on mismatch.
func ValidateEnumValue[T comparable](name string, field string, value T, expected []T, toString func(T) string) error {
	for _, e := range expected {
		if e == value {
			return nil
		}
	}
	got := toString(value)
	return errs.Newf(errs.KindInvalidCBORValue, "%s.%s: unexpected value %s", name, field, got).WithField(field)
}
