// Package errs defines the error taxonomy shared by the cbor and ledger
// packages. Every fallible operation in this module returns a plain Go
// error; most of those errors carry one of the Kind values below so
// callers can branch on failure category with errors.As instead of
// string matching.
package errs

import "fmt"

// Kind classifies a failure by category. The names mirror the result
// codes of the wire format this module implements, not Go idiom, since
// callers crossing the CBOR/Plutus boundary expect this vocabulary.
type Kind string

const (
	// Structural
	KindPointerIsNull          Kind = "pointer_is_null"
	KindInvalidArgument        Kind = "invalid_argument"
	KindOutOfBoundsRead        Kind = "out_of_bounds_read"
	KindOutOfBoundsWrite       Kind = "out_of_bounds_write"
	KindInsufficientBufferSize Kind = "insufficient_buffer_size"

	// Encoding
	KindEncodingError        Kind = "encoding_error"
	KindDecodingError        Kind = "decoding_error"
	KindUnexpectedCBORType   Kind = "unexpected_cbor_type"
	KindInvalidCBORValue     Kind = "invalid_cbor_value"
	KindInvalidCBORArraySize Kind = "invalid_cbor_array_size"
	KindInvalidCBORMapSize   Kind = "invalid_cbor_map_size"
	KindChecksumMismatch     Kind = "checksum_mismatch"

	// Crypto-shape
	KindInvalidBlake2bSize           Kind = "invalid_blake2b_size"
	KindInvalidEd25519SignatureSize  Kind = "invalid_ed25519_signature_size"
	KindInvalidEd25519PublicKeySize  Kind = "invalid_ed25519_public_key_size"
	KindInvalidBip32DerivationIndex  Kind = "invalid_bip32_derivation_index"

	// Domain
	KindInvalidMetadatumConversion        Kind = "invalid_metadatum_conversion"
	KindInvalidMetadatumBoundedBytesSize   Kind = "invalid_metadatum_bounded_bytes_size"
	KindInvalidMetadatumTextStringSize     Kind = "invalid_metadatum_text_string_size"
	KindInvalidScriptLanguage              Kind = "invalid_script_language"
	KindInvalidJSON                        Kind = "invalid_json"
	KindScriptEvaluationFailure            Kind = "script_evaluation_failure"
	KindLossOfPrecision                    Kind = "loss_of_precision"
)

// Error is the module's concrete error type. Field is an optional
// symbolic name of the item being validated (a struct field, a CDDL
// production) included in diagnostic messages, matching the
// validate_* helpers of the CBOR reader.
type Error struct {
	Kind  Kind
	Field string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf builds an *Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error that wraps an underlying cause.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// WithField returns a copy of e with Field set, for validators that know
// the symbolic name of what they were checking.
func (e *Error) WithField(field string) *Error {
	cp := *e
	cp.Field = field
	return &cp
}
