package common

import (
	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/errs"
)

// Rational is an exact fraction encoded as CBOR tag 30 over a
// 2-element array `[numerator, denominator]`, used for the pool
// margin and other protocol-parameter ratios.
type Rational struct {
	Numerator   uint64
	Denominator uint64
}

func NewRational(num, den uint64) Rational {
	return Rational{Numerator: num, Denominator: den}
}

func (r Rational) Equal(o Rational) bool {
	return r.Numerator == o.Numerator && r.Denominator == o.Denominator
}

func (r Rational) WriteToCBOR(w *cbor.Writer) {
	w.WriteTag(cbor.TagRational)
	w.WriteStartArray(2)
	w.WriteUint(r.Numerator)
	w.WriteUint(r.Denominator)
}

func (r *Rational) ReadFromCBOR(cr *cbor.Reader) error {
	if err := cr.ValidateTag("rational", cbor.TagRational); err != nil {
		return err
	}
	if err := cr.ValidateArrayOfNElements("rational", 2); err != nil {
		return err
	}
	num, err := cr.ReadUint()
	if err != nil {
		return err
	}
	den, err := cr.ReadUint()
	if err != nil {
		return err
	}
	if den == 0 {
		return errs.New(errs.KindInvalidCBORValue, "rational: zero denominator")
	}
	r.Numerator = num
	r.Denominator = den
	return cr.ValidateEndArray("rational")
}
