package value

import (
	"math/big"

	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/errs"
)

// Coin is a lovelace amount. It is carried as *big.Int rather than
// uint64/int64 because output coin arithmetic (Add/Sub across a whole
// transaction body) must not silently wrap, and the CBOR wire form is
// itself an unbounded integer.
type Coin struct {
	amount *big.Int
}

func NewCoin(amount int64) Coin { return Coin{amount: big.NewInt(amount)} }

func NewCoinFromBigInt(amount *big.Int) Coin { return Coin{amount: new(big.Int).Set(amount)} }

func (c Coin) BigInt() *big.Int {
	if c.amount == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(c.amount)
}

func (c Coin) Int64() int64 { return c.BigInt().Int64() }

func (c Coin) Add(o Coin) Coin { return NewCoinFromBigInt(new(big.Int).Add(c.BigInt(), o.BigInt())) }
func (c Coin) Sub(o Coin) Coin { return NewCoinFromBigInt(new(big.Int).Sub(c.BigInt(), o.BigInt())) }
func (c Coin) Equal(o Coin) bool { return c.BigInt().Cmp(o.BigInt()) == 0 }
func (c Coin) IsZero() bool      { return c.BigInt().Sign() == 0 }
func (c Coin) IsNegative() bool  { return c.BigInt().Sign() < 0 }

func (c Coin) WriteToCBOR(w *cbor.Writer) { w.WriteBigint(c.BigInt()) }

func (c *Coin) ReadFromCBOR(r *cbor.Reader) error {
	v, err := r.ReadBigint()
	if err != nil {
		return err
	}
	c.amount = v
	return nil
}

// Value is a transaction output's or mint field's total worth: a
// lovelace coin plus, optionally, a bag of native assets. The wire
// form is either a bare coin integer or a 2-element array of
// `[coin, multiasset]`; WriteToCBOR writes the multi-asset quantities
// as unsigned integers (output Value) and WriteMintToCBOR writes them
// as signed integers (mint Value).
type Value struct {
	Coin       Coin
	MultiAsset MultiAsset
}

func NewValue(coin Coin) Value {
	return Value{Coin: coin, MultiAsset: EmptyMultiAsset()}
}

func NewValueWithAssets(coin Coin, assets MultiAsset) Value {
	return Value{Coin: coin, MultiAsset: assets}
}

func (v Value) Add(o Value) Value {
	return Value{Coin: v.Coin.Add(o.Coin), MultiAsset: v.MultiAsset.Add(o.MultiAsset)}
}

func (v Value) Sub(o Value) Value {
	return Value{Coin: v.Coin.Sub(o.Coin), MultiAsset: v.MultiAsset.Sub(o.MultiAsset)}
}

func (v Value) Normalize() Value {
	return Value{Coin: v.Coin, MultiAsset: v.MultiAsset.Normalize()}
}

func (v Value) Equal(o Value) bool {
	return v.Coin.Equal(o.Coin) && v.MultiAsset.Equal(o.MultiAsset)
}

// HasOnlyCoin reports whether the value carries no native assets, the
// condition under which it serializes as a bare integer rather than a
// 2-element array.
func (v Value) HasOnlyCoin() bool { return v.MultiAsset.IsEmpty() }

// WriteToCBOR writes the output-value shape (unsigned quantities).
func (v Value) WriteToCBOR(w *cbor.Writer) { v.writeToCBOR(w, false) }

// WriteMintToCBOR writes the mint-value shape (signed quantities, no
// coin component — mint never carries lovelace).
func (v Value) WriteMintToCBOR(w *cbor.Writer) {
	v.MultiAsset.WriteToCBOR(w, true)
}

func (v Value) writeToCBOR(w *cbor.Writer, signed bool) {
	if v.HasOnlyCoin() {
		v.Coin.WriteToCBOR(w)
		return
	}
	w.WriteStartArray(2)
	v.Coin.WriteToCBOR(w)
	v.MultiAsset.WriteToCBOR(w, signed)
}

// ReadValueFromCBOR reads either wire shape of an output value.
func ReadValueFromCBOR(r *cbor.Reader) (Value, error) {
	st, err := r.PeekState()
	if err != nil {
		return Value{}, err
	}
	switch st {
	case cbor.StateUnsignedInt, cbor.StateNegativeInt, cbor.StateTag:
		var c Coin
		if err := c.ReadFromCBOR(r); err != nil {
			return Value{}, err
		}
		return NewValue(c), nil
	case cbor.StateStartArray:
		if err := r.ValidateArrayOfNElements("value", 2); err != nil {
			return Value{}, err
		}
		var c Coin
		if err := c.ReadFromCBOR(r); err != nil {
			return Value{}, err
		}
		ma, err := ReadMultiAssetFromCBOR(r)
		if err != nil {
			return Value{}, err
		}
		if err := r.ValidateEndArray("value"); err != nil {
			return Value{}, err
		}
		return NewValueWithAssets(c, ma), nil
	default:
		return Value{}, errs.Newf(errs.KindUnexpectedCBORType, "value: unexpected state %s", st)
	}
}

// ReadMultiAssetMintFromCBOR reads the mint field's bare
// `policy_id => { asset_name => int64 }` map (no coin wrapper, signed
// quantities — the same map shape ReadMultiAssetFromCBOR already
// handles since big.Int quantities carry their own sign).
func ReadMultiAssetMintFromCBOR(r *cbor.Reader) (MultiAsset, error) {
	return ReadMultiAssetFromCBOR(r)
}
