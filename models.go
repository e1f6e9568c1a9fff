package apollo

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/big"

	"github.com/Salvionied/apollo/v2/backend"
	"github.com/Salvionied/apollo/v2/constants"
	"github.com/Salvionied/apollo/v2/ledger/common"
	"github.com/Salvionied/apollo/v2/ledger/plutusdata"
	"github.com/Salvionied/apollo/v2/ledger/txbody"
	"github.com/Salvionied/apollo/v2/ledger/value"
)

// Unit represents a native asset quantity.
type Unit struct {
	PolicyId string
	Name     string
	Quantity int64
}

// NewUnit creates a new Unit.
func NewUnit(policyId, name string, quantity int64) Unit {
	return Unit{
		PolicyId: policyId,
		Name:     name,
		Quantity: quantity,
	}
}

// ToValue converts a Unit to a Value containing this asset.
func (u *Unit) ToValue() (value.Value, error) {
	if u.PolicyId == "" || u.PolicyId == "lovelace" {
		if u.Quantity < 0 {
			return value.Value{}, fmt.Errorf("negative lovelace quantity: %d", u.Quantity)
		}
		return value.NewValue(value.NewCoin(u.Quantity)), nil
	}
	policyBytes, err := hex.DecodeString(u.PolicyId)
	if err != nil {
		return value.Value{}, fmt.Errorf("invalid policy ID hex %q: %w", u.PolicyId, err)
	}
	if len(policyBytes) != common.Blake2b224Size {
		return value.Value{}, fmt.Errorf("invalid policy ID length: expected %d bytes, got %d", common.Blake2b224Size, len(policyBytes))
	}
	policyId := common.NewBlake2b224(policyBytes)

	nameBytes, err := hex.DecodeString(u.Name)
	if err != nil {
		return value.Value{}, fmt.Errorf("invalid asset name hex %q: %w (asset names must be hex-encoded)", u.Name, err)
	}
	assetName, err := value.NewAssetName(nameBytes)
	if err != nil {
		return value.Value{}, fmt.Errorf("invalid asset name %q: %w", u.Name, err)
	}

	assets := value.NewMultiAsset(map[value.PolicyId]map[value.AssetName]*big.Int{
		policyId: {assetName: big.NewInt(u.Quantity)},
	})
	return value.NewValueWithAssets(value.NewCoin(0), assets), nil
}

// PaymentI is the interface for payment types.
type PaymentI interface {
	EnsureMinUTXO(cc backend.ChainContext) error
	ToTxOut() (*txbody.TransactionOutput, error)
	ToValue() (value.Value, error)
}

// Payment represents a transaction output with receiver, lovelace, and optional assets.
type Payment struct {
	Lovelace  int64
	Receiver  common.Address
	Units     []Unit
	Datum     *plutusdata.Data
	DatumHash []byte
	IsInline  bool
	ScriptRef *common.ScriptRef
}

// NewPayment creates a new Payment.
func NewPayment(receiver string, lovelace int64, units []Unit) (*Payment, error) {
	addr, err := common.NewAddress(receiver)
	if err != nil {
		return nil, fmt.Errorf("invalid receiver address: %w", err)
	}
	return &Payment{
		Lovelace: lovelace,
		Receiver: addr,
		Units:    units,
	}, nil
}

// NewPaymentFromValue creates a Payment from an Address and Value.
func NewPaymentFromValue(receiver common.Address, v value.Value) *Payment {
	payment := &Payment{
		Receiver: receiver,
		Lovelace: v.Coin.Int64(),
	}
	for _, policyId := range v.MultiAsset.Policies() {
		for _, assetName := range v.MultiAsset.Assets(policyId) {
			qty := v.MultiAsset.Asset(policyId, assetName)
			q := qty.Int64()
			if !qty.IsInt64() {
				q = math.MaxInt64
			}
			payment.Units = append(payment.Units, Unit{
				PolicyId: hex.EncodeToString(policyId.Bytes()),
				Name:     hex.EncodeToString([]byte(assetName)),
				Quantity: q,
			})
		}
	}
	return payment
}

// PaymentFromTxOut creates a Payment from a TransactionOutput.
func PaymentFromTxOut(txOut *txbody.TransactionOutput) *Payment {
	return NewPaymentFromValue(txOut.Address, txOut.Amount)
}

// ToValue converts a Payment to a Value.
func (p *Payment) ToValue() (value.Value, error) {
	if p.Lovelace < 0 {
		return value.Value{}, fmt.Errorf("negative lovelace amount: %d", p.Lovelace)
	}
	v := value.NewValue(value.NewCoin(p.Lovelace))
	for _, unit := range p.Units {
		if unit.Quantity < 0 {
			return value.Value{}, fmt.Errorf("negative asset quantity %d for policy %s", unit.Quantity, unit.PolicyId)
		}
		uv, err := unit.ToValue()
		if err != nil {
			return value.Value{}, fmt.Errorf("invalid unit %s: %w", unit.PolicyId, err)
		}
		v = v.Add(uv)
	}
	return v, nil
}

// EnsureMinUTXO ensures the payment meets the minimum UTxO requirement.
// It iterates because raising Lovelace can increase the CBOR-encoded output size,
// which in turn may require a slightly higher min UTxO. Converges in 1-2 iterations.
func (p *Payment) EnsureMinUTXO(cc backend.ChainContext) error {
	if len(p.Units) == 0 && p.Lovelace >= constants.MinLovelace && p.Datum == nil && len(p.DatumHash) == 0 && p.ScriptRef == nil {
		return nil
	}
	pp, err := cc.ProtocolParams()
	if err != nil {
		return fmt.Errorf("failed to get protocol params: %w", err)
	}
	for range 3 {
		txOut, err := p.ToTxOut()
		if err != nil {
			return fmt.Errorf("failed to build tx output: %w", err)
		}
		coins := MinLovelacePostAlonzo(txOut, pp.CoinsPerUtxoByteValue())
		if p.Lovelace >= coins {
			return nil
		}
		p.Lovelace = coins
	}
	// If we exhausted iterations without converging, verify one final time.
	txOut, err := p.ToTxOut()
	if err != nil {
		return fmt.Errorf("failed to build tx output: %w", err)
	}
	coins := MinLovelacePostAlonzo(txOut, pp.CoinsPerUtxoByteValue())
	if p.Lovelace < coins {
		return fmt.Errorf("min UTxO did not converge after 3 iterations: need %d, have %d", coins, p.Lovelace)
	}
	return nil
}

// ToTxOut converts a Payment to a TransactionOutput.
func (p *Payment) ToTxOut() (*txbody.TransactionOutput, error) {
	val, err := p.ToValue()
	if err != nil {
		return nil, fmt.Errorf("failed to compute payment value: %w", err)
	}
	output := NewBabbageOutput(p.Receiver, val, nil, p.ScriptRef)

	if p.IsInline && p.Datum != nil {
		output.DatumOption = txbody.NewDatumOptionInline(p.Datum)
	} else if len(p.DatumHash) > 0 {
		if len(p.DatumHash) != common.Blake2b256Size {
			return nil, fmt.Errorf("invalid datum hash length: expected %d bytes, got %d", common.Blake2b256Size, len(p.DatumHash))
		}
		hash := common.NewBlake2b256(p.DatumHash)
		output.DatumOption = txbody.NewDatumOptionHash(hash)
	}
	return &output, nil
}
