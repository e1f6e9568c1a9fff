package common

import (
	"fmt"

	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/btcsuite/btcutil/base58"
	"github.com/btcsuite/btcutil/bech32"
)

// Address header layout per CIP-19: high nibble selects the address
// type, low nibble selects the network. The payload following the
// header is either 28 bytes (payment/stake key or script hash) or two
// 28-byte hashes (payment + staking).
const (
	addressHeaderTypeMask    = 0xF0
	addressHeaderNetworkMask = 0x0F
	addressHashSize          = Blake2b224Size
)

const (
	addressTypeKeyKey       = 0b0000
	addressTypeScriptKey    = 0b0001
	addressTypeKeyScript    = 0b0010
	addressTypeScriptScript = 0b0011
	addressTypeKeyPointer   = 0b0100
	addressTypeScriptPointer = 0b0101
	addressTypeKeyNone      = 0b0110
	addressTypeScriptNone   = 0b0111
	addressTypeByron        = 0b1000
	addressTypeNoneKey      = 0b1110
	addressTypeNoneScript   = 0b1111
)

// Address is a parsed Cardano address. The domain core treats it as an
// opaque, CBOR-serializable byte string (transaction output addresses
// are just byte strings on the wire); payment/staking credential
// extraction and bech32 rendering are convenience layered on top.
type Address struct {
	addressType    uint8
	networkId      uint8
	paymentAddress []byte
	stakingAddress []byte
}

// NewAddress parses a bech32 (Shelley-era) or base58 (Byron-era)
// address string.
func NewAddress(addr string) (Address, error) {
	hrp, data, err := bech32.Decode(addr, 1023)
	if err == nil && hrp != "" {
		decoded, err := bech32.ConvertBits(data, 5, 8, false)
		if err != nil {
			return Address{}, fmt.Errorf("invalid address %q: %w", addr, err)
		}
		var a Address
		if err := a.populateFromBytes(decoded); err != nil {
			return Address{}, err
		}
		return a, nil
	}
	decoded := base58.Decode(addr)
	if len(decoded) == 0 {
		return Address{}, fmt.Errorf("invalid address %q: not bech32 or base58", addr)
	}
	var a Address
	if err := a.populateFromBytes(decoded); err != nil {
		return Address{}, err
	}
	return a, nil
}

// NewAddressFromBytes parses a raw address payload as read from CBOR.
func NewAddressFromBytes(data []byte) (Address, error) {
	var a Address
	if err := a.populateFromBytes(data); err != nil {
		return Address{}, err
	}
	return a, nil
}

func (a *Address) populateFromBytes(data []byte) error {
	if len(data) < 1 {
		return fmt.Errorf("address payload too short")
	}
	header := data[0]
	a.addressType = (header & addressHeaderTypeMask) >> 4
	a.networkId = header & addressHeaderNetworkMask
	payload := data[1:]
	if a.addressType == addressTypeByron {
		a.paymentAddress = append([]byte(nil), data...)
		return nil
	}
	switch a.addressType {
	case addressTypeNoneKey, addressTypeNoneScript:
		if len(payload) < addressHashSize {
			return fmt.Errorf("address payload too short for stake-only form")
		}
		a.stakingAddress = append([]byte(nil), payload[:addressHashSize]...)
	default:
		if len(payload) < addressHashSize {
			return fmt.Errorf("address payload too short")
		}
		a.paymentAddress = append([]byte(nil), payload[:addressHashSize]...)
		rest := payload[addressHashSize:]
		if len(rest) >= addressHashSize {
			a.stakingAddress = append([]byte(nil), rest[:addressHashSize]...)
		}
	}
	return nil
}

func (a *Address) ReadFromCBOR(r *cbor.Reader) error {
	raw, err := r.ReadByteString()
	if err != nil {
		return err
	}
	return a.populateFromBytes(raw)
}

func (a Address) WriteToCBOR(w *cbor.Writer) { w.WriteBytestring(a.Bytes()) }

// StakeAddress returns the address's stake-only counterpart, or nil if
// the address has no staking component (e.g. enterprise addresses).
func (a Address) StakeAddress() *Address {
	if len(a.stakingAddress) == 0 {
		return nil
	}
	scriptStake := a.addressType == addressTypeScriptKey || a.addressType == addressTypeScriptScript
	newType := uint8(addressTypeNoneKey)
	if scriptStake {
		newType = addressTypeNoneScript
	}
	return &Address{
		addressType:    newType,
		networkId:      a.networkId,
		stakingAddress: append([]byte(nil), a.stakingAddress...),
	}
}

// PaymentCredentialHash returns the 28-byte payment credential hash,
// if present.
func (a Address) PaymentCredentialHash() []byte { return a.paymentAddress }

// StakeCredentialHash returns the 28-byte staking credential hash, if
// present.
func (a Address) StakeCredentialHash() []byte { return a.stakingAddress }

// IsScriptPayment reports whether the payment credential is a script
// hash rather than a key hash.
func (a Address) IsScriptPayment() bool {
	switch a.addressType {
	case addressTypeScriptKey, addressTypeScriptScript, addressTypeScriptPointer, addressTypeScriptNone:
		return true
	default:
		return false
	}
}

// IsScriptStaking reports whether the staking credential is a script
// hash rather than a key hash. Only meaningful when StakeCredentialHash
// is non-empty.
func (a Address) IsScriptStaking() bool {
	switch a.addressType {
	case addressTypeKeyScript, addressTypeScriptScript, addressTypeNoneScript:
		return true
	default:
		return false
	}
}

func (a Address) generateHRP() string {
	ret := "addr"
	if a.addressType == addressTypeNoneKey || a.addressType == addressTypeNoneScript {
		ret = "stake"
	}
	if a.networkId != 1 {
		ret += "_test"
	}
	return ret
}

// Bytes returns the raw on-wire address payload.
func (a Address) Bytes() []byte {
	if a.addressType == addressTypeByron {
		return a.paymentAddress
	}
	out := make([]byte, 0, 1+len(a.paymentAddress)+len(a.stakingAddress))
	out = append(out, (a.addressType<<4)|(a.networkId&addressHeaderNetworkMask))
	out = append(out, a.paymentAddress...)
	out = append(out, a.stakingAddress...)
	return out
}

// String renders the address in its canonical textual form (bech32 for
// Shelley-era addresses, base58 for Byron).
func (a Address) String() string {
	if a.addressType == addressTypeByron {
		return base58.Encode(a.paymentAddress)
	}
	data := a.Bytes()
	conv, err := bech32.ConvertBits(data, 8, 5, true)
	if err != nil {
		return ""
	}
	encoded, err := bech32.Encode(a.generateHRP(), conv)
	if err != nil {
		return ""
	}
	return encoded
}

func (a Address) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

func (a Address) Equal(other Address) bool {
	return a.addressType == other.addressType &&
		a.networkId == other.networkId &&
		string(a.paymentAddress) == string(other.paymentAddress) &&
		string(a.stakingAddress) == string(other.stakingAddress)
}
