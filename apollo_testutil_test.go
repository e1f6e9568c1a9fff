package apollo

import (
	"math/big"
	"testing"

	"github.com/Salvionied/apollo/v2/backend/fixed"
	"github.com/Salvionied/apollo/v2/ledger/common"
	"github.com/Salvionied/apollo/v2/ledger/txbody"
	"github.com/Salvionied/apollo/v2/ledger/value"
)

// validTestAddrBech32 is a valid bech32 test address with both payment and staking parts.
var validTestAddrBech32 = func() string {
	raw := make([]byte, 57)
	raw[0] = 0x00 // type 0 = base address, network 0 = testnet
	raw[1] = 0xAA // payment key hash
	raw[29] = 0xBB // stake key hash
	addr, err := common.NewAddressFromBytes(raw)
	if err != nil {
		panic(err)
	}
	return addr.String()
}()

func testAddress(t *testing.T) common.Address {
	t.Helper()
	addr, err := common.NewAddress(validTestAddrBech32)
	if err != nil {
		t.Fatalf("failed to build test address: %v", err)
	}
	return addr
}

// testMnemonic is the well-known "test ... junk" BIP39 development mnemonic, used only in tests.
func testMnemonic() string {
	return "test test test test test test test test test test test junk"
}

func testPolicyId(b byte) common.Blake2b224 {
	var pid common.Blake2b224
	pid[0] = b
	return pid
}

func setupFixedContext() *fixed.FixedChainContext {
	return fixed.NewEmptyFixedChainContext()
}

func makeTestUtxo(t *testing.T, txHash common.Blake2b256, index uint64, lovelace int64) txbody.Utxo {
	t.Helper()
	addr := testAddress(t)
	return txbody.Utxo{
		Input:  txbody.NewTransactionInput(txHash, index),
		Output: NewBabbageOutputSimple(addr, lovelace),
	}
}

func addTestUtxo(fc *fixed.FixedChainContext, addr common.Address, lovelace int64, txHashByte byte, index uint64) {
	var txHash common.Blake2b256
	txHash[0] = txHashByte
	utxo := txbody.Utxo{
		Input:  txbody.NewTransactionInput(txHash, index),
		Output: NewBabbageOutputSimple(addr, lovelace),
	}
	fc.AddUtxo(addr, utxo)
}

func makeTestUtxoWithAssets(t *testing.T, txHash common.Blake2b256, index uint64, lovelace int64, policy common.Blake2b224, assetName string, qty int64) txbody.Utxo {
	t.Helper()
	addr := testAddress(t)
	name, err := value.NewAssetName([]byte(assetName))
	if err != nil {
		t.Fatalf("invalid asset name: %v", err)
	}
	assets := value.NewMultiAsset(map[value.PolicyId]map[value.AssetName]*big.Int{
		policy: {name: big.NewInt(qty)},
	})
	out := NewBabbageOutput(addr, value.NewValueWithAssets(value.NewCoin(lovelace), assets), nil, nil)
	return txbody.Utxo{Input: txbody.NewTransactionInput(txHash, index), Output: out}
}
