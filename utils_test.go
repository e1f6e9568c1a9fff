package apollo

import (
	"testing"

	"github.com/Salvionied/apollo/v2/ledger/common"
	"github.com/Salvionied/apollo/v2/ledger/txbody"
)

func TestSortUtxos(t *testing.T) {
	var hash1, hash2, hash3 common.Blake2b256
	hash1[0] = 1
	hash2[0] = 2
	hash3[0] = 3

	utxos := []txbody.Utxo{
		makeTestUtxo(t, hash1, 0, 1_000_000),
		makeTestUtxo(t, hash2, 0, 5_000_000),
		makeTestUtxo(t, hash3, 0, 3_000_000),
	}

	sorted := SortUtxos(utxos)
	if len(sorted) != 3 {
		t.Fatalf("expected 3 utxos, got %d", len(sorted))
	}

	// Should be sorted by descending amount (ADA-only first)
	amt0 := sorted[0].Output.Amount.Coin.BigInt()
	amt1 := sorted[1].Output.Amount.Coin.BigInt()
	if amt0.Cmp(amt1) < 0 {
		t.Error("expected descending order")
	}
}

func TestSortUtxosWithAssets(t *testing.T) {
	var hash1, hash2 common.Blake2b256
	hash1[0] = 1
	hash2[0] = 2

	// UTxO without assets
	utxo1 := makeTestUtxo(t, hash1, 0, 2_000_000)

	// UTxO with assets
	utxo2 := makeTestUtxoWithAssets(t, hash2, 0, 3_000_000, testPolicyId(1), "token", 100)

	sorted := SortUtxos([]txbody.Utxo{utxo2, utxo1})
	// ADA-only UTxOs should come first
	if valueHasAssets(sorted[0].Output.Amount) {
		t.Error("expected ADA-only UTxO first")
	}
	if !valueHasAssets(sorted[1].Output.Amount) {
		t.Error("expected UTxO with assets second")
	}
}

func TestSortInputs(t *testing.T) {
	var hash1, hash2 common.Blake2b256
	hash1[0] = 0xff
	hash2[0] = 0x01

	utxos := []txbody.Utxo{
		makeTestUtxo(t, hash1, 0, 1_000_000),
		makeTestUtxo(t, hash2, 0, 2_000_000),
	}

	sorted := SortInputs(utxos)
	if len(sorted) != 2 {
		t.Fatalf("expected 2, got %d", len(sorted))
	}
	// hash2 (0x01...) should come before hash1 (0xff...)
	firstAmt := sorted[0].Output.Amount.Coin.Int64()
	if firstAmt != 2_000_000 {
		t.Error("expected hash2 utxo first (lower tx hash)")
	}
}

func TestSortInputsSameHash(t *testing.T) {
	var hash common.Blake2b256
	hash[0] = 0x01

	utxos := []txbody.Utxo{
		makeTestUtxo(t, hash, 5, 1_000_000),
		makeTestUtxo(t, hash, 1, 2_000_000),
	}

	sorted := SortInputs(utxos)
	// Index 1 should come before index 5
	if sorted[0].Input.Index != 1 {
		t.Errorf("expected index 1 first, got %d", sorted[0].Input.Index)
	}
}
