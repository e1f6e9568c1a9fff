package apollo

import (
	"sort"

	"github.com/Salvionied/apollo/v2/ledger/txbody"
)

// SortUtxos sorts a slice of UTxOs with ADA-only UTxOs first (by descending amount),
// then UTxOs with assets.
func SortUtxos(utxos []txbody.Utxo) []txbody.Utxo {
	res := make([]txbody.Utxo, len(utxos))
	copy(res, utxos)
	sort.Slice(res, func(i, j int) bool {
		iHasAssets := !res[i].Output.Amount.MultiAsset.IsEmpty()
		jHasAssets := !res[j].Output.Amount.MultiAsset.IsEmpty()
		if iHasAssets == jHasAssets {
			return res[i].Output.Amount.Coin.BigInt().Cmp(res[j].Output.Amount.Coin.BigInt()) > 0
		}
		return jHasAssets
	})
	return res
}

// SortInputs sorts UTxOs by transaction ID and index for deterministic ordering.
func SortInputs(utxos []txbody.Utxo) []txbody.Utxo {
	sorted := make([]txbody.Utxo, len(utxos))
	copy(sorted, utxos)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Input.Less(sorted[j].Input)
	})
	return sorted
}
