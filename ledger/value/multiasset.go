package value

import (
	"math/big"
	"sort"

	"github.com/Salvionied/apollo/v2/cbor"
	"github.com/Salvionied/apollo/v2/errs"
)

// MultiAsset is a nested map policy -> asset name -> quantity.
// Transaction outputs and minting both use the same big.Int-backed
// representation since CBOR quantities are themselves unbounded
// integers and mint/output arithmetic shares all the same code paths;
// output quantities are simply never negative.
type MultiAsset struct {
	data map[PolicyId]map[AssetName]*big.Int
}

// NewMultiAsset wraps a prebuilt policy/asset map. The map is not
// copied; callers that continue to hold a reference to it risk
// violating MultiAsset's value semantics.
func NewMultiAsset(data map[PolicyId]map[AssetName]*big.Int) MultiAsset {
	return MultiAsset{data: data}
}

// EmptyMultiAsset returns a MultiAsset with no policies.
func EmptyMultiAsset() MultiAsset { return MultiAsset{data: map[PolicyId]map[AssetName]*big.Int{}} }

func (m MultiAsset) IsEmpty() bool {
	for _, assets := range m.data {
		if len(assets) > 0 {
			return false
		}
	}
	return true
}

// Policies returns the policy ids present, in no particular order.
func (m MultiAsset) Policies() []PolicyId {
	out := make([]PolicyId, 0, len(m.data))
	for p := range m.data {
		out = append(out, p)
	}
	return out
}

// Assets returns the asset names minted under policy, in no particular
// order.
func (m MultiAsset) Assets(policy PolicyId) []AssetName {
	assets, ok := m.data[policy]
	if !ok {
		return nil
	}
	out := make([]AssetName, 0, len(assets))
	for n := range assets {
		out = append(out, n)
	}
	return out
}

// Asset returns the quantity of (policy, name), or nil if absent.
func (m MultiAsset) Asset(policy PolicyId, name AssetName) *big.Int {
	assets, ok := m.data[policy]
	if !ok {
		return nil
	}
	return assets[name]
}

func (m MultiAsset) set(policy PolicyId, name AssetName, qty *big.Int) {
	if m.data == nil {
		return
	}
	assets, ok := m.data[policy]
	if !ok {
		assets = map[AssetName]*big.Int{}
		m.data[policy] = assets
	}
	assets[name] = qty
}

// Clone deep-copies the map so the result shares no mutable state with
// m, per the aggregate-ownership rule: sub-trees are cloned rather than
// aliased.
func (m MultiAsset) Clone() MultiAsset {
	out := EmptyMultiAsset()
	for policy, assets := range m.data {
		for name, qty := range assets {
			out.set(policy, name, new(big.Int).Set(qty))
		}
	}
	return out
}

// Add returns a new MultiAsset with each (policy, name) quantity
// summed; entries present on only one side are copied.
func (m MultiAsset) Add(other MultiAsset) MultiAsset {
	out := m.Clone()
	for policy, assets := range other.data {
		for name, qty := range assets {
			cur := out.Asset(policy, name)
			if cur == nil {
				out.set(policy, name, new(big.Int).Set(qty))
			} else {
				out.set(policy, name, new(big.Int).Add(cur, qty))
			}
		}
	}
	return out
}

// Sub returns a new MultiAsset with other's quantities subtracted.
// Negative results are retained (mint burns rely on this); call
// Normalize to prune zero entries.
func (m MultiAsset) Sub(other MultiAsset) MultiAsset {
	out := m.Clone()
	for policy, assets := range other.data {
		for name, qty := range assets {
			cur := out.Asset(policy, name)
			if cur == nil {
				out.set(policy, name, new(big.Int).Neg(qty))
			} else {
				out.set(policy, name, new(big.Int).Sub(cur, qty))
			}
		}
	}
	return out
}

// Normalize prunes quantity-0 entries and empty policy maps, without
// mutating m.
func (m MultiAsset) Normalize() MultiAsset {
	out := EmptyMultiAsset()
	for policy, assets := range m.data {
		for name, qty := range assets {
			if qty.Sign() == 0 {
				continue
			}
			out.set(policy, name, new(big.Int).Set(qty))
		}
	}
	return out
}

// Equal reports structural equality (after normalization, so that a
// pruned zero entry compares equal to an absent one).
func (m MultiAsset) Equal(other MultiAsset) bool {
	a, b := m.Normalize(), other.Normalize()
	if len(a.data) != len(b.data) {
		return false
	}
	for policy, assets := range a.data {
		bAssets, ok := b.data[policy]
		if !ok || len(assets) != len(bAssets) {
			return false
		}
		for name, qty := range assets {
			bQty, ok := bAssets[name]
			if !ok || qty.Cmp(bQty) != 0 {
				return false
			}
		}
	}
	return true
}

func sortedPolicies(m MultiAsset) []PolicyId {
	out := m.Policies()
	sort.Slice(out, func(i, j int) bool {
		return string(out[i].Bytes()) < string(out[j].Bytes())
	})
	return out
}

func sortedAssets(m MultiAsset, policy PolicyId) []AssetName {
	out := m.Assets(policy)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// WriteToCBOR writes the canonical `policy_id => { asset_name =>
// quantity }` map, policy-lexicographic then asset-lexicographic,
// omitting empty inner policy maps.
func (m MultiAsset) WriteToCBOR(w *cbor.Writer, signed bool) {
	policies := sortedPolicies(m)
	nonEmpty := make([]PolicyId, 0, len(policies))
	for _, p := range policies {
		if len(m.data[p]) > 0 {
			nonEmpty = append(nonEmpty, p)
		}
	}
	w.WriteStartMap(uint64(len(nonEmpty)))
	for _, policy := range nonEmpty {
		policy.WriteToCBOR(w)
		names := sortedAssets(m, policy)
		w.WriteStartMap(uint64(len(names)))
		for _, name := range names {
			WriteAssetNameToCBOR(w, name)
			qty := m.data[policy][name]
			if signed {
				w.WriteBigint(qty)
			} else {
				if qty.Sign() < 0 {
					qty = big.NewInt(0) // defensive; callers should not reach this
				}
				w.WriteBigint(qty)
			}
		}
	}
}

// ReadMultiAssetFromCBOR reads a `policy_id => { asset_name =>
// quantity }` map, rejecting duplicate keys at either level.
func ReadMultiAssetFromCBOR(r *cbor.Reader) (MultiAsset, error) {
	out := EmptyMultiAsset()
	n, err := r.ReadStartMap()
	if err != nil {
		return MultiAsset{}, err
	}
	count := uint64(0)
	indefinite := n == nil
	for indefinite || count < *n {
		if indefinite {
			st, err := r.PeekState()
			if err != nil {
				return MultiAsset{}, err
			}
			if st == cbor.StateEndMap {
				break
			}
		}
		var policy PolicyId
		if err := policy.ReadFromCBOR(r); err != nil {
			return MultiAsset{}, err
		}
		if _, exists := out.data[policy]; exists {
			return MultiAsset{}, errs.New(errs.KindDecodingError, "duplicate policy id in multi-asset map")
		}
		assets := map[AssetName]*big.Int{}
		out.data[policy] = assets
		an, err := r.ReadStartMap()
		if err != nil {
			return MultiAsset{}, err
		}
		innerIndefinite := an == nil
		innerCount := uint64(0)
		for innerIndefinite || innerCount < *an {
			if innerIndefinite {
				st, err := r.PeekState()
				if err != nil {
					return MultiAsset{}, err
				}
				if st == cbor.StateEndMap {
					break
				}
			}
			name, err := ReadAssetNameFromCBOR(r)
			if err != nil {
				return MultiAsset{}, err
			}
			if _, exists := assets[name]; exists {
				return MultiAsset{}, errs.New(errs.KindDecodingError, "duplicate asset name in multi-asset map")
			}
			qty, err := r.ReadBigint()
			if err != nil {
				return MultiAsset{}, err
			}
			assets[name] = qty
			innerCount++
		}
		if err := r.ReadEndMap(); err != nil {
			return MultiAsset{}, err
		}
		count++
	}
	if err := r.ReadEndMap(); err != nil {
		return MultiAsset{}, err
	}
	return out, nil
}
