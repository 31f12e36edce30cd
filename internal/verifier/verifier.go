// Package verifier decides whether a collateral bundle satisfies a list of
// ownership predicates. The check is pure: holdings come in through an
// interface and no state is touched.
package verifier

import (
	"context"
	"errors"
	"fmt"
)

// RangeSize is the identity stride per collection: items of collection c
// occupy ids [c*RangeSize, (c+1)*RangeSize).
const RangeSize = 1_000_000

var (
	ErrItemMissingAddress  = errors.New("predicate missing asset address")
	ErrNoAmount            = errors.New("predicate amount must be positive")
	ErrInvalidCollectionID = errors.New("collection id outside asset range")
)

// Predicate asserts required bundle contents: either a specific item id, or
// (with AnyIDAllowed) a minimum owned count anywhere inside the collection's
// id range.
type Predicate struct {
	AssetAddress string `json:"asset_address"`
	CollectionID uint64 `json:"collection_id"`
	ItemID       uint64 `json:"item_id"`
	Amount       int64  `json:"amount"`
	AnyIDAllowed bool   `json:"any_id_allowed"`
}

// Holdings is the view of what a bundle actually owns per asset contract.
type Holdings interface {
	// OwnsItem reports the owned count of one exact item id.
	OwnsItem(ctx context.Context, asset string, itemID uint64) (int64, error)
	// CountInRange reports the total owned count of items with
	// lo <= id < hi.
	CountInRange(ctx context.Context, asset string, lo, hi uint64) (int64, error)
	// CollectionCount reports how many collections the asset contract has
	// issued; valid collection ids are [0, count).
	CollectionCount(ctx context.Context, asset string) (uint64, error)
}

// Verify evaluates every predicate against the bundle's holdings and returns
// true only if all of them hold. Input errors (missing address, zero amount,
// unknown collection) surface as errors, never as a false result.
func Verify(ctx context.Context, h Holdings, preds []Predicate) (bool, error) {
	for i, p := range preds {
		ok, err := verifyOne(ctx, h, p)
		if err != nil {
			return false, fmt.Errorf("predicate %d: %w", i, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func verifyOne(ctx context.Context, h Holdings, p Predicate) (bool, error) {
	if p.AssetAddress == "" {
		return false, ErrItemMissingAddress
	}
	if p.Amount <= 0 {
		return false, ErrNoAmount
	}
	collections, err := h.CollectionCount(ctx, p.AssetAddress)
	if err != nil {
		return false, err
	}
	if p.CollectionID >= collections {
		return false, fmt.Errorf("collection %d of %d: %w", p.CollectionID, collections, ErrInvalidCollectionID)
	}

	if p.AnyIDAllowed {
		lo := p.CollectionID * RangeSize
		owned, err := h.CountInRange(ctx, p.AssetAddress, lo, lo+RangeSize)
		if err != nil {
			return false, err
		}
		return owned >= p.Amount, nil
	}

	owned, err := h.OwnsItem(ctx, p.AssetAddress, p.ItemID)
	if err != nil {
		return false, err
	}
	return owned >= p.Amount, nil
}
