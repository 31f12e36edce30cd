package http

import (
	"context"
	"net/http"

	"loanledger/internal/verifier"

	"github.com/labstack/echo/v4"
)

type VerifyHandler struct{}

func NewVerifyHandler() *VerifyHandler { return &VerifyHandler{} }

type holdingItem struct {
	Asset  string `json:"asset"`
	ItemID uint64 `json:"item_id"`
	Count  int64  `json:"count"`
}

type verifyReq struct {
	BundleID string `json:"bundle_id" validate:"required"`
	// Snapshot of what the bundle owns, attested by the caller's indexer.
	Holdings []holdingItem `json:"holdings"`
	// Collections issued per asset contract; bounds collection ids.
	Collections map[string]uint64    `json:"collections"`
	Predicates  []verifier.Predicate `json:"predicates" validate:"required,min=1"`
}

// snapshotHoldings answers verifier queries from the request-supplied
// ownership snapshot.
type snapshotHoldings struct {
	items       []holdingItem
	collections map[string]uint64
}

func (s *snapshotHoldings) OwnsItem(_ context.Context, asset string, itemID uint64) (int64, error) {
	var total int64
	for _, it := range s.items {
		if it.Asset == asset && it.ItemID == itemID {
			total += it.Count
		}
	}
	return total, nil
}

func (s *snapshotHoldings) CountInRange(_ context.Context, asset string, lo, hi uint64) (int64, error) {
	var total int64
	for _, it := range s.items {
		if it.Asset == asset && it.ItemID >= lo && it.ItemID < hi {
			total += it.Count
		}
	}
	return total, nil
}

func (s *snapshotHoldings) CollectionCount(_ context.Context, asset string) (uint64, error) {
	return s.collections[asset], nil
}

func (h *VerifyHandler) Verify(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	holdings := &snapshotHoldings{items: req.Holdings, collections: req.Collections}
	ok, err := verifier.Verify(c.Request().Context(), holdings, req.Predicates)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"bundle_id": req.BundleID, "verified": ok})
}
