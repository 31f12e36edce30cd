package http

import (
	"net/http"

	"loanledger/internal/usecase/settlement"

	"github.com/labstack/echo/v4"
)

type SettlementHandler struct{ uc *settlement.Usecase }

func NewSettlementHandler(uc *settlement.Usecase) *SettlementHandler {
	return &SettlementHandler{uc: uc}
}

type repayReq struct {
	Payer  string `json:"payer" validate:"required,account"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
}

func (h *SettlementHandler) bindRepay(c echo.Context) (uint64, *repayReq, error) {
	loanID, ok := loanIDParam(c)
	if !ok {
		return 0, nil, c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid loan id"})
	}
	var req repayReq
	if err := c.Bind(&req); err != nil {
		return 0, nil, c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return 0, nil, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	return loanID, &req, nil
}

func (h *SettlementHandler) Repay(c echo.Context) error {
	loanID, req, done := h.bindRepay(c)
	if req == nil {
		return done
	}
	dto, err := h.uc.Repay(c.Request().Context(), loanID, req.Payer, req.Amount)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *SettlementHandler) ForceRepay(c echo.Context) error {
	loanID, req, done := h.bindRepay(c)
	if req == nil {
		return done
	}
	dto, err := h.uc.ForceRepay(c.Request().Context(), loanID, req.Payer, req.Amount)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type redeemReq struct {
	To string `json:"to" validate:"required,account"`
}

func (h *SettlementHandler) RedeemNote(c echo.Context) error {
	loanID, ok := loanIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid loan id"})
	}
	var req redeemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	dto, err := h.uc.RedeemNote(c.Request().Context(), loanID, caller(c), req.To)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *SettlementHandler) Claim(c echo.Context) error {
	loanID, ok := loanIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid loan id"})
	}
	dto, err := h.uc.Claim(c.Request().Context(), loanID, caller(c))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type transferNoteReq struct {
	To string `json:"to" validate:"required,account"`
}

func (h *SettlementHandler) TransferNote(c echo.Context) error {
	loanID, ok := loanIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid loan id"})
	}
	var req transferNoteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	if err := h.uc.TransferNote(c.Request().Context(), loanID, caller(c), req.To); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loan_id": loanID, "holder": req.To})
}
