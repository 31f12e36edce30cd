package http

import (
	"net/http"

	"loanledger/internal/usecase/settlement"

	"github.com/labstack/echo/v4"
)

type FeeHandler struct{ uc *settlement.Usecase }

func NewFeeHandler(uc *settlement.Usecase) *FeeHandler { return &FeeHandler{uc: uc} }

func (h *FeeHandler) Withdrawable(c echo.Context) error {
	currency := c.QueryParam("currency")
	holder := c.QueryParam("holder")
	if currency == "" || holder == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "currency and holder are required"})
	}
	amount, err := h.uc.FeesWithdrawable(c.Request().Context(), currency, holder)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"currency": currency, "holder": holder, "amount": amount})
}

type withdrawReq struct {
	Currency string `json:"currency" validate:"required,currency"`
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	To       string `json:"to" validate:"required,account"`
}

func (h *FeeHandler) Withdraw(c echo.Context) error {
	var req withdrawReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	if err := h.uc.Withdraw(c.Request().Context(), req.Currency, caller(c), req.Amount, req.To); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"currency": req.Currency, "amount": req.Amount, "to": req.To})
}

type affiliateReq struct {
	Code      string `json:"code" validate:"required"`
	Recipient string `json:"recipient" validate:"required,account"`
	SplitBps  int64  `json:"split_bps" validate:"gte=0,lte=5000"`
}

func (h *FeeHandler) SetAffiliateSplit(c echo.Context) error {
	var req affiliateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	if err := h.uc.SetAffiliateSplit(c.Request().Context(), req.Code, req.Recipient, req.SplitBps); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"code": req.Code, "recipient": req.Recipient, "split_bps": req.SplitBps})
}
