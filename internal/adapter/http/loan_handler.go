package http

import (
	"net/http"
	"strconv"
	"time"

	"loanledger/internal/usecase/settlement"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *settlement.Usecase }

func NewLoanHandler(uc *settlement.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type createLoanReq struct {
	Principal       int64  `json:"principal" validate:"required,gt=0"`
	InterestRateBps int64  `json:"interest_rate_bps" validate:"gte=0,lte=10000"`
	DurationSecs    int64  `json:"duration_secs" validate:"required,gt=0"`
	CollateralID    string `json:"collateral_id" validate:"required"`
	PayableCurrency string `json:"payable_currency" validate:"required,currency"`
	Deadline        string `json:"deadline"`
	AffiliateCode   string `json:"affiliate_code"`
	Borrower        string `json:"borrower" validate:"required,account"`
	Lender          string `json:"lender" validate:"required,account"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	var deadline time.Time
	if req.Deadline != "" {
		t, err := time.Parse(time.RFC3339, req.Deadline)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "deadline must be RFC3339"})
		}
		deadline = t.UTC()
	}
	dto, err := h.uc.CreateLoan(c.Request().Context(), settlement.CreateLoanInput{
		Principal:       req.Principal,
		InterestRateBps: req.InterestRateBps,
		DurationSecs:    req.DurationSecs,
		CollateralID:    req.CollateralID,
		PayableCurrency: req.PayableCurrency,
		Deadline:        deadline,
		AffiliateCode:   req.AffiliateCode,
		Borrower:        req.Borrower,
		Lender:          req.Lender,
	})
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func loanIDParam(c echo.Context) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param("loan_id"), 10, 64)
	return n, err == nil && n > 0
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	loanID, ok := loanIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid loan id"})
	}
	dto, err := h.uc.GetLoan(c.Request().Context(), loanID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) GetReceipt(c echo.Context) error {
	loanID, ok := loanIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid loan id"})
	}
	dto, err := h.uc.NoteReceipt(c.Request().Context(), loanID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) EffectiveRate(c echo.Context) error {
	loanID, ok := loanIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid loan id"})
	}
	bps, err := h.uc.CloseEffectiveRate(c.Request().Context(), loanID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loan_id": loanID, "effective_rate_bps": bps})
}

// ProratedInterest quotes interest for arbitrary inputs without touching any
// loan, so payers can compute an exact payoff amount up-front.
func (h *LoanHandler) ProratedInterest(c echo.Context) error {
	q := func(name string) (int64, error) {
		return strconv.ParseInt(c.QueryParam(name), 10, 64)
	}
	balance, err1 := q("balance")
	rateBps, err2 := q("rate_bps")
	durationSecs, err3 := q("duration_secs")
	lastAccrual, err4 := q("last_accrual")
	now, err5 := q("now")
	for _, err := range []error{err1, err2, err3, err4, err5} {
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "balance, rate_bps, duration_secs, last_accrual and now must be integers"})
		}
	}
	amount, err := h.uc.ProratedInterest(balance, rateBps, durationSecs, lastAccrual, now)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"interest": amount})
}
