package http

import (
	"errors"
	"net/http"
	"strings"

	"loanledger/internal/domain/collateral"
	"loanledger/internal/domain/fee"
	"loanledger/internal/domain/funds"
	"loanledger/internal/domain/loan"
	"loanledger/internal/domain/position"
	"loanledger/internal/verifier"

	"github.com/labstack/echo/v4"
)

// statusFor maps domain sentinels onto HTTP codes. Anything unrecognized is
// a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, loan.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, loan.ErrInvalidRepayment),
		errors.Is(err, funds.ErrInsufficientFunds),
		errors.Is(err, funds.ErrAccountNotFound),
		errors.Is(err, fee.ErrInsufficientWithdrawable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, loan.ErrOnlyLender):
		return http.StatusForbidden
	case errors.Is(err, loan.ErrInvalidState),
		errors.Is(err, loan.ErrNotExpired),
		errors.Is(err, loan.ErrAwaitingWithdrawal),
		errors.Is(err, loan.ErrNoReceipt),
		errors.Is(err, funds.ErrAccountBlocked),
		errors.Is(err, position.ErrNotFound),
		errors.Is(err, position.ErrNotTransferable):
		return http.StatusConflict
	case errors.Is(err, loan.ErrZeroAddress),
		errors.Is(err, loan.ErrDeadlinePassed),
		errors.Is(err, fee.ErrSplitTooLarge),
		errors.Is(err, collateral.ErrBundleNotFound),
		errors.Is(err, verifier.ErrItemMissingAddress),
		errors.Is(err, verifier.ErrNoAmount),
		errors.Is(err, verifier.ErrInvalidCollectionID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func jsonError(c echo.Context, err error) error {
	return c.JSON(statusFor(err), map[string]string{"error": err.Error()})
}

// caller pulls the authenticated account identity the gateway injects.
func caller(c echo.Context) string {
	return strings.TrimSpace(c.Request().Header.Get("Ax-Account-Id"))
}
