package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"loanledger/internal/domain/collateral"
	"loanledger/internal/domain/uow"
	"loanledger/internal/usecase/settlement"

	"github.com/labstack/echo/v4"
)

func TestCreateLoan_Success(t *testing.T) {
	e := newEchoWithValidator()
	f := newFixture()
	h := NewLoanHandler(f.uc)

	f.store.Do(func(r uow.Repos) {
		ctx := context.Background()
		r.Bundles.Register(ctx, &collateral.Bundle{BundleID: "bundle-1", Owner: "acct-borrower"})
		r.Funds.Credit(ctx, "USD", "acct-lender", 1_000)
	})

	reqBody := map[string]any{
		"principal":         500,
		"interest_rate_bps": 1000,
		"duration_secs":     yearSecs,
		"collateral_id":     "bundle-1",
		"payable_currency":  "USD",
		"borrower":          "acct-borrower",
		"lender":            "acct-lender",
	}
	rec, err := doJSON(e, h.CreateLoan, stdhttp.MethodPost, "/loans", mustJSON(reqBody), nil)
	if err != nil {
		t.Fatalf("CreateLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var dto settlement.LoanDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if dto.LoanID == 0 || dto.State != "active" || dto.Balance != 500 {
		t.Fatalf("unexpected dto: %+v", dto)
	}
}

func TestCreateLoan_BindError(t *testing.T) {
	e := newEchoWithValidator()
	h := NewLoanHandler(newFixture().uc)

	req := httptest.NewRequest(stdhttp.MethodPost, "/loans", strings.NewReader(`{"principal":`)) // broken JSON
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateLoan(c); err != nil {
		t.Fatalf("CreateLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var er ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &er)
	if er.Error != "invalid body" {
		t.Fatalf("error = %q, want %q", er.Error, "invalid body")
	}
}

func TestCreateLoan_ValidationError(t *testing.T) {
	e := newEchoWithValidator()
	h := NewLoanHandler(newFixture().uc) // won't be called

	// invalid: principal missing, borrower uppercase, currency lowercase
	reqBody := map[string]any{
		"interest_rate_bps": 1000,
		"duration_secs":     yearSecs,
		"collateral_id":     "bundle-1",
		"payable_currency":  "usd",
		"borrower":          "ACCT-B",
		"lender":            "acct-lender",
	}
	rec, err := doJSON(e, h.CreateLoan, stdhttp.MethodPost, "/loans", mustJSON(reqBody), nil)
	if err != nil {
		t.Fatalf("CreateLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if er.Error != "validation failed" {
		t.Fatalf("error = %q, want %q", er.Error, "validation failed")
	}
	if !containsFieldMsg(er.Details, "Principal", "is required") {
		t.Fatalf("missing required detail for principal: %+v", er.Details)
	}
	if !containsFieldMsg(er.Details, "Borrower", "valid account id") {
		t.Fatalf("missing account detail for borrower: %+v", er.Details)
	}
	if !containsFieldMsg(er.Details, "PayableCurrency", "currency code") {
		t.Fatalf("missing currency detail: %+v", er.Details)
	}
}

func TestCreateLoan_BadDeadline(t *testing.T) {
	e := newEchoWithValidator()
	h := NewLoanHandler(newFixture().uc)

	reqBody := map[string]any{
		"principal":         500,
		"interest_rate_bps": 1000,
		"duration_secs":     yearSecs,
		"collateral_id":     "bundle-1",
		"payable_currency":  "USD",
		"borrower":          "acct-borrower",
		"lender":            "acct-lender",
		"deadline":          "tomorrow-ish",
	}
	rec, err := doJSON(e, h.CreateLoan, stdhttp.MethodPost, "/loans", mustJSON(reqBody), nil)
	if err != nil {
		t.Fatalf("CreateLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetLoan_Success(t *testing.T) {
	e := echo.New()
	f := newFixture()
	loanID := f.seedActiveLoan(t, 0)
	h := NewLoanHandler(f.uc)

	rec, err := doJSON(e, h.GetLoan, stdhttp.MethodGet, "/loans/1", nil, func(c echo.Context) {
		c.SetParamNames("loan_id")
		c.SetParamValues("1")
	})
	if err != nil {
		t.Fatalf("GetLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var dto settlement.LoanDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if dto.LoanID != loanID || dto.Principal != 100 {
		t.Fatalf("unexpected dto: %+v", dto)
	}
}

func TestGetLoan_NotFound(t *testing.T) {
	e := echo.New()
	h := NewLoanHandler(newFixture().uc)

	rec, err := doJSON(e, h.GetLoan, stdhttp.MethodGet, "/loans/99", nil, func(c echo.Context) {
		c.SetParamNames("loan_id")
		c.SetParamValues("99")
	})
	if err != nil {
		t.Fatalf("GetLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetLoan_BadID(t *testing.T) {
	e := echo.New()
	h := NewLoanHandler(newFixture().uc)

	for _, bad := range []string{"abc", "0", "-1"} {
		rec, err := doJSON(e, h.GetLoan, stdhttp.MethodGet, "/loans/"+bad, nil, func(c echo.Context) {
			c.SetParamNames("loan_id")
			c.SetParamValues(bad)
		})
		if err != nil {
			t.Fatalf("GetLoan error: %v", err)
		}
		if rec.Code != stdhttp.StatusBadRequest {
			t.Fatalf("id %q: status = %d, want 400", bad, rec.Code)
		}
	}
}

func TestGetReceipt_None(t *testing.T) {
	e := echo.New()
	f := newFixture()
	f.seedActiveLoan(t, 0)
	h := NewLoanHandler(f.uc)

	rec, err := doJSON(e, h.GetReceipt, stdhttp.MethodGet, "/loans/1/receipt", nil, func(c echo.Context) {
		c.SetParamNames("loan_id")
		c.SetParamValues("1")
	})
	if err != nil {
		t.Fatalf("GetReceipt error: %v", err)
	}
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestProratedInterestQuote(t *testing.T) {
	e := echo.New()
	h := NewLoanHandler(newFixture().uc)

	q := "/interest?balance=100&rate_bps=1000&duration_secs=31536000&last_accrual=0&now=31536000"
	rec, err := doJSON(e, h.ProratedInterest, stdhttp.MethodGet, q, nil, nil)
	if err != nil {
		t.Fatalf("ProratedInterest error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var m map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if m["interest"] != 10 {
		t.Fatalf("interest = %d, want 10", m["interest"])
	}

	// Missing or non-integer params are rejected up-front.
	rec, err = doJSON(e, h.ProratedInterest, stdhttp.MethodGet, "/interest?balance=ten", nil, nil)
	if err != nil {
		t.Fatalf("ProratedInterest error: %v", err)
	}
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestEffectiveRate_ActiveLoanConflict(t *testing.T) {
	e := echo.New()
	f := newFixture()
	f.seedActiveLoan(t, 0)
	h := NewLoanHandler(f.uc)

	rec, err := doJSON(e, h.EffectiveRate, stdhttp.MethodGet, "/loans/1/effective-rate", nil, func(c echo.Context) {
		c.SetParamNames("loan_id")
		c.SetParamValues("1")
	})
	if err != nil {
		t.Fatalf("EffectiveRate error: %v", err)
	}
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}
