package mysql

import (
	"context"
	"errors"
	"testing"

	"loanledger/internal/domain/funds"
	loanDomain "loanledger/internal/domain/loan"
	positionDomain "loanledger/internal/domain/position"
	"loanledger/internal/domain/uow"

	"gorm.io/gorm"
)

func TestGormUoW_WithinTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	loanRepo := NewLoanRepository(db)
	fundsRepo := NewFundsRepository(db)

	var loanID uint64
	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		// Originate: loan row, lender position, principal movement.
		l := makeLoan("acct-b", "acct-l")
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		if l.ID == 0 {
			t.Fatalf("loan auto ID not set")
		}
		loanID = l.ID
		if err := r.Positions.Create(ctx, &positionDomain.Position{LoanID: l.ID, Side: positionDomain.SideLender, Holder: "acct-l"}); err != nil {
			return err
		}
		return r.Funds.Credit(ctx, "USD", "acct-b", l.Principal)
	})
	if err != nil {
		t.Fatalf("WithinTx commit err: %v", err)
	}

	// Verify post-commit visibility
	if _, err := loanRepo.GetByID(ctx, loanID); err != nil {
		t.Fatalf("loan not visible after commit: %v", err)
	}
	a, err := fundsRepo.Get(ctx, "USD", "acct-b")
	if err != nil || a.Balance != 1_000_000 {
		t.Fatalf("funds not visible after commit: %+v err %v", a, err)
	}
}

func TestGormUoW_WithinTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	loanRepo := NewLoanRepository(db)
	fundsRepo := NewFundsRepository(db)

	sentinel := errors.New("boom")

	var loanID uint64
	_ = guow.WithinTx(ctx, func(r uow.Repos) error {
		l := makeLoan("acct-b", "acct-l")
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		loanID = l.ID
		if err := r.Funds.Credit(ctx, "USD", "acct-b", l.Principal); err != nil {
			return err
		}
		return sentinel // force rollback
	})

	// None should exist after rollback
	if _, err := loanRepo.GetByID(ctx, loanID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected loan not found after rollback, got %v", err)
	}
	if _, err := fundsRepo.Get(ctx, "USD", "acct-b"); !errors.Is(err, funds.ErrAccountNotFound) {
		t.Fatalf("expected account absent after rollback, got %v", err)
	}
}

func TestGormUoW_WithinLoanTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	loanRepo := NewLoanRepository(db)

	seed := makeLoan("acct-b", "acct-l")
	if err := loanRepo.Create(ctx, seed); err != nil {
		t.Fatalf("seed loan: %v", err)
	}

	// WithinLoanTx fetches the locked row and hands it to fn.
	if err := guow.WithinLoanTx(ctx, seed.ID, func(r uow.Repos, l *loanDomain.Loan) error {
		if l == nil || l.ID != seed.ID || l.State != loanDomain.StateActive {
			t.Fatalf("unexpected loan passed to fn: %+v", l)
		}

		// Settle it and escrow the payout.
		l.State = loanDomain.StateRepaid
		l.Balance = 0
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		return r.Loans.CreateReceipt(ctx, &loanDomain.NoteReceipt{
			LoanID: l.ID, ReceiptID: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Currency: "USD", Amount: 106,
		})
	}); err != nil {
		t.Fatalf("WithinLoanTx commit err: %v", err)
	}

	got, err := loanRepo.GetByID(ctx, seed.ID)
	if err != nil {
		t.Fatalf("GetByID post-commit: %v", err)
	}
	if got.State != loanDomain.StateRepaid {
		t.Fatalf("loan state not updated, got=%s", got.State)
	}
	if _, err := loanRepo.GetReceipt(ctx, seed.ID); err != nil {
		t.Fatalf("receipt not visible after commit: %v", err)
	}
}

func TestGormUoW_WithinLoanTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	loanRepo := NewLoanRepository(db)

	seed := makeLoan("acct-b", "acct-l")
	if err := loanRepo.Create(ctx, seed); err != nil {
		t.Fatalf("seed loan: %v", err)
	}

	sentinel := errors.New("stop")

	_ = guow.WithinLoanTx(ctx, seed.ID, func(r uow.Repos, l *loanDomain.Loan) error {
		l.State = loanDomain.StateClaimed
		l.Balance = 0
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		if err := r.Funds.Credit(ctx, "USD", "acct-l", 500); err != nil {
			return err
		}
		return sentinel // force rollback
	})

	// After rollback: state unchanged, no account created
	got, err := loanRepo.GetByID(ctx, seed.ID)
	if err != nil {
		t.Fatalf("post-rollback GetByID: %v", err)
	}
	if got.State != loanDomain.StateActive || got.Balance != seed.Principal {
		t.Fatalf("expected untouched loan after rollback, got %+v", got)
	}
	if _, err := NewFundsRepository(db).Get(ctx, "USD", "acct-l"); !errors.Is(err, funds.ErrAccountNotFound) {
		t.Fatalf("expected account absent after rollback, got %v", err)
	}
}

func TestGormUoW_WithinLoanTx_LoanNotFound(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)

	err := guow.WithinLoanTx(ctx, 404, func(r uow.Repos, l *loanDomain.Loan) error {
		t.Fatalf("callback should not be called when loan missing")
		return nil
	})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound when loan missing, got %v", err)
	}
}
