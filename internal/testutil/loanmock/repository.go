package loanmock

import (
	"context"

	domain "loanledger/internal/domain/loan"
)

// Repo is a function-backed mock that satisfies domain.Repository.
// Fill in only the fields a test needs; unfilled getters fail loudly.
type Repo struct {
	CreateFn           func(ctx context.Context, l *domain.Loan) error
	GetByIDFn          func(ctx context.Context, loanID uint64) (*domain.Loan, error)
	GetByIDForUpdateFn func(ctx context.Context, loanID uint64) (*domain.Loan, error)
	SaveFn             func(ctx context.Context, l *domain.Loan) error
	GetReceiptFn       func(ctx context.Context, loanID uint64) (*domain.NoteReceipt, error)
	CreateReceiptFn    func(ctx context.Context, r *domain.NoteReceipt) error
	DeleteReceiptFn    func(ctx context.Context, loanID uint64) error
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, loanID uint64) (*domain.Loan, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, loanID uint64) (*domain.Loan, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetReceipt(ctx context.Context, loanID uint64) (*domain.NoteReceipt, error) {
	if m.GetReceiptFn != nil {
		return m.GetReceiptFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) CreateReceipt(ctx context.Context, r *domain.NoteReceipt) error {
	if m.CreateReceiptFn != nil {
		return m.CreateReceiptFn(ctx, r)
	}
	return nil
}

func (m *Repo) DeleteReceipt(ctx context.Context, loanID uint64) error {
	if m.DeleteReceiptFn != nil {
		return m.DeleteReceiptFn(ctx, loanID)
	}
	return nil
}
