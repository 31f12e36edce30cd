package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByID(ctx context.Context, loanID uint64) (*Loan, error)
	// GetByIDForUpdate takes a row lock; call it only inside a transaction.
	GetByIDForUpdate(ctx context.Context, loanID uint64) (*Loan, error)
	Save(ctx context.Context, l *Loan) error

	// Note receipts (at most one per loan).
	GetReceipt(ctx context.Context, loanID uint64) (*NoteReceipt, error)
	CreateReceipt(ctx context.Context, r *NoteReceipt) error
	DeleteReceipt(ctx context.Context, loanID uint64) error
}
