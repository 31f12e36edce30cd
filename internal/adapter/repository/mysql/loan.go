package mysql

import (
	"context"

	loanDomain "loanledger/internal/domain/loan"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByID(ctx context.Context, loanID uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("id = ?", loanID).First(&out)
	return &out, res.Error
}

// GetByIDForUpdate locks the loan row for the rest of the transaction so
// concurrent settlement calls on the same loan serialize.
func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, loanID uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", loanID).
		First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetReceipt(ctx context.Context, loanID uint64) (*loanDomain.NoteReceipt, error) {
	var out loanDomain.NoteReceipt
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	return &out, res.Error
}

func (r *LoanRepository) CreateReceipt(ctx context.Context, rc *loanDomain.NoteReceipt) error {
	return r.db.WithContext(ctx).Create(rc).Error
}

func (r *LoanRepository) DeleteReceipt(ctx context.Context, loanID uint64) error {
	return r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Delete(&loanDomain.NoteReceipt{}).Error
}
