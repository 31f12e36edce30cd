package mysql

import (
	"context"
	"errors"
	"fmt"

	feeDomain "loanledger/internal/domain/fee"

	"gorm.io/gorm"
)

type FeeRepository struct{ db *gorm.DB }

func NewFeeRepository(db *gorm.DB) *FeeRepository { return &FeeRepository{db: db} }

func (r *FeeRepository) Credit(ctx context.Context, currency, beneficiary string, amount int64) error {
	var e feeDomain.Entry
	err := r.db.WithContext(ctx).
		Where("currency = ? AND beneficiary = ?", currency, beneficiary).
		First(&e).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.db.WithContext(ctx).Create(&feeDomain.Entry{
			Currency: currency, Beneficiary: beneficiary, Amount: amount,
		}).Error
	case err != nil:
		return err
	}
	e.Amount += amount
	return r.db.WithContext(ctx).Save(&e).Error
}

func (r *FeeRepository) Debit(ctx context.Context, currency, beneficiary string, amount int64) error {
	var e feeDomain.Entry
	err := r.db.WithContext(ctx).
		Where("currency = ? AND beneficiary = ?", currency, beneficiary).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return feeDomain.ErrInsufficientWithdrawable
	}
	if err != nil {
		return err
	}
	if e.Amount < amount {
		return fmt.Errorf("have %d, want %d: %w", e.Amount, amount, feeDomain.ErrInsufficientWithdrawable)
	}
	e.Amount -= amount
	return r.db.WithContext(ctx).Save(&e).Error
}

func (r *FeeRepository) Withdrawable(ctx context.Context, currency, beneficiary string) (int64, error) {
	var e feeDomain.Entry
	err := r.db.WithContext(ctx).
		Where("currency = ? AND beneficiary = ?", currency, beneficiary).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return e.Amount, nil
}

func (r *FeeRepository) GetSplit(ctx context.Context, code string) (*feeDomain.AffiliateSplit, error) {
	var out feeDomain.AffiliateSplit
	res := r.db.WithContext(ctx).Where("code = ?", code).First(&out)
	return &out, res.Error
}

func (r *FeeRepository) UpsertSplit(ctx context.Context, s *feeDomain.AffiliateSplit) error {
	var existing feeDomain.AffiliateSplit
	err := r.db.WithContext(ctx).Where("code = ?", s.Code).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.db.WithContext(ctx).Create(s).Error
	case err != nil:
		return err
	}
	existing.Recipient = s.Recipient
	existing.SplitBps = s.SplitBps
	return r.db.WithContext(ctx).Save(&existing).Error
}
