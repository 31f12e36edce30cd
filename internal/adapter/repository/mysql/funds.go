package mysql

import (
	"context"
	"errors"
	"fmt"

	fundsDomain "loanledger/internal/domain/funds"

	"gorm.io/gorm"
)

type FundsRepository struct{ db *gorm.DB }

func NewFundsRepository(db *gorm.DB) *FundsRepository { return &FundsRepository{db: db} }

func (r *FundsRepository) Get(ctx context.Context, currency, holder string) (*fundsDomain.Account, error) {
	var out fundsDomain.Account
	err := r.db.WithContext(ctx).
		Where("currency = ? AND holder = ?", currency, holder).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fundsDomain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *FundsRepository) Debit(ctx context.Context, currency, holder string, amount int64) error {
	a, err := r.Get(ctx, currency, holder)
	if err != nil {
		return err
	}
	if a.Balance < amount {
		return fmt.Errorf("%s has %d %s, needs %d: %w", holder, a.Balance, currency, amount, fundsDomain.ErrInsufficientFunds)
	}
	a.Balance -= amount
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *FundsRepository) Credit(ctx context.Context, currency, holder string, amount int64) error {
	a, err := r.Get(ctx, currency, holder)
	if errors.Is(err, fundsDomain.ErrAccountNotFound) {
		return r.db.WithContext(ctx).Create(&fundsDomain.Account{
			Currency: currency, Holder: holder, Balance: amount,
		}).Error
	}
	if err != nil {
		return err
	}
	if a.Blocked {
		return fmt.Errorf("%s/%s: %w", currency, holder, fundsDomain.ErrAccountBlocked)
	}
	a.Balance += amount
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *FundsRepository) SetBlocked(ctx context.Context, currency, holder string, blocked bool) error {
	a, err := r.Get(ctx, currency, holder)
	if errors.Is(err, fundsDomain.ErrAccountNotFound) {
		return r.db.WithContext(ctx).Create(&fundsDomain.Account{
			Currency: currency, Holder: holder, Blocked: blocked,
		}).Error
	}
	if err != nil {
		return err
	}
	a.Blocked = blocked
	return r.db.WithContext(ctx).Save(a).Error
}
