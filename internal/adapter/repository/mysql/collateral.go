package mysql

import (
	"context"
	"errors"

	collateralDomain "loanledger/internal/domain/collateral"

	"gorm.io/gorm"
)

type CustodyRepository struct{ db *gorm.DB }

func NewCustodyRepository(db *gorm.DB) *CustodyRepository { return &CustodyRepository{db: db} }

func (r *CustodyRepository) OwnerOf(ctx context.Context, bundleID string) (string, error) {
	var b collateralDomain.Bundle
	err := r.db.WithContext(ctx).Where("bundle_id = ?", bundleID).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", collateralDomain.ErrBundleNotFound
	}
	if err != nil {
		return "", err
	}
	return b.Owner, nil
}

func (r *CustodyRepository) Transfer(ctx context.Context, bundleID, to string) error {
	var b collateralDomain.Bundle
	err := r.db.WithContext(ctx).Where("bundle_id = ?", bundleID).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return collateralDomain.ErrBundleNotFound
	}
	if err != nil {
		return err
	}
	b.Owner = to
	return r.db.WithContext(ctx).Save(&b).Error
}

func (r *CustodyRepository) Register(ctx context.Context, b *collateralDomain.Bundle) error {
	return r.db.WithContext(ctx).Create(b).Error
}
