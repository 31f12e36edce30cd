package mysql

import (
	"context"
	"errors"

	positionDomain "loanledger/internal/domain/position"

	"gorm.io/gorm"
)

type PositionRepository struct{ db *gorm.DB }

func NewPositionRepository(db *gorm.DB) *PositionRepository { return &PositionRepository{db: db} }

func (r *PositionRepository) Create(ctx context.Context, p *positionDomain.Position) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PositionRepository) get(ctx context.Context, loanID uint64, side positionDomain.Side) (*positionDomain.Position, error) {
	var out positionDomain.Position
	err := r.db.WithContext(ctx).
		Where("loan_id = ? AND side = ?", loanID, side).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, positionDomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PositionRepository) Holder(ctx context.Context, loanID uint64, side positionDomain.Side) (string, error) {
	p, err := r.get(ctx, loanID, side)
	if err != nil {
		return "", err
	}
	if p.Burned {
		return "", positionDomain.ErrNotFound
	}
	return p.Holder, nil
}

func (r *PositionRepository) Transfer(ctx context.Context, loanID uint64, side positionDomain.Side, to string) error {
	if side != positionDomain.SideLender {
		return positionDomain.ErrNotTransferable
	}
	p, err := r.get(ctx, loanID, side)
	if err != nil {
		return err
	}
	if p.Burned {
		return positionDomain.ErrNotFound
	}
	p.Holder = to
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *PositionRepository) Burn(ctx context.Context, loanID uint64, side positionDomain.Side) error {
	p, err := r.get(ctx, loanID, side)
	if err != nil {
		return err
	}
	p.Burned = true
	return r.db.WithContext(ctx).Save(p).Error
}
