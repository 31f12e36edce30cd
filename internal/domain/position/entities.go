package position

import (
	"errors"
	"time"
)

type Side string

const (
	SideBorrower Side = "borrower"
	SideLender   Side = "lender"
)

var (
	ErrNotFound        = errors.New("position not found")
	ErrNotTransferable = errors.New("position side is not transferable")
)

// Position is a claim token bound to one side of one loan. The lender side
// is transferable (a note sale); the borrower side is not. Both are burned
// when the loan resolves.
type Position struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"-"`
	LoanID    uint64    `gorm:"column:loan_id;not null;uniqueIndex:ux_positions_loan_side" json:"loan_id"`
	Side      Side      `gorm:"column:side;type:enum('borrower','lender');not null;uniqueIndex:ux_positions_loan_side" json:"side"`
	Holder    string    `gorm:"column:holder;size:64;not null" json:"holder"`
	Burned    bool      `gorm:"column:burned;not null;default:false" json:"burned"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (Position) TableName() string { return "loan_positions" }
