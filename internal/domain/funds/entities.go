package funds

import (
	"errors"
	"time"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountBlocked    = errors.New("account cannot accept funds")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Account is a per-currency balance for one holder. Blocked marks a holder
// that cannot accept credits; a push into a blocked account fails, which is
// the condition forceRepay exists to route around.
type Account struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"-"`
	Currency  string    `gorm:"column:currency;size:16;not null;uniqueIndex:ux_accounts_currency_holder" json:"currency"`
	Holder    string    `gorm:"column:holder;size:64;not null;uniqueIndex:ux_accounts_currency_holder" json:"holder"`
	Balance   int64     `gorm:"column:balance;not null;default:0" json:"balance"`
	Blocked   bool      `gorm:"column:blocked;not null;default:false" json:"blocked"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (Account) TableName() string { return "accounts" }
