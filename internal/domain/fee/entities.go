package fee

import (
	"errors"
	"time"
)

// Fee kinds assessed on repayment legs. Rates are looked up on the Schedule
// at settlement time, never frozen onto the loan at origination.
const (
	KindLenderInterest  = "lender_interest"
	KindLenderPrincipal = "lender_principal"
)

// MaxAffiliateSplitBps caps how much of an assessed fee may be routed to an
// affiliate recipient.
const MaxAffiliateSplitBps = 5_000

var (
	ErrInsufficientWithdrawable = errors.New("withdrawal exceeds accrued fees")
	ErrSplitTooLarge            = errors.New("affiliate split above cap")
	ErrRateAboveCap             = errors.New("fee rate above cap")
)

// Schedule is the external fee-rate source. Rates move independently of open
// loans; callers must read fresh on every assessment.
type Schedule interface {
	Rate(kind string) int64
	MaxRate(kind string) int64
}

// Entry is the withdrawable fee balance accrued for one beneficiary in one
// currency. Credited by settlement, debited only by an explicit withdrawal.
type Entry struct {
	ID          uint64    `gorm:"primaryKey;column:id" json:"-"`
	Currency    string    `gorm:"column:currency;size:16;not null;uniqueIndex:ux_fees_currency_beneficiary" json:"currency"`
	Beneficiary string    `gorm:"column:beneficiary;size:64;not null;uniqueIndex:ux_fees_currency_beneficiary" json:"beneficiary"`
	Amount      int64     `gorm:"column:amount;not null;default:0" json:"amount"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (Entry) TableName() string { return "fee_entries" }

// AffiliateSplit routes a share of assessed fees to a third party registered
// under an opaque code carried by the loan.
type AffiliateSplit struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"-"`
	Code      string    `gorm:"column:code;size:32;not null;uniqueIndex:ux_affiliate_code" json:"code"`
	Recipient string    `gorm:"column:recipient;size:64;not null" json:"recipient"`
	SplitBps  int64     `gorm:"column:split_bps;not null" json:"split_bps"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (AffiliateSplit) TableName() string { return "affiliate_splits" }
