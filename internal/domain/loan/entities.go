package loan

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// BasisPointsDenominator is the rate denominator used for interest, fee and
// affiliate-split math across the ledger.
const BasisPointsDenominator = 10_000

type State string

const (
	StateActive  State = "active"
	StateRepaid  State = "repaid"
	StateClaimed State = "claimed"
)

// Terminal reports whether the state is one of the two mutually exclusive
// end states. A loan enters a terminal state exactly once and no settlement
// call may mutate it afterwards.
func (s State) Terminal() bool { return s == StateRepaid || s == StateClaimed }

var (
	ErrNotFound           = errors.New("loan not found")
	ErrInvalidState       = errors.New("operation not valid for loan state")
	ErrInvalidRepayment   = errors.New("repayment below interest due")
	ErrNotExpired         = errors.New("loan not past due plus grace period")
	ErrAwaitingWithdrawal = errors.New("outstanding note receipt must be redeemed first")
	ErrOnlyLender         = errors.New("caller does not hold the lender position")
	ErrNoReceipt          = errors.New("no note receipt outstanding")
	ErrZeroAddress        = errors.New("recipient must not be empty")
	ErrDeadlinePassed     = errors.New("origination deadline passed")
)

// Loan is the source-of-truth record for a single collateralized obligation.
// The terms columns are immutable once the row is created; only State,
// Balance, LastAccrual and InterestPaid move, and only through the
// settlement path.
type Loan struct {
	// Monotonic loan id, also the public identifier.
	ID uint64 `gorm:"primaryKey;column:id" json:"loan_id"`

	// Immutable terms, fixed at origination.
	Principal       int64     `gorm:"column:principal;not null" json:"principal"`
	InterestRateBps int64     `gorm:"column:interest_rate_bps;not null" json:"interest_rate_bps"`
	DurationSecs    int64     `gorm:"column:duration_secs;not null" json:"duration_secs"`
	CollateralID    string    `gorm:"column:collateral_id;size:64;not null" json:"collateral_id"`
	PayableCurrency string    `gorm:"column:payable_currency;size:16;not null" json:"payable_currency"`
	Deadline        time.Time `gorm:"column:deadline" json:"deadline"`
	AffiliateCode   string    `gorm:"column:affiliate_code;size:32" json:"affiliate_code,omitempty"`

	// Origination-time parties. Position rows decide who currently holds
	// each side; these record who the loan started with.
	Borrower string `gorm:"column:borrower;size:64;not null" json:"borrower"`
	Lender   string `gorm:"column:lender;size:64;not null" json:"lender"`

	// Mutable accounting state.
	State        State     `gorm:"column:state;type:enum('active','repaid','claimed');default:'active'" json:"state"`
	Balance      int64     `gorm:"column:balance;not null" json:"balance"`
	StartDate    time.Time `gorm:"column:start_date;not null" json:"start_date"`
	LastAccrual  time.Time `gorm:"column:last_accrual;not null" json:"last_accrual"`
	InterestPaid int64     `gorm:"column:interest_paid;not null;default:0" json:"interest_paid"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// NoteReceipt is an escrowed lender payout pending explicit redemption.
// At most one row exists per loan; the row is deleted atomically with the
// redeeming transfer, so "row present" and "receipt outstanding" are the
// same condition.
type NoteReceipt struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"-"`
	LoanID    uint64    `gorm:"column:loan_id;not null;uniqueIndex:ux_receipts_loan" json:"loan_id"`
	ReceiptID string    `gorm:"column:receipt_id;type:char(32);not null" json:"receipt_id"`
	Currency  string    `gorm:"column:currency;size:16;not null" json:"currency"`
	Amount    int64     `gorm:"column:amount;not null" json:"amount"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (NoteReceipt) TableName() string { return "note_receipts" }
