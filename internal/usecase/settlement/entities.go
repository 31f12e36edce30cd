package settlement

import "time"

type CreateLoanInput struct {
	Principal       int64     `json:"principal"`
	InterestRateBps int64     `json:"interest_rate_bps"`
	DurationSecs    int64     `json:"duration_secs"`
	CollateralID    string    `json:"collateral_id"`
	PayableCurrency string    `json:"payable_currency"`
	Deadline        time.Time `json:"deadline"`
	AffiliateCode   string    `json:"affiliate_code"`
	Borrower        string    `json:"borrower"`
	Lender          string    `json:"lender"`
}

type LoanDTO struct {
	LoanID          uint64    `json:"loan_id"`
	Principal       int64     `json:"principal"`
	InterestRateBps int64     `json:"interest_rate_bps"`
	DurationSecs    int64     `json:"duration_secs"`
	CollateralID    string    `json:"collateral_id"`
	PayableCurrency string    `json:"payable_currency"`
	AffiliateCode   string    `json:"affiliate_code,omitempty"`
	Borrower        string    `json:"borrower"`
	Lender          string    `json:"lender"`
	State           string    `json:"state"`
	Balance         int64     `json:"balance"`
	StartDate       time.Time `json:"start_date"`
	LastAccrual     time.Time `json:"last_accrual"`
	InterestPaid    int64     `json:"interest_paid"`
}

// RepaymentDTO reports how one settlement split the pulled funds. For a
// direct repayment LenderNet went to the lender; for an escrowed one it sits
// in the note receipt.
type RepaymentDTO struct {
	LoanID        uint64 `json:"loan_id"`
	State         string `json:"state"`
	Balance       int64  `json:"balance"`
	AmountPulled  int64  `json:"amount_pulled"`
	InterestPaid  int64  `json:"interest_paid"`
	PrincipalPaid int64  `json:"principal_paid"`
	Fees          int64  `json:"fees"`
	LenderNet     int64  `json:"lender_net"`
	Escrowed      bool   `json:"escrowed"`
}

type RedeemDTO struct {
	LoanID uint64 `json:"loan_id"`
	Amount int64  `json:"amount"`
	To     string `json:"to"`
}

type ReceiptDTO struct {
	LoanID    uint64    `json:"loan_id"`
	ReceiptID string    `json:"receipt_id"`
	Currency  string    `json:"currency"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
