package fee

import "context"

type Repository interface {
	// Credit adds to the (currency, beneficiary) balance, creating the row
	// on first credit.
	Credit(ctx context.Context, currency, beneficiary string, amount int64) error
	// Debit removes from the balance; ErrInsufficientWithdrawable when the
	// balance cannot cover it.
	Debit(ctx context.Context, currency, beneficiary string, amount int64) error
	Withdrawable(ctx context.Context, currency, beneficiary string) (int64, error)

	GetSplit(ctx context.Context, code string) (*AffiliateSplit, error)
	UpsertSplit(ctx context.Context, s *AffiliateSplit) error
}
