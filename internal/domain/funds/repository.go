package funds

import "context"

type Repository interface {
	Get(ctx context.Context, currency, holder string) (*Account, error)
	// Debit pulls from a holder; ErrInsufficientFunds when the balance
	// cannot cover the amount, ErrAccountNotFound when no row exists.
	Debit(ctx context.Context, currency, holder string, amount int64) error
	// Credit pushes to a holder, creating the row on first credit.
	// ErrAccountBlocked when the holder cannot accept funds.
	Credit(ctx context.Context, currency, holder string, amount int64) error
	SetBlocked(ctx context.Context, currency, holder string, blocked bool) error
}
