package position

import "context"

type Repository interface {
	Create(ctx context.Context, p *Position) error
	// Holder returns the current live holder of one side of a loan;
	// ErrNotFound when the position never existed or was burned.
	Holder(ctx context.Context, loanID uint64, side Side) (string, error)
	Transfer(ctx context.Context, loanID uint64, side Side, to string) error
	Burn(ctx context.Context, loanID uint64, side Side) error
}
