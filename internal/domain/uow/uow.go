package uow

import (
	"context"

	"loanledger/internal/domain/collateral"
	"loanledger/internal/domain/fee"
	"loanledger/internal/domain/funds"
	"loanledger/internal/domain/loan"
	"loanledger/internal/domain/position"
)

// Repos bundles every repository bound to one transaction. A settlement call
// sees either all of its writes or none of them.
type Repos struct {
	Loans     loan.Repository
	Fees      fee.Repository
	Funds     funds.Repository
	Bundles   collateral.Custody
	Positions position.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the loan row first, then pass it in
	WithinLoanTx(ctx context.Context, loanID uint64, fn func(r Repos, l *loan.Loan) error) error
}
