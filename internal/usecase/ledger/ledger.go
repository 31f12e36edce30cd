// Package ledger owns loan accounting: interest accrual, payment
// application, fee assessment and default claims. It is only reachable
// through the settlement usecase, which provides the transaction scope.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"loanledger/internal/domain/fee"
	"loanledger/internal/domain/loan"
	"loanledger/internal/domain/position"
	"loanledger/internal/domain/uow"

	"gorm.io/gorm"
)

type Engine struct {
	schedule fee.Schedule
	protocol string // beneficiary of protocol fees
	vault    string // custody identity holding collateral and escrowed funds
	grace    time.Duration
}

func NewEngine(schedule fee.Schedule, protocol, vault string, grace time.Duration) *Engine {
	return &Engine{schedule: schedule, protocol: protocol, vault: vault, grace: grace}
}

func (e *Engine) Vault() string { return e.vault }

// PaymentBreakdown reports how one payment was split. AmountConsumed is what
// the payer actually owes for this payment (interest due plus principal
// applied); settlement pulls exactly this, never more.
type PaymentBreakdown struct {
	InterestDue    int64
	PrincipalPaid  int64
	AmountConsumed int64
}

// ApplyPayment charges prorated interest first, then applies the remainder
// to principal, capped at the outstanding balance. The loan entity is
// mutated and saved; on a zero balance the loan turns repaid, collateral
// goes back to the borrower-position holder and the borrower position is
// burned. The lender position outlives this call: direct repayment burns it
// immediately, escrowed repayment leaves it alive until the note is
// redeemed.
func (e *Engine) ApplyPayment(ctx context.Context, r uow.Repos, l *loan.Loan, amountOffered int64, now time.Time) (*PaymentBreakdown, error) {
	if l.State != loan.StateActive {
		return nil, loan.ErrInvalidState
	}
	interestDue, err := ProratedInterest(l.Balance, l.InterestRateBps, l.DurationSecs, l.LastAccrual.Unix(), now.Unix())
	if err != nil {
		return nil, err
	}
	if amountOffered < interestDue {
		return nil, fmt.Errorf("offered %d, interest due %d: %w", amountOffered, interestDue, loan.ErrInvalidRepayment)
	}
	principalPaid := amountOffered - interestDue
	if principalPaid > l.Balance {
		principalPaid = l.Balance
	}

	l.Balance -= principalPaid
	l.InterestPaid += interestDue
	l.LastAccrual = now

	if l.Balance == 0 {
		l.State = loan.StateRepaid
		holder, err := r.Positions.Holder(ctx, l.ID, position.SideBorrower)
		if err != nil {
			return nil, err
		}
		if err := r.Bundles.Transfer(ctx, l.CollateralID, holder); err != nil {
			return nil, err
		}
		if err := r.Positions.Burn(ctx, l.ID, position.SideBorrower); err != nil {
			return nil, err
		}
	}
	if err := r.Loans.Save(ctx, l); err != nil {
		return nil, err
	}
	return &PaymentBreakdown{
		InterestDue:    interestDue,
		PrincipalPaid:  principalPaid,
		AmountConsumed: interestDue + principalPaid,
	}, nil
}

// AssessFees charges the schedule's current rate per disbursement leg and
// credits the withdrawable balances: the affiliate share (a fraction of the
// fee, never of the legs themselves) to the registered recipient, the rest
// to the protocol. Rates are read fresh here, so a schedule change applies
// to every settlement after it. Returns the total fee withheld from the
// lender's gross.
func (e *Engine) AssessFees(ctx context.Context, r uow.Repos, l *loan.Loan, pb *PaymentBreakdown) (int64, error) {
	total := feeAmount(pb.InterestDue, e.schedule.Rate(fee.KindLenderInterest)) +
		feeAmount(pb.PrincipalPaid, e.schedule.Rate(fee.KindLenderPrincipal))
	if total == 0 {
		return 0, nil
	}

	affiliateShare := int64(0)
	if l.AffiliateCode != "" {
		split, err := r.Fees.GetSplit(ctx, l.AffiliateCode)
		switch {
		case err == nil:
			affiliateShare = feeAmount(total, split.SplitBps)
			if affiliateShare > 0 {
				if err := r.Fees.Credit(ctx, l.PayableCurrency, split.Recipient, affiliateShare); err != nil {
					return 0, err
				}
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return 0, err
		}
	}
	if total > affiliateShare {
		if err := r.Fees.Credit(ctx, l.PayableCurrency, e.protocol, total-affiliateShare); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// CloseEffectiveRate extrapolates the realized interest to what a full-term
// loan paying at the same pace would have charged, in basis points, rounded
// down. Only meaningful once the loan is terminal.
func (e *Engine) CloseEffectiveRate(l *loan.Loan) (int64, error) {
	if !l.State.Terminal() {
		return 0, loan.ErrInvalidState
	}
	elapsed := l.LastAccrual.Unix() - l.StartDate.Unix()
	if elapsed <= 0 || l.Principal == 0 || l.InterestPaid == 0 {
		return 0, nil
	}
	num := new(big.Int).Mul(big.NewInt(l.InterestPaid), big.NewInt(l.DurationSecs))
	num.Mul(num, bpsDenominator)
	den := new(big.Int).Mul(big.NewInt(elapsed), big.NewInt(l.Principal))
	return num.Quo(num, den).Int64(), nil
}

// Claim seizes the collateral after the term plus grace period has fully
// elapsed. An outstanding note receipt blocks the claim until redeemed. The
// remaining debt is written off against the seized bundle, both positions
// are burned, and no fees or affiliate credits are assessed.
func (e *Engine) Claim(ctx context.Context, r uow.Repos, l *loan.Loan, now time.Time) error {
	if l.State != loan.StateActive {
		return loan.ErrInvalidState
	}
	due := l.StartDate.Add(time.Duration(l.DurationSecs)*time.Second + e.grace)
	if !now.After(due) {
		return loan.ErrNotExpired
	}
	if _, err := r.Loans.GetReceipt(ctx, l.ID); err == nil {
		return loan.ErrAwaitingWithdrawal
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	holder, err := r.Positions.Holder(ctx, l.ID, position.SideLender)
	if err != nil {
		return err
	}
	if err := r.Bundles.Transfer(ctx, l.CollateralID, holder); err != nil {
		return err
	}

	l.State = loan.StateClaimed
	l.Balance = 0
	if err := r.Loans.Save(ctx, l); err != nil {
		return err
	}
	if err := r.Positions.Burn(ctx, l.ID, position.SideBorrower); err != nil {
		return err
	}
	return r.Positions.Burn(ctx, l.ID, position.SideLender)
}
