// Package settlement is the only externally reachable entry point for loan
// economics. Every mutating operation runs inside one unit-of-work
// transaction with the loan row locked up-front, so a failure anywhere rolls
// the whole call back.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loanledger/internal/domain/fee"
	"loanledger/internal/domain/loan"
	"loanledger/internal/domain/position"
	"loanledger/internal/domain/uow"
	"loanledger/internal/usecase/ledger"
	"loanledger/pkg/id"

	"gorm.io/gorm"
)

// SnapshotCache is an optional read-through cache for loan snapshots,
// invalidated on every successful mutation.
type SnapshotCache interface {
	Get(ctx context.Context, loanID uint64) (*loan.Loan, bool)
	Set(ctx context.Context, l *loan.Loan)
	Invalidate(ctx context.Context, loanID uint64)
}

type Usecase struct {
	loans  loan.Repository
	fees   fee.Repository
	uow    uow.UnitOfWork
	engine *ledger.Engine
	cache  SnapshotCache // may be nil
	now    func() time.Time
}

func NewUsecase(loans loan.Repository, fees fee.Repository, tx uow.UnitOfWork, engine *ledger.Engine, cache SnapshotCache) *Usecase {
	return &Usecase{
		loans:  loans,
		fees:   fees,
		uow:    tx,
		engine: engine,
		cache:  cache,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// mutationErr maps an unknown loan id on a settlement call to the same
// failure as a terminal loan: the operation is simply not valid.
func mutationErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return loan.ErrInvalidState
	}
	return err
}

func (u *Usecase) invalidate(ctx context.Context, loanID uint64) {
	if u.cache != nil {
		u.cache.Invalidate(ctx, loanID)
	}
}

// CreateLoan is the origination hand-off: terms are assumed validated and
// signed upstream. It pulls the collateral bundle into the vault, moves
// principal from lender to borrower and mints both position claims.
func (u *Usecase) CreateLoan(ctx context.Context, in CreateLoanInput) (*LoanDTO, error) {
	if in.Principal <= 0 || in.DurationSecs <= 0 || in.InterestRateBps < 0 ||
		in.Borrower == "" || in.Lender == "" || in.CollateralID == "" || in.PayableCurrency == "" {
		return nil, fmt.Errorf("incomplete loan terms: %w", loan.ErrInvalidState)
	}
	now := u.now()
	if !in.Deadline.IsZero() && now.After(in.Deadline) {
		return nil, loan.ErrDeadlinePassed
	}

	var dto *LoanDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		owner, err := r.Bundles.OwnerOf(ctx, in.CollateralID)
		if err != nil {
			return err
		}
		if owner != in.Borrower {
			return fmt.Errorf("collateral %s owned by %s, not borrower: %w", in.CollateralID, owner, loan.ErrInvalidState)
		}
		if err := r.Bundles.Transfer(ctx, in.CollateralID, u.engine.Vault()); err != nil {
			return err
		}
		if err := r.Funds.Debit(ctx, in.PayableCurrency, in.Lender, in.Principal); err != nil {
			return err
		}
		if err := r.Funds.Credit(ctx, in.PayableCurrency, in.Borrower, in.Principal); err != nil {
			return err
		}

		l := &loan.Loan{
			Principal:       in.Principal,
			InterestRateBps: in.InterestRateBps,
			DurationSecs:    in.DurationSecs,
			CollateralID:    in.CollateralID,
			PayableCurrency: in.PayableCurrency,
			Deadline:        in.Deadline,
			AffiliateCode:   in.AffiliateCode,
			Borrower:        in.Borrower,
			Lender:          in.Lender,
			State:           loan.StateActive,
			Balance:         in.Principal,
			StartDate:       now,
			LastAccrual:     now,
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		if err := r.Positions.Create(ctx, &position.Position{LoanID: l.ID, Side: position.SideBorrower, Holder: in.Borrower}); err != nil {
			return err
		}
		if err := r.Positions.Create(ctx, &position.Position{LoanID: l.ID, Side: position.SideLender, Holder: in.Lender}); err != nil {
			return err
		}
		dto = toLoanDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Repay settles directly: pull from the payer, apply, assess fees, push the
// net to the current lender-position holder. A lender that cannot accept
// funds fails the push and with it the entire call, pull included.
func (u *Usecase) Repay(ctx context.Context, loanID uint64, payer string, amount int64) (*RepaymentDTO, error) {
	var dto *RepaymentDTO
	now := u.now()
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		lender, err := r.Positions.Holder(ctx, l.ID, position.SideLender)
		if err != nil {
			return mutationErr(err)
		}
		pb, err := u.engine.ApplyPayment(ctx, r, l, amount, now)
		if err != nil {
			return err
		}
		if err := r.Funds.Debit(ctx, l.PayableCurrency, payer, pb.AmountConsumed); err != nil {
			return err
		}
		feeTotal, err := u.engine.AssessFees(ctx, r, l, pb)
		if err != nil {
			return err
		}
		net := pb.AmountConsumed - feeTotal
		// Fees stay with the vault until withdrawn.
		if feeTotal > 0 {
			if err := r.Funds.Credit(ctx, l.PayableCurrency, u.engine.Vault(), feeTotal); err != nil {
				return err
			}
		}
		if err := r.Funds.Credit(ctx, l.PayableCurrency, lender, net); err != nil {
			return err
		}
		if l.State == loan.StateRepaid {
			if err := r.Positions.Burn(ctx, l.ID, position.SideLender); err != nil {
				return err
			}
		}
		dto = &RepaymentDTO{
			LoanID:        l.ID,
			State:         string(l.State),
			Balance:       l.Balance,
			AmountPulled:  pb.AmountConsumed,
			InterestPaid:  pb.InterestDue,
			PrincipalPaid: pb.PrincipalPaid,
			Fees:          feeTotal,
			LenderNet:     net,
		}
		return nil
	})
	if err != nil {
		return nil, mutationErr(err)
	}
	u.invalidate(ctx, loanID)
	return dto, nil
}

// ForceRepay settles with the same accounting as Repay but escrows the
// lender's net into a note receipt, so the payer succeeds regardless of
// whether the lender can accept funds. At most one receipt may be
// outstanding per loan.
func (u *Usecase) ForceRepay(ctx context.Context, loanID uint64, payer string, amount int64) (*RepaymentDTO, error) {
	var dto *RepaymentDTO
	now := u.now()
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if _, err := r.Loans.GetReceipt(ctx, l.ID); err == nil {
			return loan.ErrAwaitingWithdrawal
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		pb, err := u.engine.ApplyPayment(ctx, r, l, amount, now)
		if err != nil {
			return err
		}
		if err := r.Funds.Debit(ctx, l.PayableCurrency, payer, pb.AmountConsumed); err != nil {
			return err
		}
		feeTotal, err := u.engine.AssessFees(ctx, r, l, pb)
		if err != nil {
			return err
		}
		net := pb.AmountConsumed - feeTotal
		// Everything pulled stays with the vault: fees until withdrawn,
		// the net until the note is redeemed.
		if err := r.Funds.Credit(ctx, l.PayableCurrency, u.engine.Vault(), pb.AmountConsumed); err != nil {
			return err
		}
		if err := r.Loans.CreateReceipt(ctx, &loan.NoteReceipt{
			LoanID:    l.ID,
			ReceiptID: id.NewID32(),
			Currency:  l.PayableCurrency,
			Amount:    net,
		}); err != nil {
			return err
		}
		dto = &RepaymentDTO{
			LoanID:        l.ID,
			State:         string(l.State),
			Balance:       l.Balance,
			AmountPulled:  pb.AmountConsumed,
			InterestPaid:  pb.InterestDue,
			PrincipalPaid: pb.PrincipalPaid,
			Fees:          feeTotal,
			LenderNet:     net,
			Escrowed:      true,
		}
		return nil
	})
	if err != nil {
		return nil, mutationErr(err)
	}
	u.invalidate(ctx, loanID)
	return dto, nil
}

// RedeemNote pays an outstanding receipt out to an address of the lender
// holder's choosing. Authorization (the holder) and destination (to) are
// deliberately decoupled so a blocked lender can redirect the payout.
func (u *Usecase) RedeemNote(ctx context.Context, loanID uint64, caller, to string) (*RedeemDTO, error) {
	if to == "" {
		return nil, loan.ErrZeroAddress
	}
	var dto *RedeemDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		holder, err := r.Positions.Holder(ctx, l.ID, position.SideLender)
		if err != nil {
			if errors.Is(err, position.ErrNotFound) {
				return loan.ErrOnlyLender
			}
			return err
		}
		if holder != caller {
			return loan.ErrOnlyLender
		}
		receipt, err := r.Loans.GetReceipt(ctx, l.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return loan.ErrNoReceipt
			}
			return err
		}
		if err := r.Funds.Debit(ctx, receipt.Currency, u.engine.Vault(), receipt.Amount); err != nil {
			return err
		}
		if err := r.Funds.Credit(ctx, receipt.Currency, to, receipt.Amount); err != nil {
			return err
		}
		if err := r.Loans.DeleteReceipt(ctx, l.ID); err != nil {
			return err
		}
		if l.State.Terminal() {
			if err := r.Positions.Burn(ctx, l.ID, position.SideLender); err != nil {
				return err
			}
		}
		dto = &RedeemDTO{LoanID: l.ID, Amount: receipt.Amount, To: to}
		return nil
	})
	if err != nil {
		return nil, mutationErr(err)
	}
	u.invalidate(ctx, loanID)
	return dto, nil
}

// Claim seizes the collateral for the lender-position holder after the term
// plus grace period has elapsed.
func (u *Usecase) Claim(ctx context.Context, loanID uint64, caller string) (*LoanDTO, error) {
	var dto *LoanDTO
	now := u.now()
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		holder, err := r.Positions.Holder(ctx, l.ID, position.SideLender)
		if err != nil {
			if errors.Is(err, position.ErrNotFound) {
				return loan.ErrOnlyLender
			}
			return err
		}
		if holder != caller {
			return loan.ErrOnlyLender
		}
		if err := u.engine.Claim(ctx, r, l, now); err != nil {
			return err
		}
		dto = toLoanDTO(l)
		return nil
	})
	if err != nil {
		return nil, mutationErr(err)
	}
	u.invalidate(ctx, loanID)
	return dto, nil
}

// TransferNote moves the lender position to a new holder (a note sale). The
// borrower side is not transferable.
func (u *Usecase) TransferNote(ctx context.Context, loanID uint64, caller, to string) error {
	if to == "" {
		return loan.ErrZeroAddress
	}
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		holder, err := r.Positions.Holder(ctx, l.ID, position.SideLender)
		if err != nil {
			if errors.Is(err, position.ErrNotFound) {
				return loan.ErrOnlyLender
			}
			return err
		}
		if holder != caller {
			return loan.ErrOnlyLender
		}
		return r.Positions.Transfer(ctx, l.ID, position.SideLender, to)
	})
	return mutationErr(err)
}

// Withdraw pays accrued fees out of the vault to the beneficiary's chosen
// destination.
func (u *Usecase) Withdraw(ctx context.Context, currency, caller string, amount int64, to string) error {
	if to == "" {
		return loan.ErrZeroAddress
	}
	if amount <= 0 {
		return fee.ErrInsufficientWithdrawable
	}
	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Fees.Debit(ctx, currency, caller, amount); err != nil {
			return err
		}
		if err := r.Funds.Debit(ctx, currency, u.engine.Vault(), amount); err != nil {
			return err
		}
		return r.Funds.Credit(ctx, currency, to, amount)
	})
}

// SetAffiliateSplit registers or updates the fee share for an affiliate
// code.
func (u *Usecase) SetAffiliateSplit(ctx context.Context, code, recipient string, splitBps int64) error {
	if code == "" || recipient == "" {
		return loan.ErrZeroAddress
	}
	if splitBps < 0 || splitBps > fee.MaxAffiliateSplitBps {
		return fee.ErrSplitTooLarge
	}
	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		return r.Fees.UpsertSplit(ctx, &fee.AffiliateSplit{Code: code, Recipient: recipient, SplitBps: splitBps})
	})
}

func (u *Usecase) GetLoan(ctx context.Context, loanID uint64) (*LoanDTO, error) {
	if u.cache != nil {
		if l, ok := u.cache.Get(ctx, loanID); ok {
			return toLoanDTO(l), nil
		}
	}
	l, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrNotFound
		}
		return nil, err
	}
	if u.cache != nil {
		u.cache.Set(ctx, l)
	}
	return toLoanDTO(l), nil
}

func (u *Usecase) NoteReceipt(ctx context.Context, loanID uint64) (*ReceiptDTO, error) {
	r, err := u.loans.GetReceipt(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrNoReceipt
		}
		return nil, err
	}
	return &ReceiptDTO{LoanID: r.LoanID, ReceiptID: r.ReceiptID, Currency: r.Currency, Amount: r.Amount, CreatedAt: r.CreatedAt}, nil
}

func (u *Usecase) FeesWithdrawable(ctx context.Context, currency, who string) (int64, error) {
	return u.fees.Withdrawable(ctx, currency, who)
}

// ProratedInterest exposes the interest math for callers that want to quote
// an exact payoff before settling.
func (u *Usecase) ProratedInterest(balance, rateBps, durationSecs, lastAccrual, now int64) (int64, error) {
	return ledger.ProratedInterest(balance, rateBps, durationSecs, lastAccrual, now)
}

func (u *Usecase) CloseEffectiveRate(ctx context.Context, loanID uint64) (int64, error) {
	l, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, loan.ErrNotFound
		}
		return 0, err
	}
	return u.engine.CloseEffectiveRate(l)
}

func toLoanDTO(l *loan.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:          l.ID,
		Principal:       l.Principal,
		InterestRateBps: l.InterestRateBps,
		DurationSecs:    l.DurationSecs,
		CollateralID:    l.CollateralID,
		PayableCurrency: l.PayableCurrency,
		AffiliateCode:   l.AffiliateCode,
		Borrower:        l.Borrower,
		Lender:          l.Lender,
		State:           string(l.State),
		Balance:         l.Balance,
		StartDate:       l.StartDate,
		LastAccrual:     l.LastAccrual,
		InterestPaid:    l.InterestPaid,
	}
}
