package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"loanledger/internal/domain/collateral"
	"loanledger/internal/domain/fee"
	"loanledger/internal/domain/loan"
	"loanledger/internal/domain/position"
	"loanledger/internal/domain/uow"
	"loanledger/internal/testutil/memledger"
	"loanledger/internal/testutil/schedmock"
)

const (
	currency = "USD"
	borrower = "acct-borrower"
	lender   = "acct-lender"
	bundleID = "bundle-1"
)

var start = time.Unix(1_700_000_000, 0).UTC()

func newEngine() *Engine {
	sched := schedmock.New(map[string]int64{
		fee.KindLenderInterest:  2_000,
		fee.KindLenderPrincipal: 200,
	})
	return NewEngine(sched, "protocol", "vault", 10*24*time.Hour)
}

// seedLoan installs an active loan with collateral in the vault and both
// positions minted, the state origination leaves behind.
func seedLoan(t *testing.T, store *memledger.Store, principal int64) *loan.Loan {
	t.Helper()
	l := &loan.Loan{
		Principal:       principal,
		InterestRateBps: 1_000,
		DurationSecs:    yearSecs,
		CollateralID:    bundleID,
		PayableCurrency: currency,
		Borrower:        borrower,
		Lender:          lender,
		State:           loan.StateActive,
		Balance:         principal,
		StartDate:       start,
		LastAccrual:     start,
	}
	store.Do(func(r uow.Repos) {
		ctx := context.Background()
		if err := r.Loans.Create(ctx, l); err != nil {
			t.Fatalf("seed loan: %v", err)
		}
		if err := r.Bundles.Register(ctx, &collateral.Bundle{BundleID: bundleID, Owner: "vault"}); err != nil {
			t.Fatalf("seed bundle: %v", err)
		}
		for side, holder := range map[position.Side]string{
			position.SideBorrower: borrower,
			position.SideLender:   lender,
		} {
			if err := r.Positions.Create(ctx, &position.Position{LoanID: l.ID, Side: side, Holder: holder}); err != nil {
				t.Fatalf("seed position: %v", err)
			}
		}
	})
	return l
}

func TestApplyPayment_FullRepayment(t *testing.T) {
	store := memledger.New()
	e := newEngine()
	l := seedLoan(t, store, 100)
	ctx := context.Background()

	store.Do(func(r uow.Repos) {
		pb, err := e.ApplyPayment(ctx, r, l, 110, start.Add(yearSecs*time.Second))
		if err != nil {
			t.Fatalf("ApplyPayment: %v", err)
		}
		if pb.InterestDue != 10 || pb.PrincipalPaid != 100 || pb.AmountConsumed != 110 {
			t.Fatalf("breakdown = %+v", pb)
		}
		if l.State != loan.StateRepaid || l.Balance != 0 || l.InterestPaid != 10 {
			t.Fatalf("loan = state %s balance %d interestPaid %d", l.State, l.Balance, l.InterestPaid)
		}
		owner, err := r.Bundles.OwnerOf(ctx, bundleID)
		if err != nil || owner != borrower {
			t.Fatalf("collateral owner = %q err %v, want borrower", owner, err)
		}
		if _, err := r.Positions.Holder(ctx, l.ID, position.SideBorrower); !errors.Is(err, position.ErrNotFound) {
			t.Fatalf("borrower position not burned: %v", err)
		}
		// Lender position survives until the payout side resolves.
		if _, err := r.Positions.Holder(ctx, l.ID, position.SideLender); err != nil {
			t.Fatalf("lender position: %v", err)
		}
	})
}

func TestApplyPayment_PartialThenRebase(t *testing.T) {
	store := memledger.New()
	e := newEngine()
	l := seedLoan(t, store, 10_000)
	ctx := context.Background()

	half := start.Add(yearSecs / 2 * time.Second)
	store.Do(func(r uow.Repos) {
		// Half the term: 10000 * 10% * 1/2 = 500 interest.
		pb, err := e.ApplyPayment(ctx, r, l, 4_500, half)
		if err != nil {
			t.Fatalf("ApplyPayment: %v", err)
		}
		if pb.InterestDue != 500 || pb.PrincipalPaid != 4_000 {
			t.Fatalf("breakdown = %+v", pb)
		}
		if l.Balance != 6_000 || !l.LastAccrual.Equal(half) || l.State != loan.StateActive {
			t.Fatalf("loan = %+v", l)
		}
	})

	// Interest rebases onto the reduced balance from the new accrual clock.
	due, err := ProratedInterest(l.Balance, l.InterestRateBps, l.DurationSecs, l.LastAccrual.Unix(), l.LastAccrual.Unix())
	if err != nil || due != 0 {
		t.Fatalf("due immediately after payment = %d err %v, want 0", due, err)
	}
}

func TestApplyPayment_ExcessCappedAtBalance(t *testing.T) {
	store := memledger.New()
	e := newEngine()
	l := seedLoan(t, store, 100)
	ctx := context.Background()

	store.Do(func(r uow.Repos) {
		pb, err := e.ApplyPayment(ctx, r, l, 5_000, start.Add(yearSecs*time.Second))
		if err != nil {
			t.Fatalf("ApplyPayment: %v", err)
		}
		// Only interest due + balance is consumed; the surplus stays with the payer.
		if pb.AmountConsumed != 110 {
			t.Fatalf("consumed = %d, want 110", pb.AmountConsumed)
		}
	})
}

func TestApplyPayment_Underpayment(t *testing.T) {
	store := memledger.New()
	e := newEngine()
	l := seedLoan(t, store, 100)
	ctx := context.Background()

	store.Do(func(r uow.Repos) {
		_, err := e.ApplyPayment(ctx, r, l, 9, start.Add(yearSecs*time.Second))
		if !errors.Is(err, loan.ErrInvalidRepayment) {
			t.Fatalf("err = %v, want ErrInvalidRepayment", err)
		}
		// Entity untouched on failure.
		if l.Balance != 100 || !l.LastAccrual.Equal(start) || l.InterestPaid != 0 {
			t.Fatalf("loan mutated on failed payment: %+v", l)
		}
	})
}

func TestApplyPayment_TerminalLoan(t *testing.T) {
	store := memledger.New()
	e := newEngine()
	l := seedLoan(t, store, 100)
	l.State = loan.StateRepaid
	l.Balance = 0

	store.Do(func(r uow.Repos) {
		_, err := e.ApplyPayment(context.Background(), r, l, 50, start.Add(time.Hour))
		if !errors.Is(err, loan.ErrInvalidState) {
			t.Fatalf("err = %v, want ErrInvalidState", err)
		}
	})
}

func TestAssessFees_ProtocolOnly(t *testing.T) {
	store := memledger.New()
	e := newEngine()
	l := seedLoan(t, store, 100)
	ctx := context.Background()

	store.Do(func(r uow.Repos) {
		// 20% of 10 interest + 2% of 100 principal = 4.
		total, err := e.AssessFees(ctx, r, l, &PaymentBreakdown{InterestDue: 10, PrincipalPaid: 100, AmountConsumed: 110})
		if err != nil {
			t.Fatalf("AssessFees: %v", err)
		}
		if total != 4 {
			t.Fatalf("total = %d, want 4", total)
		}
		got, _ := r.Fees.Withdrawable(ctx, currency, "protocol")
		if got != 4 {
			t.Fatalf("protocol withdrawable = %d, want 4", got)
		}
	})
}

func TestAssessFees_AffiliateShare(t *testing.T) {
	store := memledger.New()
	e := newEngine()
	l := seedLoan(t, store, 100)
	l.AffiliateCode = "partner-7"
	ctx := context.Background()

	store.Do(func(r uow.Repos) {
		if err := r.Fees.UpsertSplit(ctx, &fee.AffiliateSplit{Code: "partner-7", Recipient: "acct-affiliate", SplitBps: 2_500}); err != nil {
			t.Fatalf("seed split: %v", err)
		}
		total, err := e.AssessFees(ctx, r, l, &PaymentBreakdown{InterestDue: 10, PrincipalPaid: 100, AmountConsumed: 110})
		if err != nil {
			t.Fatalf("AssessFees: %v", err)
		}
		if total != 4 {
			t.Fatalf("total = %d, want 4", total)
		}
		// 25% of the fee, not of the legs.
		aff, _ := r.Fees.Withdrawable(ctx, currency, "acct-affiliate")
		prot, _ := r.Fees.Withdrawable(ctx, currency, "protocol")
		if aff != 1 || prot != 3 {
			t.Fatalf("affiliate = %d protocol = %d, want 1 and 3", aff, prot)
		}
	})
}

func TestAssessFees_UnregisteredCodeIgnored(t *testing.T) {
	store := memledger.New()
	e := newEngine()
	l := seedLoan(t, store, 100)
	l.AffiliateCode = "nobody"
	ctx := context.Background()

	store.Do(func(r uow.Repos) {
		total, err := e.AssessFees(ctx, r, l, &PaymentBreakdown{InterestDue: 10, PrincipalPaid: 100, AmountConsumed: 110})
		if err != nil || total != 4 {
			t.Fatalf("total = %d err %v", total, err)
		}
		prot, _ := r.Fees.Withdrawable(ctx, currency, "protocol")
		if prot != 4 {
			t.Fatalf("protocol = %d, want all 4", prot)
		}
	})
}

func TestCloseEffectiveRate(t *testing.T) {
	e := newEngine()

	// Full term at the contract pace reproduces the nominal rate exactly.
	l := &loan.Loan{
		Principal: 100, InterestRateBps: 1_000, DurationSecs: yearSecs,
		State: loan.StateRepaid, InterestPaid: 10,
		StartDate: start, LastAccrual: start.Add(yearSecs * time.Second),
	}
	bps, err := e.CloseEffectiveRate(l)
	if err != nil {
		t.Fatalf("CloseEffectiveRate: %v", err)
	}
	if bps != 1_000 {
		t.Fatalf("bps = %d, want exactly 1000", bps)
	}

	// Non-exact extrapolations floor: 7 * 300 * 10000 / (90 * 110) = 2121.21...
	l = &loan.Loan{
		Principal: 110, InterestRateBps: 1_000, DurationSecs: 300,
		State: loan.StateRepaid, InterestPaid: 7,
		StartDate: start, LastAccrual: start.Add(90 * time.Second),
	}
	bps, err = e.CloseEffectiveRate(l)
	if err != nil {
		t.Fatalf("CloseEffectiveRate: %v", err)
	}
	if bps != 2_121 {
		t.Fatalf("bps = %d, want 2121 (floor)", bps)
	}

	// Active loans have no close rate.
	l.State = loan.StateActive
	if _, err := e.CloseEffectiveRate(l); !errors.Is(err, loan.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestClaim(t *testing.T) {
	store := memledger.New()
	e := newEngine()
	l := seedLoan(t, store, 100)
	ctx := context.Background()

	maturity := start.Add(yearSecs * time.Second)
	graceEnd := maturity.Add(10 * 24 * time.Hour)

	store.Do(func(r uow.Repos) {
		// Inside the grace window the borrower can still repay.
		if err := e.Claim(ctx, r, l, graceEnd); !errors.Is(err, loan.ErrNotExpired) {
			t.Fatalf("at grace boundary: err = %v, want ErrNotExpired", err)
		}
	})

	// An unredeemed receipt blocks seizure.
	store.Do(func(r uow.Repos) {
		if err := r.Loans.CreateReceipt(ctx, &loan.NoteReceipt{LoanID: l.ID, ReceiptID: "r", Currency: currency, Amount: 5}); err != nil {
			t.Fatalf("seed receipt: %v", err)
		}
		if err := e.Claim(ctx, r, l, graceEnd.Add(time.Second)); !errors.Is(err, loan.ErrAwaitingWithdrawal) {
			t.Fatalf("err = %v, want ErrAwaitingWithdrawal", err)
		}
		if err := r.Loans.DeleteReceipt(ctx, l.ID); err != nil {
			t.Fatalf("clear receipt: %v", err)
		}
	})

	store.Do(func(r uow.Repos) {
		if err := e.Claim(ctx, r, l, graceEnd.Add(time.Second)); err != nil {
			t.Fatalf("Claim: %v", err)
		}
		if l.State != loan.StateClaimed || l.Balance != 0 {
			t.Fatalf("loan = state %s balance %d", l.State, l.Balance)
		}
		owner, _ := r.Bundles.OwnerOf(ctx, bundleID)
		if owner != lender {
			t.Fatalf("collateral owner = %q, want lender", owner)
		}
		for _, side := range []position.Side{position.SideBorrower, position.SideLender} {
			if _, err := r.Positions.Holder(ctx, l.ID, side); !errors.Is(err, position.ErrNotFound) {
				t.Fatalf("%s position not burned: %v", side, err)
			}
		}
		// No fees accrue on a default.
		prot, _ := r.Fees.Withdrawable(ctx, currency, "protocol")
		if prot != 0 {
			t.Fatalf("protocol fees on default = %d, want 0", prot)
		}
	})

	store.Do(func(r uow.Repos) {
		if err := e.Claim(ctx, r, l, graceEnd.Add(time.Hour)); !errors.Is(err, loan.ErrInvalidState) {
			t.Fatalf("second claim: err = %v, want ErrInvalidState", err)
		}
	})
}
