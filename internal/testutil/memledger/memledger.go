// Package memledger is an in-memory implementation of every ledger
// repository plus the unit of work, for usecase and handler tests. A
// transaction runs against a deep copy of the store and commits only when
// the closure returns nil, so tests can assert that failed settlements leave
// no trace.
package memledger

import (
	"context"
	"fmt"
	"sync"

	"loanledger/internal/domain/collateral"
	"loanledger/internal/domain/fee"
	"loanledger/internal/domain/funds"
	"loanledger/internal/domain/loan"
	"loanledger/internal/domain/position"
	"loanledger/internal/domain/uow"

	"gorm.io/gorm"
)

type state struct {
	nextLoanID uint64
	loans      map[uint64]loan.Loan
	receipts   map[uint64]loan.NoteReceipt
	fees       map[string]int64
	splits     map[string]fee.AffiliateSplit
	accounts   map[string]funds.Account
	bundles    map[string]string
	positions  map[string]position.Position
}

func newState() *state {
	return &state{
		nextLoanID: 1,
		loans:      map[uint64]loan.Loan{},
		receipts:   map[uint64]loan.NoteReceipt{},
		fees:       map[string]int64{},
		splits:     map[string]fee.AffiliateSplit{},
		accounts:   map[string]funds.Account{},
		bundles:    map[string]string{},
		positions:  map[string]position.Position{},
	}
}

func (s *state) clone() *state {
	c := newState()
	c.nextLoanID = s.nextLoanID
	for k, v := range s.loans {
		c.loans[k] = v
	}
	for k, v := range s.receipts {
		c.receipts[k] = v
	}
	for k, v := range s.fees {
		c.fees[k] = v
	}
	for k, v := range s.splits {
		c.splits[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.bundles {
		c.bundles[k] = v
	}
	for k, v := range s.positions {
		c.positions[k] = v
	}
	return c
}

func pairKey(a, b string) string { return a + "|" + b }

func posKey(loanID uint64, side position.Side) string {
	return fmt.Sprintf("%d|%s", loanID, side)
}

// Store is the shared fixture. Use Do for seeding and assertions, Loans/Fees
// for the usecase's direct-read repositories, and the Store itself as the
// uow.UnitOfWork.
type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store { return &Store{st: newState()} }

// Do runs fn against the committed state without transaction semantics.
func (s *Store) Do(fn func(r uow.Repos)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(repos(s.st))
}

// Loans is a repository view that always reads the committed state, even
// after transactions have swapped it.
func (s *Store) Loans() loan.Repository { return &liveLoans{s: s} }

func (s *Store) Fees() fee.Repository { return &liveFees{s: s} }

type liveLoans struct{ s *Store }

func (l *liveLoans) repo() *loanRepo { return &loanRepo{st: l.s.st} }

func (l *liveLoans) Create(ctx context.Context, ln *loan.Loan) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.repo().Create(ctx, ln)
}

func (l *liveLoans) GetByID(ctx context.Context, loanID uint64) (*loan.Loan, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.repo().GetByID(ctx, loanID)
}

func (l *liveLoans) GetByIDForUpdate(ctx context.Context, loanID uint64) (*loan.Loan, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.repo().GetByIDForUpdate(ctx, loanID)
}

func (l *liveLoans) Save(ctx context.Context, ln *loan.Loan) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.repo().Save(ctx, ln)
}

func (l *liveLoans) GetReceipt(ctx context.Context, loanID uint64) (*loan.NoteReceipt, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.repo().GetReceipt(ctx, loanID)
}

func (l *liveLoans) CreateReceipt(ctx context.Context, rc *loan.NoteReceipt) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.repo().CreateReceipt(ctx, rc)
}

func (l *liveLoans) DeleteReceipt(ctx context.Context, loanID uint64) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.repo().DeleteReceipt(ctx, loanID)
}

type liveFees struct{ s *Store }

func (f *liveFees) repo() *feeRepo { return &feeRepo{st: f.s.st} }

func (f *liveFees) Credit(ctx context.Context, currency, beneficiary string, amount int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.repo().Credit(ctx, currency, beneficiary, amount)
}

func (f *liveFees) Debit(ctx context.Context, currency, beneficiary string, amount int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.repo().Debit(ctx, currency, beneficiary, amount)
}

func (f *liveFees) Withdrawable(ctx context.Context, currency, beneficiary string) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.repo().Withdrawable(ctx, currency, beneficiary)
}

func (f *liveFees) GetSplit(ctx context.Context, code string) (*fee.AffiliateSplit, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.repo().GetSplit(ctx, code)
}

func (f *liveFees) UpsertSplit(ctx context.Context, sp *fee.AffiliateSplit) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.repo().UpsertSplit(ctx, sp)
}

func repos(st *state) uow.Repos {
	return uow.Repos{
		Loans:     &loanRepo{st: st},
		Fees:      &feeRepo{st: st},
		Funds:     &fundsRepo{st: st},
		Bundles:   &custodyRepo{st: st},
		Positions: &positionRepo{st: st},
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	trial := s.st.clone()
	if err := fn(repos(trial)); err != nil {
		return err
	}
	s.st = trial
	return nil
}

func (s *Store) WithinLoanTx(ctx context.Context, loanID uint64, fn func(r uow.Repos, l *loan.Loan) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	trial := s.st.clone()
	r := repos(trial)
	l, err := r.Loans.GetByIDForUpdate(ctx, loanID)
	if err != nil {
		return err
	}
	if err := fn(r, l); err != nil {
		return err
	}
	s.st = trial
	return nil
}

// ---- loan repository ----

type loanRepo struct{ st *state }

func (r *loanRepo) Create(_ context.Context, l *loan.Loan) error {
	if l.ID == 0 {
		l.ID = r.st.nextLoanID
		r.st.nextLoanID++
	}
	r.st.loans[l.ID] = *l
	return nil
}

func (r *loanRepo) GetByID(_ context.Context, loanID uint64) (*loan.Loan, error) {
	l, ok := r.st.loans[loanID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &l, nil
}

func (r *loanRepo) GetByIDForUpdate(ctx context.Context, loanID uint64) (*loan.Loan, error) {
	return r.GetByID(ctx, loanID)
}

func (r *loanRepo) Save(_ context.Context, l *loan.Loan) error {
	if _, ok := r.st.loans[l.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.st.loans[l.ID] = *l
	return nil
}

func (r *loanRepo) GetReceipt(_ context.Context, loanID uint64) (*loan.NoteReceipt, error) {
	rc, ok := r.st.receipts[loanID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &rc, nil
}

func (r *loanRepo) CreateReceipt(_ context.Context, rc *loan.NoteReceipt) error {
	if _, ok := r.st.receipts[rc.LoanID]; ok {
		return fmt.Errorf("memledger: receipt already outstanding for loan %d", rc.LoanID)
	}
	r.st.receipts[rc.LoanID] = *rc
	return nil
}

func (r *loanRepo) DeleteReceipt(_ context.Context, loanID uint64) error {
	delete(r.st.receipts, loanID)
	return nil
}

// ---- fee repository ----

type feeRepo struct{ st *state }

func (r *feeRepo) Credit(_ context.Context, currency, beneficiary string, amount int64) error {
	r.st.fees[pairKey(currency, beneficiary)] += amount
	return nil
}

func (r *feeRepo) Debit(_ context.Context, currency, beneficiary string, amount int64) error {
	k := pairKey(currency, beneficiary)
	if r.st.fees[k] < amount {
		return fee.ErrInsufficientWithdrawable
	}
	r.st.fees[k] -= amount
	return nil
}

func (r *feeRepo) Withdrawable(_ context.Context, currency, beneficiary string) (int64, error) {
	return r.st.fees[pairKey(currency, beneficiary)], nil
}

func (r *feeRepo) GetSplit(_ context.Context, code string) (*fee.AffiliateSplit, error) {
	s, ok := r.st.splits[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (r *feeRepo) UpsertSplit(_ context.Context, s *fee.AffiliateSplit) error {
	r.st.splits[s.Code] = *s
	return nil
}

// ---- funds repository ----

type fundsRepo struct{ st *state }

func (r *fundsRepo) Get(_ context.Context, currency, holder string) (*funds.Account, error) {
	a, ok := r.st.accounts[pairKey(currency, holder)]
	if !ok {
		return nil, funds.ErrAccountNotFound
	}
	return &a, nil
}

func (r *fundsRepo) Debit(ctx context.Context, currency, holder string, amount int64) error {
	a, err := r.Get(ctx, currency, holder)
	if err != nil {
		return err
	}
	if a.Balance < amount {
		return funds.ErrInsufficientFunds
	}
	a.Balance -= amount
	r.st.accounts[pairKey(currency, holder)] = *a
	return nil
}

func (r *fundsRepo) Credit(ctx context.Context, currency, holder string, amount int64) error {
	a, err := r.Get(ctx, currency, holder)
	if err != nil {
		r.st.accounts[pairKey(currency, holder)] = funds.Account{Currency: currency, Holder: holder, Balance: amount}
		return nil
	}
	if a.Blocked {
		return funds.ErrAccountBlocked
	}
	a.Balance += amount
	r.st.accounts[pairKey(currency, holder)] = *a
	return nil
}

func (r *fundsRepo) SetBlocked(ctx context.Context, currency, holder string, blocked bool) error {
	a, err := r.Get(ctx, currency, holder)
	if err != nil {
		r.st.accounts[pairKey(currency, holder)] = funds.Account{Currency: currency, Holder: holder, Blocked: blocked}
		return nil
	}
	a.Blocked = blocked
	r.st.accounts[pairKey(currency, holder)] = *a
	return nil
}

// ---- custody repository ----

type custodyRepo struct{ st *state }

func (r *custodyRepo) OwnerOf(_ context.Context, bundleID string) (string, error) {
	owner, ok := r.st.bundles[bundleID]
	if !ok {
		return "", collateral.ErrBundleNotFound
	}
	return owner, nil
}

func (r *custodyRepo) Transfer(_ context.Context, bundleID, to string) error {
	if _, ok := r.st.bundles[bundleID]; !ok {
		return collateral.ErrBundleNotFound
	}
	r.st.bundles[bundleID] = to
	return nil
}

func (r *custodyRepo) Register(_ context.Context, b *collateral.Bundle) error {
	r.st.bundles[b.BundleID] = b.Owner
	return nil
}

// ---- position repository ----

type positionRepo struct{ st *state }

func (r *positionRepo) Create(_ context.Context, p *position.Position) error {
	r.st.positions[posKey(p.LoanID, p.Side)] = *p
	return nil
}

func (r *positionRepo) Holder(_ context.Context, loanID uint64, side position.Side) (string, error) {
	p, ok := r.st.positions[posKey(loanID, side)]
	if !ok || p.Burned {
		return "", position.ErrNotFound
	}
	return p.Holder, nil
}

func (r *positionRepo) Transfer(_ context.Context, loanID uint64, side position.Side, to string) error {
	if side != position.SideLender {
		return position.ErrNotTransferable
	}
	p, ok := r.st.positions[posKey(loanID, side)]
	if !ok || p.Burned {
		return position.ErrNotFound
	}
	p.Holder = to
	r.st.positions[posKey(loanID, side)] = p
	return nil
}

func (r *positionRepo) Burn(_ context.Context, loanID uint64, side position.Side) error {
	p, ok := r.st.positions[posKey(loanID, side)]
	if !ok {
		return position.ErrNotFound
	}
	p.Burned = true
	r.st.positions[posKey(loanID, side)] = p
	return nil
}
