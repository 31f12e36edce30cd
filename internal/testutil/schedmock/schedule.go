package schedmock

import "loanledger/internal/domain/fee"

// Ensure compile-time compliance
var _ fee.Schedule = (*Schedule)(nil)

// Schedule is a fixed-rate fee.Schedule for tests. Mutate Rates mid-test to
// model a schedule change between settlements.
type Schedule struct {
	Rates map[string]int64
	Caps  map[string]int64
}

func New(rates map[string]int64) *Schedule {
	return &Schedule{Rates: rates, Caps: map[string]int64{}}
}

func (s *Schedule) Rate(kind string) int64 { return s.Rates[kind] }

func (s *Schedule) MaxRate(kind string) int64 { return s.Caps[kind] }
