package fee

import "fmt"

// StaticSchedule is an in-process Schedule fed from configuration. Caps are
// enforced when a rate is set, not when it is read, so a later cap change
// never retroactively clips an already-configured rate.
type StaticSchedule struct {
	rates map[string]int64
	caps  map[string]int64
}

func NewStaticSchedule(caps map[string]int64) *StaticSchedule {
	c := make(map[string]int64, len(caps))
	for k, v := range caps {
		c[k] = v
	}
	return &StaticSchedule{rates: map[string]int64{}, caps: c}
}

// SetRate installs the current rate for a kind. Rates above the kind's cap
// are rejected.
func (s *StaticSchedule) SetRate(kind string, bps int64) error {
	if bps < 0 {
		return fmt.Errorf("fee rate %d for %s: %w", bps, kind, ErrRateAboveCap)
	}
	if limit, ok := s.caps[kind]; ok && bps > limit {
		return fmt.Errorf("fee rate %d for %s above cap %d: %w", bps, kind, limit, ErrRateAboveCap)
	}
	s.rates[kind] = bps
	return nil
}

func (s *StaticSchedule) Rate(kind string) int64 { return s.rates[kind] }

func (s *StaticSchedule) MaxRate(kind string) int64 { return s.caps[kind] }
