package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"loanledger/internal/domain/loan"

	"github.com/redis/go-redis/v9"
)

// LoanCache is a read-through snapshot cache for loan rows. Misses and redis
// failures both read as "not cached"; the database stays authoritative.
type LoanCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLoanCache(rdb *redis.Client, ttl time.Duration) *LoanCache {
	return &LoanCache{rdb: rdb, ttl: ttl}
}

func key(loanID uint64) string { return "loan:snapshot:" + strconv.FormatUint(loanID, 10) }

func (c *LoanCache) Get(ctx context.Context, loanID uint64) (*loan.Loan, bool) {
	b, err := c.rdb.Get(ctx, key(loanID)).Bytes()
	if err != nil {
		return nil, false
	}
	var l loan.Loan
	if err := json.Unmarshal(b, &l); err != nil {
		return nil, false
	}
	return &l, true
}

func (c *LoanCache) Set(ctx context.Context, l *loan.Loan) {
	b, err := json.Marshal(l)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, key(l.ID), b, c.ttl).Err()
}

func (c *LoanCache) Invalidate(ctx context.Context, loanID uint64) {
	_ = c.rdb.Del(ctx, key(loanID)).Err()
}
