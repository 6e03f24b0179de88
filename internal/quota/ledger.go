// Package quota tracks daily YouTube Data API unit consumption in Redis.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Unit costs of the Data API calls made by the service.
const (
	CostSearch     int64 = 100
	CostVideosList int64 = 1
)

// DefaultDailyLimit is the default project allowance of Data API units.
const DefaultDailyLimit int64 = 10000

const (
	keyPrefix = "vidrank:quota:"
	keyTTL    = 48 * time.Hour
)

// Usage is a snapshot of one UTC day's consumption.
type Usage struct {
	Date      string `json:"date"`
	Used      int64  `json:"used"`
	Limit     int64  `json:"limit"`
	Remaining int64  `json:"remaining"`
	Tracked   bool   `json:"tracked"`
}

// Ledger counts consumed units per UTC day. A Ledger with a nil client is a
// no-op: recording succeeds and usage reports as untracked.
type Ledger struct {
	client  *redis.Client
	limit   int64
	timeNow func() time.Time
}

// NewLedger creates a Ledger. A non-positive limit uses DefaultDailyLimit.
func NewLedger(client *redis.Client, limit int64) *Ledger {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	return &Ledger{client: client, limit: limit, timeNow: time.Now}
}

func (l *Ledger) key(day string) string {
	return keyPrefix + day
}

func (l *Ledger) today() string {
	return l.timeNow().UTC().Format(time.DateOnly)
}

// Record adds units to today's counter.
func (l *Ledger) Record(ctx context.Context, op string, units int64) error {
	if l == nil || l.client == nil || units <= 0 {
		return nil
	}

	key := l.key(l.today())
	pipe := l.client.TxPipeline()
	incr := pipe.IncrBy(ctx, key, units)
	pipe.Expire(ctx, key, keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record %s quota: %w", op, err)
	}

	if used := incr.Val(); used >= l.limit {
		slog.WarnContext(ctx, "daily quota exhausted",
			"op", op,
			"used", used,
			"limit", l.limit)
	}
	return nil
}

// Usage returns today's consumption.
func (l *Ledger) Usage(ctx context.Context) (Usage, error) {
	if l == nil {
		return Usage{}, nil
	}
	day := l.today()
	u := Usage{Date: day, Limit: l.limit, Remaining: l.limit}
	if l.client == nil {
		return u, nil
	}

	used, err := l.client.Get(ctx, l.key(day)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return u, fmt.Errorf("failed to read quota usage: %w", err)
	}

	u.Tracked = true
	u.Used = used
	u.Remaining = max(l.limit-used, 0)
	return u, nil
}
