package logger

import (
	"context"
	"sync/atomic"
	"time"
)

type queryStatsKey struct{}

// QueryStats accumulates the number of SQL statements issued while serving
// one request and the time spent in them.
type QueryStats struct {
	count   atomic.Int64
	elapsed atomic.Int64
}

// WithQueryStats returns a context that collects query statistics.
func WithQueryStats(ctx context.Context) (context.Context, *QueryStats) {
	qs := &QueryStats{}
	return context.WithValue(ctx, queryStatsKey{}, qs), qs
}

// QueryStatsFrom returns the collector stored in ctx, or nil.
func QueryStatsFrom(ctx context.Context) *QueryStats {
	if ctx == nil {
		return nil
	}
	qs, _ := ctx.Value(queryStatsKey{}).(*QueryStats)
	return qs
}

// Record adds one statement that took d.
func (q *QueryStats) Record(d time.Duration) {
	q.count.Add(1)
	q.elapsed.Add(int64(d))
}

// Count returns the number of recorded statements.
func (q *QueryStats) Count() int64 {
	return q.count.Load()
}

// Elapsed returns the total time spent in recorded statements.
func (q *QueryStats) Elapsed() time.Duration {
	return time.Duration(q.elapsed.Load())
}
