// Package stats tracks in-process operation volume for the storage layer.
//
// Counters are plain atomics shared by reference across request handlers; a
// Reporter periodically logs a snapshot and resets the window. Counters are
// approximate by design and carry no durability guarantees.
package stats

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Tracker accumulates operation counters. The zero value is not ready for
// use; construct with NewTracker. Safe for concurrent use.
type Tracker struct {
	upserts  atomic.Uint64
	searches atomic.Uint64
	deletes  atomic.Uint64
	started  time.Time
}

// NewTracker creates a Tracker with its uptime clock started.
func NewTracker() *Tracker {
	return &Tracker{started: time.Now()}
}

// AddUpserts records count successful upserts.
func (t *Tracker) AddUpserts(count uint64) {
	t.upserts.Add(count)
}

// IncSearches records one search or scroll operation.
func (t *Tracker) IncSearches() {
	t.searches.Add(1)
}

// IncDeletes records one delete operation.
func (t *Tracker) IncDeletes() {
	t.deletes.Add(1)
}

// Snapshot returns the current counter values and uptime.
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		Upserts:  t.upserts.Load(),
		Searches: t.searches.Load(),
		Deletes:  t.deletes.Load(),
		Uptime:   time.Since(t.started),
	}
}

// Reset zeroes the window counters. Uptime is not reset.
func (t *Tracker) Reset() {
	t.upserts.Store(0)
	t.searches.Store(0)
	t.deletes.Store(0)
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	Upserts  uint64        `json:"upserts"`
	Searches uint64        `json:"searches"`
	Deletes  uint64        `json:"deletes"`
	Uptime   time.Duration `json:"-"`
}

// FormatUptime renders uptime as "1d 2h 3m", dropping leading zero units.
func (s Snapshot) FormatUptime() string {
	secs := int64(s.Uptime.Seconds())
	days := secs / 86400
	hours := (secs % 86400) / 3600
	minutes := (secs % 3600) / 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// Reporter logs a snapshot of a Tracker on a fixed interval and resets the
// window counters afterwards.
type Reporter struct {
	tracker  *Tracker
	interval time.Duration
	logger   *zap.Logger
}

// NewReporter creates a Reporter. Interval must be positive.
func NewReporter(tracker *Tracker, interval time.Duration, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{
		tracker:  tracker,
		interval: interval,
		logger:   logger.Named("stats"),
	}
}

// Run reports until ctx is canceled. It blocks; run it on its own goroutine.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := r.tracker.Snapshot()
			r.logger.Info("operation stats",
				zap.Uint64("upserts", snap.Upserts),
				zap.Uint64("searches", snap.Searches),
				zap.Uint64("deletes", snap.Deletes),
				zap.String("uptime", snap.FormatUptime()))
			r.tracker.Reset()
		}
	}
}
