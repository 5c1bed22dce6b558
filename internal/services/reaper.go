package services

import (
	"context"
	"time"

	applog "freshmart/internal/log"
)

// HoldReleaser is the part of the ledger storage the reaper drives.
type HoldReleaser interface {
	ExpiredHolders(ctx context.Context, now time.Time, limit int) ([]string, error)
	ReleaseHolder(ctx context.Context, sessionID string, now time.Time) (int, error)
}

// CartExpirer drops a session's cart while no mutation of it is in flight.
type CartExpirer interface {
	Expire(ctx context.Context, sessionID string, release func(context.Context) (int, error)) (int, error)
}

// Reaper returns the stock held by abandoned carts.
type Reaper struct {
	Holds    HoldReleaser
	Carts    CartExpirer
	Interval time.Duration
	Batch    int
	now      func() time.Time
}

func NewReaper(holds HoldReleaser, carts CartExpirer, interval time.Duration) *Reaper {
	return &Reaper{Holds: holds, Carts: carts, Interval: interval, Batch: 100, now: time.Now}
}

// Run sweeps every Interval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	t := time.NewTicker(r.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
				applog.Error(nil, "reaper.sweep", err, nil)
			}
		}
	}
}

// Sweep releases one batch of expired sessions and reports how many it freed.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	now := r.now()
	ids, err := r.Holds.ExpiredHolders(ctx, now, r.Batch)
	if err != nil {
		return 0, err
	}
	reaped := 0
	for _, sid := range ids {
		n, err := r.Carts.Expire(ctx, sid, func(ctx context.Context) (int, error) {
			return r.Holds.ReleaseHolder(ctx, sid, now)
		})
		if err != nil {
			applog.Error(nil, "reaper.release", err, map[string]any{"session_id": sid})
			continue
		}
		if n == 0 {
			continue
		}
		reaped++
		applog.Info(nil, "reservation.reaped", map[string]any{"session_id": sid, "units": n})
	}
	return reaped, nil
}
