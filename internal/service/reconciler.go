package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Outcome aggregates one full reconciliation pass: approvals granted
// and declines closed out.
type Outcome struct {
	Approved ProcessReport
	Declined ProcessReport
}

// Reconciler serializes reconciliation runs. Individual request writes
// are idempotent, but two interleaved passes over the same batch would
// double count in their reports, so concurrent triggers are rejected
// rather than queued.
type Reconciler struct {
	lifecycle *LifecycleService
	interval  time.Duration
	mu        sync.Mutex
}

// NewReconciler creates a new Reconciler instance.
func NewReconciler(lifecycle *LifecycleService, interval time.Duration) *Reconciler {
	return &Reconciler{
		lifecycle: lifecycle,
		interval:  interval,
	}
}

// Run executes one reconciliation pass: process approvals, then close
// out declines. Returns ErrReconcileBusy if a pass is already running.
func (r *Reconciler) Run(ctx context.Context) (Outcome, error) {
	if !r.mu.TryLock() {
		return Outcome{}, ErrReconcileBusy
	}
	defer r.mu.Unlock()

	var out Outcome
	var err error

	out.Approved, err = r.lifecycle.ProcessApproved(ctx)
	if err != nil {
		return out, err
	}

	out.Declined, err = r.lifecycle.ProcessDeclined(ctx)
	if err != nil {
		return out, err
	}

	log.Info().
		Int("approved_processed", out.Approved.Processed).
		Int("approved_skipped", out.Approved.Skipped).
		Int("approved_failed", out.Approved.Failed).
		Int64("coins_granted", out.Approved.CoinsGranted).
		Int("declined_processed", out.Declined.Processed).
		Msg("Reconciliation pass completed")

	return out, nil
}

// Start launches the periodic reconciliation loop. It returns
// immediately; the loop stops when ctx is cancelled.
func (r *Reconciler) Start(ctx context.Context) {
	if r.interval <= 0 {
		log.Info().Msg("Periodic reconciliation disabled (no interval configured)")
		return
	}

	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		log.Info().Dur("interval", r.interval).Msg("Periodic reconciliation started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Periodic reconciliation stopped")
				return
			case <-ticker.C:
				if _, err := r.Run(ctx); err != nil {
					log.Error().Err(err).Msg("Periodic reconciliation pass failed")
				}
			}
		}
	}()
}
