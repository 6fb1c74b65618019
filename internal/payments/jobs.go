package payments

import (
	"context"
	"time"

	"eventhub/internal/bookings"
	"eventhub/internal/inventory"
	"eventhub/pkg/logger"

	"github.com/google/uuid"
)

// CompensationDrainer applies parked compensation tasks
type CompensationDrainer interface {
	DrainPending(ctx context.Context, limit int) (int, error)
}

// HoldFinder lists ledger references that still hold tickets
type HoldFinder interface {
	Outstanding(ctx context.Context, prefix string) ([]inventory.Hold, error)
}

// PendingExpirer cancels reservations whose payment never completed
type PendingExpirer interface {
	ExpirePending(ctx context.Context, olderThan time.Time, limit int) (int, error)
}

// JobConfig contains configuration for the reconciliation jobs
type JobConfig struct {
	Interval          time.Duration
	ClaimTimeout      time.Duration
	PendingBookingTTL time.Duration
	BatchSize         int
}

// DefaultJobConfig returns default job configuration
func DefaultJobConfig() *JobConfig {
	return &JobConfig{
		Interval:          time.Minute,
		ClaimTimeout:      2 * time.Minute,
		PendingBookingTTL: 30 * time.Minute,
		BatchSize:         50,
	}
}

// JobProcessor repairs what crashed or timed out fulfillments leave behind
type JobProcessor struct {
	repo        bookings.Repository
	holds       HoldFinder
	compensator bookings.Compensator
	drainer     CompensationDrainer
	expirer     PendingExpirer
	config      *JobConfig
	log         *logger.Logger
	done        chan struct{}
}

func NewJobProcessor(repo bookings.Repository, holds HoldFinder, compensator bookings.Compensator, drainer CompensationDrainer, expirer PendingExpirer, config *JobConfig, log *logger.Logger) *JobProcessor {
	if config == nil {
		config = DefaultJobConfig()
	}
	return &JobProcessor{
		repo:        repo,
		holds:       holds,
		compensator: compensator,
		drainer:     drainer,
		expirer:     expirer,
		config:      config,
		log:         log.WithComponent("reconciler"),
		done:        make(chan struct{}),
	}
}

// Run blocks, reconciling every interval until ctx is cancelled or Stop is called
func (jp *JobProcessor) Run(ctx context.Context) {
	ticker := time.NewTicker(jp.config.Interval)
	defer ticker.Stop()

	jp.log.Info("Started reconciliation jobs", "interval", jp.config.Interval.String())

	jp.RunOnce(ctx)
	for {
		select {
		case <-ticker.C:
			jp.RunOnce(ctx)
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (jp *JobProcessor) Stop() {
	close(jp.done)
}

// RunOnce executes one pass of every job
func (jp *JobProcessor) RunOnce(ctx context.Context) {
	if n, err := jp.drainer.DrainPending(ctx, jp.config.BatchSize); err != nil {
		jp.log.ErrorWithContext(ctx, "Error draining compensation tasks", err, nil)
	} else if n > 0 {
		jp.log.InfoContext(ctx, "Applied parked compensations", "count", n)
	}

	if n, err := jp.RecoverStaleClaims(ctx); err != nil {
		jp.log.ErrorWithContext(ctx, "Error recovering stale claims", err, nil)
	} else if n > 0 {
		jp.log.InfoContext(ctx, "Recovered stale fulfillment claims", "count", n)
	}

	before := time.Now().UTC().Add(-jp.config.PendingBookingTTL)
	if n, err := jp.expirer.ExpirePending(ctx, before, jp.config.BatchSize); err != nil {
		jp.log.ErrorWithContext(ctx, "Error expiring pending bookings", err, nil)
	} else if n > 0 {
		jp.log.InfoContext(ctx, "Expired pending bookings", "count", n)
	}
}

// RecoverStaleClaims takes over fulfillment claims older than the claim timeout, gives back
// any tickets their attempts debited, and frees the booking for another verify call.
func (jp *JobProcessor) RecoverStaleClaims(ctx context.Context) (int, error) {
	stale, err := jp.repo.FindStaleClaims(ctx, time.Now().UTC().Add(-jp.config.ClaimTimeout), jp.config.BatchSize)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for i := range stale {
		booking := &stale[i]
		token := uuid.NewString()
		ok, err := jp.repo.ReplaceClaim(ctx, booking.ID, booking.ClaimToken, token)
		if err != nil {
			return recovered, err
		}
		if !ok {
			// confirmed or released since we looked
			continue
		}

		// the old holder cannot confirm any more, so no attempt of this order may keep tickets
		holds, err := jp.holds.Outstanding(ctx, booking.PaymentOrderID+"#")
		if err != nil {
			return recovered, err
		}
		for _, hold := range holds {
			if err := jp.compensator.Compensate(ctx, hold.EventID, hold.Quantity, hold.Reference, inventory.ReasonCompensation); err != nil {
				jp.log.ErrorWithContext(ctx, "Failed to compensate abandoned attempt", err, map[string]interface{}{
					"reference": hold.Reference,
				})
			}
		}

		if _, err := jp.repo.ReleaseClaim(ctx, booking.ID, token); err != nil {
			return recovered, err
		}
		recovered++
	}
	return recovered, nil
}
