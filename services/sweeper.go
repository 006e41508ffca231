package services

import (
	"context"
	"errors"
	"time"

	"github.com/Govind-619/RentSphere/models"
	"github.com/Govind-619/RentSphere/store"
	"github.com/Govind-619/RentSphere/utils"
	"github.com/robfig/cron/v3"
)

const sweepBatchSize = 100

// PendingSweeper cancels PENDING bookings whose start date has passed without payment.
// Cancellation goes through UpdateBookingStatus as SystemActor.
type PendingSweeper struct {
	cron     *cron.Cron
	schedule string
	store    store.Store
	bookings *BookingService
	now      func() time.Time
}

// NewPendingSweeper creates a sweeper that runs on a cron schedule such as "@every 15m"
func NewPendingSweeper(s store.Store, bookings *BookingService, schedule string) *PendingSweeper {
	return &PendingSweeper{
		cron:     cron.New(),
		schedule: schedule,
		store:    s,
		bookings: bookings,
		now:      time.Now,
	}
}

// Start registers the sweep job and starts the scheduler
func (p *PendingSweeper) Start() error {
	_, err := p.cron.AddFunc(p.schedule, func() {
		if _, err := p.Sweep(context.Background()); err != nil {
			utils.LogError("Pending booking sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	p.cron.Start()
	utils.LogInfo("Pending booking sweeper started (%s)", p.schedule)
	return nil
}

// Stop waits for a running sweep to finish
func (p *PendingSweeper) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
	utils.LogInfo("Pending booking sweeper stopped")
}

// Sweep cancels one batch of stale PENDING bookings and returns how many it cancelled.
// Bookings that moved on concurrently, e.g. paid meanwhile, are skipped.
func (p *PendingSweeper) Sweep(ctx context.Context) (int, error) {
	stale, err := p.store.ListStalePendingBookings(ctx, p.now(), sweepBatchSize)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, b := range stale {
		_, err := p.bookings.UpdateBookingStatus(ctx, SystemActor, b.ID, models.BookingStatusCancelled)
		switch {
		case err == nil:
			cancelled++
		case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrBookingNotFound):
			utils.LogDebug("Skipping booking %s during sweep: %v", b.ID, err)
		default:
			utils.LogError("Failed to cancel stale booking %s: %v", b.ID, err)
		}
	}
	if cancelled > 0 {
		utils.LogInfo("Cancelled %d stale pending bookings", cancelled)
	}
	return cancelled, nil
}
