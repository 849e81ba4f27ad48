// Package sweeper runs the recurring reservation-expiry job.
package sweeper

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/padelcana/courtbook/pkg/booking"
	"go.uber.org/zap"
)

// SweepInterval is how often expired payment holds are reclaimed.
const SweepInterval = time.Minute

// Sweeper owns the scheduler running the expiry sweep.
type Sweeper struct {
	scheduler gocron.Scheduler
	logger    *zap.Logger
}

// New schedules the expiry sweep against the booking service. The job never
// fails the process: a sweep error is logged and the next tick runs as usual.
func New(bookings *booking.Service, logger *zap.Logger) (*Sweeper, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(SweepInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), SweepInterval)
			defer cancel()
			cancelled, sweepErr := bookings.CancelExpiredHolds(ctx)
			if sweepErr != nil {
				logger.Error("expiry sweep failed", zap.Error(sweepErr))
				return
			}
			if cancelled > 0 {
				logger.Info("cancelled expired pending bookings", zap.Int64("count", cancelled))
			}
		}),
		gocron.WithName("booking-expiry-sweep"),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	return &Sweeper{scheduler: scheduler, logger: logger}, nil
}

// Start begins running the sweep on its interval.
func (sweeper *Sweeper) Start() {
	sweeper.logger.Info("expiry sweeper starting", zap.Duration("interval", SweepInterval))
	sweeper.scheduler.Start()
}

// Stop shuts the scheduler down.
func (sweeper *Sweeper) Stop() error {
	sweeper.logger.Info("expiry sweeper stopping")
	return sweeper.scheduler.Shutdown()
}
