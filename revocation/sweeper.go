package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultSweepSchedule runs the sweep once an hour.
const DefaultSweepSchedule = "@every 1h"

const sweepTimeout = 30 * time.Second

// Sweeper periodically deletes expired revocation records.
type Sweeper struct {
	cron   *cron.Cron
	pruner Pruner
	logger zerolog.Logger
	now    func() time.Time
}

// NewSweeper schedules pruner on a standard cron spec or @every descriptor.
func NewSweeper(pruner Pruner, schedule string, logger zerolog.Logger, opts ...Option) (*Sweeper, error) {
	if pruner == nil {
		return nil, errors.New("nil pruner")
	}
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}

	o := applyOptions(opts)
	s := &Sweeper{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		pruner: pruner,
		logger: logger.With().Str("component", "revocation_sweeper").Logger(),
		now:    o.now,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("schedule revocation sweep %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running the schedule in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep prunes once and returns the number of removed records.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	return s.pruner.Prune(ctx, s.now())
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("revocation sweep failed")
		return
	}
	s.logger.Debug().Int64("pruned", n).Msg("revocation sweep finished")
}
