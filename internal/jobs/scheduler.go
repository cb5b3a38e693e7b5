package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// TokenSweeper removes review tokens that expired without ever being used.
type TokenSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// CacheCleaner drops stale entries and reports how many were removed.
type CacheCleaner interface {
	Cleanup() int
}

type Scheduler struct {
	cron    *cron.Cron
	sweeper TokenSweeper
	cleaner CacheCleaner
	log     zerolog.Logger
}

func NewScheduler(sweeper TokenSweeper, cleaner CacheCleaner, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:    c,
		sweeper: sweeper,
		cleaner: cleaner,
		log:     log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 3 * * *", s.sweepTokens); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 0 */1 * * *", s.cleanGeocache); err != nil { // hourly
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() context.CancelFunc {
	_, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	go func() {
		s.cron.Stop()
		cancel()
	}()
	return cancel
}

func (s *Scheduler) sweepTokens() {
	if s.sweeper == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.sweeper.SweepExpired(ctx); err != nil {
		s.log.Error().Err(err).Msg("review token sweep failed")
	}
}

func (s *Scheduler) cleanGeocache() {
	if s.cleaner == nil {
		return
	}
	if removed := s.cleaner.Cleanup(); removed > 0 {
		s.log.Info().Int("removed", removed).Msg("geocode cache cleaned")
	}
}
