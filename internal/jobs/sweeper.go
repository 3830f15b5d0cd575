// Package jobs holds the scheduled background work.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/interview"
)

// Sweeper periodically abandons sessions whose participants dropped off
// without a clean disconnect (process restart, network partition), so
// history records are not lost forever.
type Sweeper struct {
	log        *zap.Logger
	coord      *interview.Coordinator
	schedule   string
	staleAfter time.Duration
	cron       *cron.Cron
}

func NewSweeper(log *zap.Logger, coord *interview.Coordinator, schedule string, staleAfter time.Duration) *Sweeper {
	return &Sweeper{
		log:        log,
		coord:      coord,
		schedule:   schedule,
		staleAfter: staleAfter,
		cron:       cron.New(),
	}
}

func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		s.coord.SweepStale(context.Background(), s.staleAfter)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("stale session sweeper started",
		zap.String("schedule", s.schedule),
		zap.Duration("staleAfter", s.staleAfter))
	return nil
}

func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
