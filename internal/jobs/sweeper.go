// Package jobs runs the background cleanup schedule.
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

type SessionSweeper interface {
	MarkAbandoned(ctx context.Context, startedBefore time.Time) (int64, error)
}

type Sweeper struct {
	scheduler *gocron.Scheduler
	sessions  SessionSweeper
	timeout   time.Duration
}

func NewSweeper(sessions SessionSweeper, timeout time.Duration) *Sweeper {
	return &Sweeper{
		scheduler: gocron.NewScheduler(time.UTC),
		sessions:  sessions,
		timeout:   timeout,
	}
}

// Start schedules the sweep and runs it in the background.
func (s *Sweeper) Start(interval time.Duration) {
	if _, err := s.scheduler.Every(interval).Do(s.sweep); err != nil {
		log.Printf("session sweep not scheduled: %v", err)
		return
	}
	s.scheduler.StartAsync()
}

func (s *Sweeper) Stop() {
	s.scheduler.Stop()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().UTC().Add(-s.timeout)
	n, err := s.sessions.MarkAbandoned(ctx, cutoff)
	if err != nil {
		log.Printf("session sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("session sweep: marked %d session(s) abandoned", n)
	}
}
