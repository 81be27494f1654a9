package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Closer is the part of the activity service the sweeper drives.
type Closer interface {
	CloseFinished(ctx context.Context) (int64, error)
}

// Sweeper periodically deactivates activities that have finished.
type Sweeper struct {
	cron    *cron.Cron
	closer  Closer
	timeout time.Duration
}

func NewSweeper(schedule string, closer Closer) (*Sweeper, error) {
	s := &Sweeper{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		closer:  closer,
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return nil, err
	}
	log.Printf("[sweeper] schedule=%q", schedule)
	return s, nil
}

func (s *Sweeper) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	closed, err := s.closer.CloseFinished(ctx)
	if err != nil {
		log.Printf("[sweeper] close finished activities: %v", err)
		return
	}
	if closed > 0 {
		log.Printf("[sweeper] closed %d finished activities", closed)
	}
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop waits for a running sweep to finish or ctx to end.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
