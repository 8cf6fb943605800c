package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/obraledger/obraledger/internal/models"
)

// DefaultInterval between automatic sync attempts.
const DefaultInterval = 5 * time.Minute

// SessionSource tells the scheduler whether anyone is signed in and feeds it
// identity changes. *auth.Service satisfies it.
type SessionSource interface {
	IsAuthenticated() bool
	Subscribe() (<-chan *models.AuthUser, func())
}

// Trigger is what the scheduler fires on each tick. *Engine satisfies it.
type Trigger interface {
	Sync(ctx context.Context) bool
}

// Scheduler invokes the engine on a fixed interval. Ticks are skipped while
// no identity is active; the identity channel resumes them on login. Calling
// Start again cancels the previous run. Stop prevents future ticks only, it
// does not interrupt an attempt already in flight.
type Scheduler struct {
	engine   Trigger
	sessions SessionSource
	interval time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a scheduler. A non-positive interval falls back to
// DefaultInterval; a nil logger falls back to slog default.
func NewScheduler(engine Trigger, sessions SessionSource, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		engine:   engine,
		sessions: sessions,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the timer loop. Any previous loop is stopped first.
func (s *Scheduler) Start(ctx context.Context) {
	s.Stop()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(runCtx, s.done)
	s.logger.Info("auto sync started", "interval", s.interval)
}

// Stop cancels the timer loop and waits for it to exit.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
	s.logger.Info("auto sync stopped")
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	identities, unsubscribe := s.sessions.Subscribe()
	defer unsubscribe()

	active := s.sessions.IsAuthenticated()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case user, ok := <-identities:
			if !ok {
				return
			}
			wasActive := active
			active = user != nil
			if active && !wasActive {
				s.logger.Debug("identity active, sync resumed")
			}
			if !active && wasActive {
				s.logger.Debug("no identity, sync suspended")
			}
		case <-ticker.C:
			if !active {
				continue
			}
			s.engine.Sync(ctx)
		}
	}
}
