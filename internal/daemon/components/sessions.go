package components

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/novatasks/nova/internal/concurrency"
	"github.com/novatasks/nova/internal/config"
	"github.com/novatasks/nova/internal/daemon"
	"github.com/novatasks/nova/internal/session"
)

// SessionsComponent owns the ephemeral session store, the per-principal lock
// manager shared with the workers, and the idle-eviction sweeper.
type SessionsComponent struct {
	cfg         *config.SessionConfig
	store       session.Store
	locks       *concurrency.KeyedLockManager
	sweeper     *session.Sweeper
	initialized bool
	started     bool
	mu          sync.RWMutex
	startTime   time.Time
}

func NewSessionsComponent(cfg *config.SessionConfig) *SessionsComponent {
	return &SessionsComponent{
		cfg:         cfg,
		initialized: false,
		started:     false,
	}
}

func (s *SessionsComponent) Name() string {
	return "Sessions"
}

func (s *SessionsComponent) Dependencies() []string {
	return []string{}
}

func (s *SessionsComponent) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg == nil {
		return fmt.Errorf("session config not provided")
	}

	maxTurns := s.cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = config.DefaultSessionMaxTurns
	}

	idleTTL, err := config.DurationOrDefault(s.cfg.IdleTTL, config.DefaultSessionIdleTTL)
	if err != nil {
		return fmt.Errorf("parse session idle ttl: %w", err)
	}
	sweepInterval, err := config.DurationOrDefault(s.cfg.SweepInterval, config.DefaultSessionSweepInterval)
	if err != nil {
		return fmt.Errorf("parse session sweep interval: %w", err)
	}

	s.store = session.NewMemoryStore(maxTurns)
	s.locks = concurrency.NewKeyedLockManager()
	s.sweeper = session.NewSweeper(s.store, s.locks, idleTTL, sweepInterval)

	s.initialized = true
	slog.Info("Sessions initialized", "component", s.Name(), "max_turns", maxTurns, "idle_ttl", idleTTL)
	return nil
}

func (s *SessionsComponent) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return fmt.Errorf("Sessions not initialized")
	}

	if err := s.sweeper.Start(); err != nil {
		return fmt.Errorf("start session sweeper: %w", err)
	}

	s.started = true
	s.startTime = time.Now()
	slog.Info("Sessions started", "component", s.Name())
	return nil
}

func (s *SessionsComponent) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		slog.Info("Sessions not started, skipping stop", "component", s.Name())
		return nil
	}

	slog.Info("Stopping Sessions...", "component", s.Name())
	s.sweeper.Stop()
	s.started = false
	slog.Info("Sessions stopped", "component", s.Name())
	return nil
}

func (s *SessionsComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return &daemon.ComponentHealth{
			Name:    s.Name(),
			Healthy: false,
			Error:   fmt.Errorf("not initialized"),
		}, nil
	}

	if !s.started {
		return &daemon.ComponentHealth{
			Name:    s.Name(),
			Healthy: false,
			Error:   fmt.Errorf("not started"),
		}, nil
	}

	return &daemon.ComponentHealth{
		Name:    s.Name(),
		Healthy: true,
		Error:   nil,
	}, nil
}

func (s *SessionsComponent) GetStore() session.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

func (s *SessionsComponent) GetLocks() *concurrency.KeyedLockManager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locks
}
