package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/novatasks/nova/internal/concurrency"
)

// Sweeper evicts idle sessions on a fixed schedule. Eviction takes the same
// per-principal lock the worker holds while processing a turn, so a session
// being appended to is never destroyed out from under the orchestrator.
type Sweeper struct {
	store    Store
	locks    *concurrency.KeyedLockManager
	idleTTL  time.Duration
	interval time.Duration
	cron     *cron.Cron
	entryID  cron.EntryID
}

func NewSweeper(store Store, locks *concurrency.KeyedLockManager, idleTTL, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		locks:    locks,
		idleTTL:  idleTTL,
		interval: interval,
		cron:     cron.New(),
	}
}

func (s *Sweeper) Start() error {
	if s.idleTTL <= 0 {
		slog.Info("Session idle eviction disabled")
		return nil
	}

	spec := fmt.Sprintf("@every %s", s.interval)
	id, err := s.cron.AddFunc(spec, s.Sweep)
	if err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}
	s.entryID = id
	s.cron.Start()

	slog.Info("Session sweeper started", "idle_ttl", s.idleTTL, "interval", s.interval)
	return nil
}

func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep runs one eviction pass. Idleness is rechecked under the principal
// lock: a turn that arrived between the scan and the lock acquisition
// refreshes the session and spares it.
func (s *Sweeper) Sweep() {
	for _, owner := range s.store.IdleOwners(s.idleTTL) {
		s.locks.Lock(owner)
		s.store.DestroyIfIdle(owner, s.idleTTL)
		s.locks.Unlock(owner)
	}
}
