package worker

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/novatasks/nova/internal/concurrency"
	"github.com/novatasks/nova/internal/errors"
	"github.com/novatasks/nova/internal/ingress"
)

// Router fans the shared ingress queue out to per-worker lanes keyed by a
// stable hash of the sender. Every event from one sender lands on the same
// lane, so arrival order survives a multi-worker pool: two workers can never
// race on consecutive turns of the same principal.
type Router struct {
	mu      sync.Mutex
	started bool
	quit    chan struct{}
	wg      sync.WaitGroup

	source <-chan *ingress.Event
	lanes  []chan *ingress.Event
}

func NewRouter(source <-chan *ingress.Event, laneCount, laneSize int) *Router {
	if laneCount <= 0 {
		laneCount = 1
	}
	if laneSize < 0 {
		laneSize = 0
	}

	lanes := make([]chan *ingress.Event, laneCount)
	for i := range lanes {
		lanes[i] = make(chan *ingress.Event, laneSize)
	}

	return &Router{
		source: source,
		lanes:  lanes,
	}
}

// Lane returns the receive side of lane n. Each worker drains exactly one
// lane.
func (r *Router) Lane(n int) <-chan *ingress.Event {
	return r.lanes[n]
}

func (r *Router) LaneCount() int {
	return len(r.lanes)
}

func (r *Router) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return errors.InvalidInput("router already started")
	}

	r.started = true
	r.quit = make(chan struct{})

	r.wg.Add(1)
	concurrency.SafeGo(func() {
		defer r.wg.Done()
		r.routeLoop(ctx)
	}, nil)

	return nil
}

func (r *Router) routeLoop(ctx context.Context) {
	defer func() {
		for _, lane := range r.lanes {
			close(lane)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.quit:
			return
		case evt, ok := <-r.source:
			if !ok {
				slog.Info("Router stopping (source closed)")
				return
			}
			if evt == nil {
				continue
			}
			select {
			case r.lanes[laneFor(evt.SenderID, len(r.lanes))] <- evt:
			case <-ctx.Done():
				return
			case <-r.quit:
				return
			}
		}
	}
}

// Stop drains nothing: the in-flight event, if any, is dropped with the
// queue. Lanes are closed so workers see end-of-stream.
func (r *Router) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return nil
	}

	close(r.quit)
	r.wg.Wait()
	r.started = false
	return nil
}

func laneFor(senderID string, lanes int) int {
	h := fnv.New32a()
	h.Write([]byte(senderID))
	return int(h.Sum32() % uint32(lanes))
}
