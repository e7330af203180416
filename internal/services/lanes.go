package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/metrics"
)

// ErrPipelineClosed is returned when work is submitted after shutdown
var ErrPipelineClosed = errors.New("pipeline closed")

// laneGroup runs jobs in one goroutine per key: jobs of a key run one at a
// time in submission order, jobs of different keys run in parallel. A lane
// is created on first use and stops after idle time without work.
type laneGroup struct {
	name  string
	idle  time.Duration
	clock clockwork.Clock

	mu     sync.Mutex
	lanes  map[string]*lane
	closed bool
	wg     sync.WaitGroup
}

type lane struct {
	queue []func()
	wake  chan struct{}
}

func newLaneGroup(name string, idle time.Duration, clock clockwork.Clock) *laneGroup {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if idle <= 0 {
		idle = time.Minute
	}
	return &laneGroup{
		name:  name,
		idle:  idle,
		clock: clock,
		lanes: make(map[string]*lane),
	}
}

// enqueue appends job to the lane of key, starting the lane if needed
func (g *laneGroup) enqueue(key string, job func()) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrPipelineClosed
	}

	l, ok := g.lanes[key]
	if !ok {
		l = &lane{wake: make(chan struct{}, 1)}
		g.lanes[key] = l
		g.wg.Add(1)
		metrics.ActiveLanes.WithLabelValues(g.name).Inc()
		go g.run(key, l)
	}

	l.queue = append(l.queue, job)
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

func (g *laneGroup) run(key string, l *lane) {
	defer g.wg.Done()
	defer metrics.ActiveLanes.WithLabelValues(g.name).Dec()

	for {
		g.mu.Lock()
		if len(l.queue) > 0 {
			job := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			g.mu.Unlock()

			job()
			continue
		}
		if g.closed {
			delete(g.lanes, key)
			g.mu.Unlock()
			return
		}
		g.mu.Unlock()

		select {
		case <-l.wake:
		case <-g.clock.After(g.idle):
			g.mu.Lock()
			if len(l.queue) == 0 {
				delete(g.lanes, key)
				g.mu.Unlock()
				return
			}
			g.mu.Unlock()
		}
	}
}

// size returns the number of live lanes
func (g *laneGroup) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.lanes)
}

// close refuses new work and waits until every queued job has run
func (g *laneGroup) close(ctx context.Context) error {
	g.mu.Lock()
	g.closed = true
	for _, l := range g.lanes {
		select {
		case l.wake <- struct{}{}:
		default:
		}
	}
	g.mu.Unlock()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
