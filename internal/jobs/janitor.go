package jobs

import (
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Evictor drops its expired entries and reports how many went
type Evictor interface {
	EvictExpired() int
}

// JanitorJob periodically evicts expired sessions, tokens and webhook ids
type JanitorJob struct {
	interval time.Duration
	clock    clockwork.Clock
	targets  map[string]Evictor

	mu        sync.Mutex
	isRunning bool
	stop      chan struct{}
	done      chan struct{}
}

// NewJanitorJob creates a janitor sweeping targets every interval
func NewJanitorJob(interval time.Duration, clock clockwork.Clock, targets map[string]Evictor) *JanitorJob {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &JanitorJob{
		interval: interval,
		clock:    clock,
		targets:  targets,
	}
}

// Start begins the periodic sweep
func (j *JanitorJob) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.isRunning {
		log.Println("Janitor job already running")
		return
	}
	j.isRunning = true
	j.stop = make(chan struct{})
	j.done = make(chan struct{})

	go j.run(j.stop, j.done)
	log.Printf("🧹 Janitor job started (every %v)", j.interval)
}

// Stop halts the sweep and waits for the current one to finish
func (j *JanitorJob) Stop() {
	j.mu.Lock()
	if !j.isRunning {
		j.mu.Unlock()
		return
	}
	j.isRunning = false
	close(j.stop)
	done := j.done
	j.mu.Unlock()

	<-done
	log.Println("⏹️  Janitor job stopped")
}

func (j *JanitorJob) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := j.clock.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			j.Sweep()
		}
	}
}

// Sweep evicts expired entries from every target once
func (j *JanitorJob) Sweep() map[string]int {
	evicted := make(map[string]int, len(j.targets))
	for name, target := range j.targets {
		n := target.EvictExpired()
		evicted[name] = n
		if n > 0 {
			log.Printf("🧹 Evicted %d expired %s", n, name)
		}
	}
	return evicted
}
