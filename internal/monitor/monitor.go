// Package monitor reports run progress while a simulation is in flight.
package monitor

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Status is a snapshot of run progress.
type Status struct {
	Done       int
	Total      int
	IonsPerSec float64
	Elapsed    time.Duration
}

// Service logs simulation throughput at a fixed interval. Progress is fed
// from the driver's per-batch callback, so a run that never reports stays
// silent.
type Service struct {
	log      zerolog.Logger
	interval time.Duration

	mu        sync.RWMutex
	isRunning bool
	startedAt time.Time
	done      int
	total     int

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewService creates a monitor that logs through the given logger.
// An interval of zero disables periodic reporting; Progress and Snapshot
// still work.
func NewService(log zerolog.Logger, interval time.Duration) *Service {
	return &Service{
		log:      log,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the periodic reporter is active.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Progress records that done of total ions have finished. It is safe to call
// from the simulation goroutine while the reporter runs.
func (s *Service) Progress(done, total int) {
	s.mu.Lock()
	s.done = done
	s.total = total
	s.mu.Unlock()
}

// Snapshot returns the current progress and throughput.
func (s *Service) Snapshot() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{Done: s.done, Total: s.total}
	if !s.startedAt.IsZero() {
		st.Elapsed = time.Since(s.startedAt)
		if st.Elapsed > 0 {
			st.IonsPerSec = float64(s.done) / st.Elapsed.Seconds()
		}
	}
	return st
}

// Start launches the periodic reporter. Calling Start on a running service
// is a no-op.
func (s *Service) Start() {
	s.mu.Lock()
	if s.isRunning || s.interval <= 0 {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				st := s.Snapshot()
				s.log.Info().
					Int("done", st.Done).
					Int("total", st.Total).
					Float64("ionsPerSec", st.IonsPerSec).
					Dur("elapsed", st.Elapsed).
					Msg("Simulation progress")
			}
		}
	}()
}

// Stop halts the periodic reporter and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	close(s.stopChan)
	s.wg.Wait()
}
