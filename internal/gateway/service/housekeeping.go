package service

import (
	"log/slog"
	"time"
)

// Sweeper evicts stale in-memory state and reports how many entries it
// removed.
type Sweeper interface {
	Sweep() int
}

// SweeperFunc adapts a function to Sweeper.
type SweeperFunc func() int

func (f SweeperFunc) Sweep() int { return f() }

// HousekeepingService periodically sweeps the status cache, the in-memory
// rate limiter and the token endpoint throttle so they do not grow without
// bound.
type HousekeepingService struct {
	Logger   *slog.Logger
	Interval time.Duration
	Sweepers map[string]Sweeper

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to one minute.
func NewHousekeepingService(logger *slog.Logger, interval time.Duration, sweepers map[string]Sweeper) *HousekeepingService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &HousekeepingService{
		Logger:   logger,
		Interval: interval,
		Sweepers: sweepers,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the worker in the background until Stop is called.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts the worker down and waits for an in-progress sweep.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stopCh:
			return
		}
	}
}

// Sweep runs every sweeper once and returns the total removed.
func (s *HousekeepingService) Sweep() int {
	total := 0
	for name, sw := range s.Sweepers {
		n := sw.Sweep()
		total += n
		if n > 0 {
			s.Logger.Debug("swept entries", "sweeper", name, "removed", n)
		}
	}
	return total
}
