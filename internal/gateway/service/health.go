package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/evamind/gateway/pkg/slogx"
	"golang.org/x/sync/errgroup"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"

	DefaultHealthProbeTimeout = 2 * time.Second
)

// HealthReport is the composite health verdict.
type HealthReport struct {
	Status     string `json:"status"`
	Local      string `json:"local"`
	Downstream string `json:"downstream"`
}

// Pinger reports whether a local dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Prober reports whether the downstream service is healthy.
type Prober interface {
	Probe(ctx context.Context) error
}

// HealthAggregator combines local and downstream checks. It never fails:
// an unreachable dependency is a reportable state.
type HealthAggregator struct {
	Local      Pinger
	Downstream Prober
	Timeout    time.Duration
}

func (h *HealthAggregator) Check(ctx context.Context) HealthReport {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultHealthProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	l := slogx.FromContext(ctx)
	report := HealthReport{Local: StatusHealthy, Downstream: StatusHealthy}

	var g errgroup.Group
	g.Go(func() error {
		if err := h.Local.Ping(ctx); err != nil {
			l.Warn("local health check failed", slog.Any("error", err))
			report.Local = StatusUnhealthy
		}
		return nil
	})
	g.Go(func() error {
		if err := h.Downstream.Probe(ctx); err != nil {
			l.Warn("downstream health probe failed", slog.Any("error", err))
			report.Downstream = StatusUnhealthy
		}
		return nil
	})
	_ = g.Wait()

	report.Status = StatusHealthy
	if report.Local != StatusHealthy || report.Downstream != StatusHealthy {
		report.Status = StatusDegraded
	}
	return report
}
