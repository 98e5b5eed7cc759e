package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/evamind/gateway/internal/gateway/domain"
	"github.com/evamind/gateway/internal/gateway/metrics"
	"github.com/evamind/gateway/internal/gateway/store"
	"github.com/evamind/gateway/pkg/idx"
)

// DefaultAuditBuffer is the queue length of an asynchronous AuditLogger.
const DefaultAuditBuffer = 1024

// AuditLogger appends one ledger entry per resolved call. Persistence
// failures are logged and counted, never returned.
//
// With a buffer the entries are written by a background worker; when the
// queue is full the entry is written inline instead of being dropped. A
// zero buffer writes every entry inline.
type AuditLogger struct {
	logs   store.RequestLogs
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan domain.RequestLogEntry
	done   chan struct{}
}

func NewAuditLogger(logs store.RequestLogs, logger *slog.Logger, buffer int) *AuditLogger {
	a := &AuditLogger{logs: logs, logger: logger, done: make(chan struct{})}
	if buffer <= 0 {
		close(a.done)
		return a
	}

	a.queue = make(chan domain.RequestLogEntry, buffer)
	go a.run()
	return a
}

// Record enqueues e. The caller's cancellation does not reach the write.
func (a *AuditLogger) Record(ctx context.Context, e domain.RequestLogEntry) {
	if e.ID == "" {
		e.ID = idx.New().String()
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		metrics.AuditDropped.Inc()
		a.logger.Warn("audit entry dropped after shutdown", slog.String("endpoint", e.Endpoint))
		return
	}

	if a.queue != nil {
		select {
		case a.queue <- e:
			return
		default:
		}
	}
	a.write(context.WithoutCancel(ctx), e)
}

func (a *AuditLogger) run() {
	defer close(a.done)
	for e := range a.queue {
		a.write(context.Background(), e)
	}
}

func (a *AuditLogger) write(ctx context.Context, e domain.RequestLogEntry) {
	if err := a.logs.AppendRequestLog(ctx, e); err != nil {
		metrics.AuditFailures.Inc()
		a.logger.Error("failed to append request log",
			slog.String("client_id", e.ClientID),
			slog.String("endpoint", e.Endpoint),
			slog.Int("status", e.StatusCode),
			slog.Any("error", err),
		)
	}
}

// Close stops accepting entries and waits for the queue to drain or ctx
// to end.
func (a *AuditLogger) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		if a.queue != nil {
			close(a.queue)
		}
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
