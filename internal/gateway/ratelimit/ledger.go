package ratelimit

import (
	"context"
	"time"

	"github.com/evamind/gateway/internal/gateway/store"
)

// Ledger counts calls straight from the request ledger using the database
// clock. It never records anything itself; the audit logger's admitted
// ledger entries are the count.
type Ledger struct {
	logs store.RequestLogs
}

func NewLedger(logs store.RequestLogs) *Ledger {
	return &Ledger{logs: logs}
}

func (l *Ledger) Check(ctx context.Context, clientID string, limit int, window time.Duration) (Decision, error) {
	w, err := l.logs.RequestWindow(ctx, clientID, window)
	if err != nil {
		return Decision{}, err
	}

	if w.Count >= limit {
		return deny(w.Count, limit, w.Oldest, w.Now, window), nil
	}
	return Decision{Allowed: true, Count: w.Count + 1, Limit: limit}, nil
}
