package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/evamind/gateway/internal/gateway/domain"
	"github.com/evamind/gateway/pkg/idx"
)

type requestLogsRepo struct {
	db *sql.DB
}

func (r *requestLogsRepo) AppendRequestLog(ctx context.Context, e domain.RequestLogEntry) error {
	if e.ID == "" {
		e.ID = idx.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO request_logs (id, client_id, method, endpoint, status_code, admitted, latency_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, mapStringNull(e.ClientID), e.Method, e.Endpoint, e.StatusCode, e.Admitted, e.Latency.Milliseconds(),
	)
	return mapConstraint(err)
}

func (r *requestLogsRepo) RequestWindow(ctx context.Context, clientID string, window time.Duration) (domain.RequestWindow, error) {
	var count, oldest, now int64
	err := r.db.QueryRowContext(ctx, `
		WITH clock AS (SELECT `+nowMillis+` AS now_ms)
		SELECT COUNT(l.id), COALESCE(MIN(l.created_at), 0), (SELECT now_ms FROM clock)
		FROM request_logs l
		WHERE l.client_id = ?
		  AND l.admitted = 1
		  AND l.created_at > (SELECT now_ms FROM clock) - ?`,
		clientID, window.Milliseconds(),
	).Scan(&count, &oldest, &now)
	if err != nil {
		return domain.RequestWindow{}, err
	}

	w := domain.RequestWindow{Count: int(count), Now: fromMillis(now)}
	if count > 0 {
		w.Oldest = fromMillis(oldest)
	}
	return w, nil
}

func (r *requestLogsRepo) ListRequestLogs(ctx context.Context, clientID string, limit int) ([]domain.RequestLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, client_id, method, endpoint, status_code, admitted, latency_ms, created_at
		FROM request_logs
		WHERE client_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, clientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RequestLogEntry
	for rows.Next() {
		var (
			e                    domain.RequestLogEntry
			client               sql.NullString
			latencyMs, createdAt int64
		)
		if err := rows.Scan(&e.ID, &client, &e.Method, &e.Endpoint, &e.StatusCode, &e.Admitted, &latencyMs, &createdAt); err != nil {
			return nil, err
		}
		e.ClientID = mapNullString(client)
		e.Latency = time.Duration(latencyMs) * time.Millisecond
		e.CreatedAt = fromMillis(createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}
