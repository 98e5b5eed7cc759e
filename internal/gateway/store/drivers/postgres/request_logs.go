package postgres

import (
	"context"
	"time"

	"github.com/evamind/gateway/internal/gateway/domain"
	"github.com/evamind/gateway/pkg/idx"
	"github.com/jackc/pgx/v5/pgxpool"
)

type requestLogsRepo struct {
	pool *pgxpool.Pool
}

func (r *requestLogsRepo) AppendRequestLog(ctx context.Context, e domain.RequestLogEntry) error {
	if e.ID == "" {
		e.ID = idx.New().String()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO request_logs (id, client_id, method, endpoint, status_code, admitted, latency_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, optionalString(e.ClientID), e.Method, e.Endpoint, e.StatusCode, e.Admitted, e.Latency.Milliseconds(),
	)
	return mapConstraint(err)
}

func (r *requestLogsRepo) RequestWindow(ctx context.Context, clientID string, window time.Duration) (domain.RequestWindow, error) {
	var count, oldest, now int64
	err := r.pool.QueryRow(ctx, `
		WITH clock AS (SELECT `+nowMillis+` AS now_ms)
		SELECT COUNT(l.id), COALESCE(MIN(l.created_at), 0), clock.now_ms
		FROM clock
		LEFT JOIN request_logs l
		  ON l.client_id = $1
		 AND l.admitted
		 AND l.created_at > clock.now_ms - $2
		GROUP BY clock.now_ms`,
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
	rows, err := r.pool.Query(ctx, `
		SELECT id, client_id, method, endpoint, status_code, admitted, latency_ms, created_at
		FROM request_logs
		WHERE client_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, clientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RequestLogEntry
	for rows.Next() {
		var (
			e                    domain.RequestLogEntry
			client               *string
			latencyMs, createdAt int64
		)
		if err := rows.Scan(&e.ID, &client, &e.Method, &e.Endpoint, &e.StatusCode, &e.Admitted, &latencyMs, &createdAt); err != nil {
			return nil, err
		}
		if client != nil {
			e.ClientID = *client
		}
		e.Latency = time.Duration(latencyMs) * time.Millisecond
		e.CreatedAt = fromMillis(createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}
