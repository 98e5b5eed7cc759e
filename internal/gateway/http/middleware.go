package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/evamind/gateway/internal/gateway/domain"
	"github.com/evamind/gateway/internal/gateway/metrics"
	"github.com/evamind/gateway/internal/gateway/service"
	"github.com/evamind/gateway/pkg/httpx"
	"github.com/evamind/gateway/pkg/slogx"
)

type (
	auditKey     struct{}
	principalKey struct{}
)

// auditRecord lets inner middleware report who the caller turned out to be.
type auditRecord struct {
	clientID string
	admitted bool
}

// auditMiddleware records one ledger entry per call, whatever the outcome.
// It must wrap every other step of the pipeline.
func auditMiddleware(a *service.AuditLogger) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &auditRecord{}
			ctx := context.WithValue(r.Context(), auditKey{}, rec)

			sw := httpx.NewStatusRecorder(w)
			next.ServeHTTP(sw, r.WithContext(ctx))

			a.Record(ctx, domain.RequestLogEntry{
				ClientID:   rec.clientID,
				Method:     r.Method,
				Endpoint:   r.URL.Path,
				StatusCode: sw.Status,
				Admitted:   rec.admitted,
				Latency:    time.Since(start),
			})
		})
	}
}

// authnMiddleware resolves the bearer token to a principal.
func authnMiddleware(tokens *service.TokenService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := httpx.BearerToken(r)
			if !ok {
				metrics.AuthFailures.WithLabelValues(errMissingToken.Error()).Inc()
				writeServiceError(w, r, errMissingToken)
				return
			}

			p, err := tokens.Validate(ctx, raw)
			if err != nil {
				reason := authFailureReason(err)
				metrics.AuthFailures.WithLabelValues(reason).Inc()
				if reason != "error" {
					slogx.FromContext(ctx).Warn("token rejected", slog.String("reason", reason), slog.Any("error", err))
				}
				writeServiceError(w, r, err)
				return
			}

			if rec, ok := ctx.Value(auditKey{}).(*auditRecord); ok {
				rec.clientID = p.ClientID
			}
			ctx = httpx.WithPrincipal(ctx, p.ClientID, p.TokenID, p.Scopes)
			ctx = context.WithValue(ctx, principalKey{}, p)
			ctx = slogx.WithContext(ctx, slogx.FromContext(ctx).With(slog.String("client_id", p.ClientID)))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authFailureReason(err error) string {
	switch {
	case errors.Is(err, service.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, service.ErrTokenRevoked):
		return "token_revoked"
	case errors.Is(err, service.ErrTokenMalformed):
		return "token_malformed"
	case errors.Is(err, service.ErrClientNotAuthorized):
		return "client_not_authorized"
	default:
		return "error"
	}
}

// requireScope rejects principals whose scopes miss req.
func requireScope(req service.ScopeRequirement) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := service.AuthorizeScopes(httpx.ScopesFromContext(r.Context()), req)
			if err != nil {
				var se *service.InsufficientScopeError
				if errors.As(err, &se) {
					slogx.FromContext(r.Context()).Warn("insufficient scope",
						slog.Any("missing", se.Missing), slog.String("required", req.String()))
				}
				metrics.AuthFailures.WithLabelValues("insufficient_scope").Inc()
				writeServiceError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware applies the principal's per-window limit.
func rateLimitMiddleware(rl *service.RateLimitService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := r.Context().Value(principalKey{}).(domain.Principal)
			if err := rl.Allow(r.Context(), p); err != nil {
				writeServiceError(w, r, err)
				return
			}
			if rec, ok := r.Context().Value(auditKey{}).(*auditRecord); ok {
				rec.admitted = true
			}
			next.ServeHTTP(w, r)
		})
	}
}
