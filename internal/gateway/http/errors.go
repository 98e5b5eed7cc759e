package http

import (
	"errors"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/evamind/gateway/internal/gateway/service"
	"github.com/evamind/gateway/pkg/gatewaysdk"
	"github.com/evamind/gateway/pkg/httpx"
	"github.com/evamind/gateway/pkg/slogx"
)

// errMissingToken stands for an absent or unparseable Authorization header.
var errMissingToken = errors.New("missing_token")

// writeServiceError maps err onto its stable status and error code. The
// body only ever carries the generic category message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	l := slogx.FromContext(r.Context())

	var (
		rl *service.RateLimitedError
		de *service.DownstreamError
	)
	switch {
	case errors.Is(err, errMissingToken):
		httpx.SetBearerChallenge(w, "", "")
		gatewaysdk.ErrInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrTokenMalformed),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrTokenRevoked):
		httpx.SetBearerChallenge(w, gatewaysdk.ErrorCodeInvalidToken, "")
		gatewaysdk.ErrInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		gatewaysdk.ErrInvalidClient.WriteError(w)
	case errors.Is(err, service.ErrClientNotAuthorized):
		gatewaysdk.ErrAccessDenied.WriteError(w)
	case errors.Is(err, service.ErrInsufficientScope):
		httpx.SetBearerChallenge(w, gatewaysdk.ErrorCodeInsufficientScope, "")
		gatewaysdk.ErrInsufficientScope.WriteError(w)
	case errors.As(err, &rl):
		gatewaysdk.ErrRateLimitExceeded.WithRetryAfter(rl.RetryAfter).WriteError(w)
	case errors.Is(err, service.ErrNotFound):
		gatewaysdk.ErrNotFound.WriteError(w)
	case errors.Is(err, service.ErrDownstreamUnavailable):
		l.Warn("downstream unavailable", slog.Any("error", err))
		gatewaysdk.ErrDownstreamUnavailable.WriteError(w)
	case errors.As(err, &de):
		l.Warn("downstream error",
			slog.Int("downstream_status", de.Status),
			slog.String("downstream_body", truncate(string(de.Body), 512)),
		)
		gatewaysdk.ErrDownstreamError.WriteError(w)
	case errors.Is(err, service.ErrDownstream):
		l.Warn("downstream error", slog.Any("error", err))
		gatewaysdk.ErrDownstreamError.WriteError(w)
	case errors.Is(err, service.ErrInvalidScope):
		gatewaysdk.ErrInvalidScope.WriteError(w)
	case errors.Is(err, service.ErrClientExists):
		gatewaysdk.ErrConflict.WriteError(w)
	case errors.Is(err, service.ErrEmptyUpdate):
		gatewaysdk.ErrInvalidRequest.WithDescription("update changes nothing").WriteError(w)
	default:
		l.Error("request failed", slog.Any("error", err))
		gatewaysdk.ErrServerError.WriteError(w)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
