package gatewaysdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/evamind/gateway/pkg/httpx"
)

// Error codes. The OAuth2 ones follow RFC 6749 and RFC 6750.
const (
	ErrorCodeInvalidRequest        = "invalid_request"
	ErrorCodeInvalidClient         = "invalid_client"
	ErrorCodeUnauthorizedClient    = "unauthorized_client"
	ErrorCodeUnsupportedGrantType  = "unsupported_grant_type"
	ErrorCodeInvalidScope          = "invalid_scope"
	ErrorCodeInvalidToken          = "invalid_token"
	ErrorCodeInsufficientScope     = "insufficient_scope"
	ErrorCodeAccessDenied          = "access_denied"
	ErrorCodeRateLimitExceeded     = "rate_limit_exceeded"
	ErrorCodeNotFound              = "not_found"
	ErrorCodeConflict              = "conflict"
	ErrorCodeDownstreamUnavailable = "downstream_unavailable"
	ErrorCodeDownstreamError       = "downstream_error"
	ErrorCodeServerError           = "server_error"
)

// APIError is the error body every gateway failure carries. It is written
// by the gateway and decoded by the Client.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`

	// RetryAfter is set from the Retry-After header on 429 responses.
	RetryAfter time.Duration `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes e as a JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	if e.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(e.RetryAfter.Seconds())))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: e.Code, ErrorDescription: e.Description})
}

// WithRetryAfter returns a copy of e carrying a retry hint.
func (e *APIError) WithRetryAfter(d time.Duration) *APIError {
	c := *e
	c.RetryAfter = d
	return &c
}

// WithDescription returns a copy of e with a different description.
func (e *APIError) WithDescription(desc string) *APIError {
	c := *e
	c.Description = desc
	return &c
}

func NewAPIError(statusCode int, code, description string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Description: description}
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrInvalidClient deliberately does not say whether the id or the
	// secret was wrong.
	ErrInvalidClient = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidClient,
		Description: "invalid credentials",
	}

	ErrUnauthorizedClient = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeUnauthorizedClient,
		Description: "the client is not authorized to obtain tokens",
	}

	ErrUnsupportedGrantType = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeUnsupportedGrantType,
		Description: "grant type not supported",
	}

	ErrInvalidScope = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidScope,
		Description: "requested scope is invalid",
	}

	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "the access token is missing, invalid, expired or revoked",
	}

	ErrAccessDenied = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeAccessDenied,
		Description: "access denied",
	}

	ErrInsufficientScope = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeInsufficientScope,
		Description: "forbidden",
	}

	ErrRateLimitExceeded = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeRateLimitExceeded,
		Description: "rate limit exceeded",
	}

	ErrNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "resource not found",
	}

	ErrConflict = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeConflict,
		Description: "resource already exists",
	}

	ErrDownstreamUnavailable = &APIError{
		StatusCode:  http.StatusServiceUnavailable,
		Code:        ErrorCodeDownstreamUnavailable,
		Description: "the resource service is unavailable",
	}

	ErrDownstreamError = &APIError{
		StatusCode:  http.StatusBadGateway,
		Code:        ErrorCodeDownstreamError,
		Description: "the resource service returned an error",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}

	ErrInvalidContentType = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "content-type must be application/x-www-form-urlencoded",
	}

	ErrInvalidFormBody = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "invalid form body",
	}
)

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		apiErr.Code = errResp.Error
		apiErr.Description = errResp.ErrorDescription
	} else {
		apiErr.Code = ErrorCodeServerError
		apiErr.Description = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return apiErr
}
