package gatewaysdk

import "time"

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// TokenResponse is returned by POST /oauth/token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// HealthResponse is the composite health report of GET /health.
type HealthResponse struct {
	Status     string `json:"status"`
	Local      string `json:"local"`
	Downstream string `json:"downstream"`
}

// ProbeResponse is returned by GET /livez and GET /readyz.
type ProbeResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// CreateClientRequest registers a new API client.
type CreateClientRequest struct {
	Name               string   `json:"name" validate:"required,max=128"`
	Scopes             []string `json:"scopes" validate:"required,min=1,dive,scope"`
	RateLimitPerMinute int      `json:"rate_limit_per_minute,omitempty" validate:"omitempty,min=1,max=100000"`
	Approved           bool     `json:"approved"`
}

// UpdateClientRequest changes the non-nil fields of a client.
type UpdateClientRequest struct {
	Active             *bool    `json:"active,omitempty"`
	Approved           *bool    `json:"approved,omitempty"`
	Scopes             []string `json:"scopes,omitempty" validate:"omitempty,min=1,dive,scope"`
	RateLimitPerMinute *int     `json:"rate_limit_per_minute,omitempty" validate:"omitempty,min=1,max=100000"`
}

// ClientResponse describes a registered client. The secret hash is never
// exposed.
type ClientResponse struct {
	ClientID           string    `json:"client_id"`
	Name               string    `json:"name"`
	Scopes             []string  `json:"scopes"`
	RateLimitPerMinute int       `json:"rate_limit_per_minute"`
	Active             bool      `json:"active"`
	Approved           bool      `json:"approved"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CreateClientResponse carries the plaintext secret, shown only once.
type CreateClientResponse struct {
	ClientResponse
	ClientSecret string `json:"client_secret"`
}

// RequestLogResponse is one ledger entry.
type RequestLogResponse struct {
	ID         string    `json:"id"`
	Method     string    `json:"method"`
	Endpoint   string    `json:"endpoint"`
	StatusCode int       `json:"status_code"`
	Admitted   bool      `json:"admitted"`
	LatencyMs  int64     `json:"latency_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// BootstrapRequest creates the first administrative client.
type BootstrapRequest struct {
	Name string `json:"name,omitempty" validate:"omitempty,max=128"`
}

// InfoResponse is returned by GET / and points at the other entry points.
type InfoResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Docs    string `json:"docs"`
	Health  string `json:"health"`
}
