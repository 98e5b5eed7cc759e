package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/evamind/gateway/internal/gateway/metrics"
	"github.com/evamind/gateway/internal/gateway/service"
	"github.com/evamind/gateway/internal/gateway/store"
	"github.com/evamind/gateway/pkg/httpx"
	"github.com/evamind/gateway/pkg/slogx"

	_ "github.com/evamind/gateway/api/gateway" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers. The exported service
// fields must be set before ApplyRoutes.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	// per-IP limiters, swept by housekeeping
	throttles []*httpx.RateLimiter

	TokenService     *service.TokenService
	RateLimitService *service.RateLimitService
	AuditLogger      *service.AuditLogger
	Dispatcher       *service.Dispatcher
	Health           *service.HealthAggregator
	ClientService    *service.ClientService
	BootstrapService *service.BootstrapService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// metrics must wrap the mux directly to see the matched pattern
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		metrics.Middleware,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerResources()
	r.registerAdmin()
	r.registerBootstrap()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			EvaMind API Gateway
//	@version		0.1.0
//	@description	Authorization front door for the EvaMind resource service. Clients obtain HS256 access tokens with the OAuth2 client_credentials grant and call the proxied resource routes with them.
//	@description
//	@description				Every proxied and administrative call is authenticated, scope-checked, rate limited per client and written to the request ledger.
//
//	@contact.name				EvaMind Platform Team
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Access token from /oauth/token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// SweepThrottles drops idle per-IP buckets and reports how many went.
func (r *Router) SweepThrottles() int {
	n := 0
	for _, rl := range r.throttles {
		n += rl.Sweep()
	}
	return n
}

func (r *Router) throttle(config httpx.RateLimitConfig, extract httpx.KeyExtractor) httpx.Middleware {
	rl := httpx.NewRateLimiter(config, extract)
	r.throttles = append(r.throttles, rl)
	return rl.Middleware()
}

// secured wraps h in the per-call pipeline: ledger entry, token validation,
// scope check and the client's rate limit, in that order.
func (r *Router) secured(h http.Handler, req service.ScopeRequirement) http.Handler {
	return httpx.Chain(h,
		auditMiddleware(r.AuditLogger),
		authnMiddleware(r.TokenService),
		requireScope(req),
		rateLimitMiddleware(r.RateLimitService),
	)
}

func (r *Router) registerOAuth2() {
	// POST /oauth/token - throttled by IP + client id against credential guessing
	tokenHandler := &TokenHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /oauth/token",
		httpx.Chain(tokenHandler,
			r.throttle(httpx.ModerateLimit, httpx.CompositeKeyExtractor("|",
				httpx.IPKeyExtractor,
				httpx.ClientCredentialKeyExtractor,
			)),
		),
	)

	revokeHandler := &RevokeHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /oauth/revoke",
		httpx.Chain(revokeHandler,
			r.throttle(httpx.ModerateLimit, httpx.IPKeyExtractor),
		),
	)
}

func (r *Router) registerResources() {
	for _, rt := range ResourceRoutes {
		h := &ProxyHandler{Dispatcher: r.Dispatcher, Route: rt}
		r.Mux.Handle(rt.Method+" "+rt.Pattern, r.secured(h, rt.Scope))
	}
}

func (r *Router) registerAdmin() {
	h := &ClientsHandler{ClientService: r.ClientService, TokenService: r.TokenService}

	read := service.RequireAll("admin:read")
	write := service.RequireAll("admin:write")

	r.Mux.Handle("POST /v1/admin/clients", r.secured(http.HandlerFunc(h.HandleCreate), write))
	r.Mux.Handle("GET /v1/admin/clients", r.secured(http.HandlerFunc(h.HandleList), read))
	r.Mux.Handle("PATCH /v1/admin/clients/{id}", r.secured(http.HandlerFunc(h.HandleUpdate), write))
	r.Mux.Handle("GET /v1/admin/clients/{id}/requests", r.secured(http.HandlerFunc(h.HandleRequests), read))
	r.Mux.Handle("POST /v1/admin/tokens/{id}/revoke", r.secured(http.HandlerFunc(h.HandleRevokeToken), write))
}

func (r *Router) registerBootstrap() {
	// POST /bootstrap - very strict rate limit by IP (one-time setup endpoint)
	bootstrapHandler := &BootstrapHandler{BootstrapService: r.BootstrapService}
	r.Mux.Handle("POST /v1/bootstrap",
		httpx.Chain(bootstrapHandler,
			r.throttle(httpx.StrictLimit, httpx.IPKeyExtractor),
		),
	)
}

func (r *Router) registerSystem() {
	public := r.throttle(httpx.PublicLimit, httpx.IPKeyExtractor)

	r.Mux.Handle("GET /{$}", httpx.Chain(InfoHandler(r.buildVersion), public))
	r.Mux.Handle("GET /health", httpx.Chain(HealthHandler(r.Health), public))
	r.Mux.Handle("GET /livez", httpx.Chain(LivezHandler(r.startTime, r.buildVersion), public))
	r.Mux.Handle("GET /readyz", httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store), public))
	r.Mux.Handle("GET /metrics", metrics.Handler())
}
