package http

import (
	"net/http"
	"strconv"

	"github.com/evamind/gateway/internal/gateway/domain"
	"github.com/evamind/gateway/internal/gateway/service"
	"github.com/evamind/gateway/pkg/gatewaysdk"
	"github.com/evamind/gateway/pkg/httpx"
)

// maxRequestHistory caps the ?limit of the ledger listing.
const maxRequestHistory = 500

// ClientsHandler serves the administrative client endpoints.
type ClientsHandler struct {
	ClientService *service.ClientService
	TokenService  *service.TokenService
}

// HandleCreate handles POST /v1/admin/clients
//
//	@Summary		Create API Client
//	@Description	Registers a client with a generated secret. The secret is returned once and only its hash is stored.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		gatewaysdk.CreateClientRequest	true	"Client registration"
//	@Success		201		{object}	gatewaysdk.CreateClientResponse	"client and its plaintext secret"
//	@Failure		400		{object}	gatewaysdk.ErrorResponse		"invalid_request"
//	@Failure		401		{object}	gatewaysdk.ErrorResponse		"invalid_token"
//	@Failure		403		{object}	gatewaysdk.ErrorResponse		"insufficient_scope"
//	@Failure		429		{object}	gatewaysdk.ErrorResponse		"rate_limit_exceeded"
//	@Router			/v1/admin/clients [post].
func (h *ClientsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req gatewaysdk.CreateClientRequest
	if err := decodeJSON(r, &req, false); err != nil {
		gatewaysdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}

	c, secret, err := h.ClientService.CreateClient(r.Context(), service.NewClient{
		Name:               req.Name,
		Scopes:             req.Scopes,
		RateLimitPerMinute: req.RateLimitPerMinute,
		Approved:           req.Approved,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, gatewaysdk.CreateClientResponse{
		ClientResponse: clientResponse(c),
		ClientSecret:   secret,
	})
}

// HandleList handles GET /v1/admin/clients
//
//	@Summary		List API Clients
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		gatewaysdk.ClientResponse	"clients, newest first"
//	@Failure		401	{object}	gatewaysdk.ErrorResponse	"invalid_token"
//	@Failure		403	{object}	gatewaysdk.ErrorResponse	"insufficient_scope"
//	@Router			/v1/admin/clients [get].
func (h *ClientsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	clients, err := h.ClientService.ListClients(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]gatewaysdk.ClientResponse, len(clients))
	for i, c := range clients {
		out[i] = clientResponse(c)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleUpdate handles PATCH /v1/admin/clients/{id}
//
//	@Summary		Update API Client
//	@Description	Changes the given fields. Deactivating or unapproving a client rejects its outstanding tokens on their next use.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string							true	"Client ID"
//	@Param			request	body		gatewaysdk.UpdateClientRequest	true	"Fields to change"
//	@Success		200		{object}	gatewaysdk.ClientResponse		"updated client"
//	@Failure		400		{object}	gatewaysdk.ErrorResponse		"invalid_request"
//	@Failure		404		{object}	gatewaysdk.ErrorResponse		"not_found"
//	@Router			/v1/admin/clients/{id} [patch].
func (h *ClientsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req gatewaysdk.UpdateClientRequest
	if err := decodeJSON(r, &req, false); err != nil {
		gatewaysdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}

	c, err := h.ClientService.UpdateClient(r.Context(), r.PathValue("id"), domain.ClientUpdate{
		Active:             req.Active,
		Approved:           req.Approved,
		Scopes:             req.Scopes,
		RateLimitPerMinute: req.RateLimitPerMinute,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, clientResponse(c))
}

// HandleRevokeToken handles POST /v1/admin/tokens/{id}/revoke
//
//	@Summary		Revoke Token
//	@Description	Revokes any token by its id (the jti claim). Takes effect on the token's next use.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Token ID"
//	@Success		204	"Token revoked"
//	@Failure		404	{object}	gatewaysdk.ErrorResponse	"not_found"
//	@Router			/v1/admin/tokens/{id}/revoke [post].
func (h *ClientsHandler) HandleRevokeToken(w http.ResponseWriter, r *http.Request) {
	if err := h.TokenService.Revoke(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRequests handles GET /v1/admin/clients/{id}/requests
//
//	@Summary		Client Request History
//	@Description	Returns the client's most recent ledger entries, newest first.
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string	true	"Client ID"
//	@Param			limit	query		int		false	"Maximum entries (default 50, max 500)"
//	@Success		200		{array}		gatewaysdk.RequestLogResponse	"ledger entries"
//	@Failure		400		{object}	gatewaysdk.ErrorResponse		"invalid_request"
//	@Failure		404		{object}	gatewaysdk.ErrorResponse		"not_found"
//	@Router			/v1/admin/clients/{id}/requests [get].
func (h *ClientsHandler) HandleRequests(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			gatewaysdk.ErrInvalidRequest.WithDescription("limit must be a positive integer").WriteError(w)
			return
		}
		limit = min(n, maxRequestHistory)
	}

	entries, err := h.ClientService.RecentRequests(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]gatewaysdk.RequestLogResponse, len(entries))
	for i, e := range entries {
		out[i] = gatewaysdk.RequestLogResponse{
			ID:         e.ID,
			Method:     e.Method,
			Endpoint:   e.Endpoint,
			StatusCode: e.StatusCode,
			Admitted:   e.Admitted,
			LatencyMs:  e.Latency.Milliseconds(),
			CreatedAt:  e.CreatedAt,
		}
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func clientResponse(c domain.Client) gatewaysdk.ClientResponse {
	return gatewaysdk.ClientResponse{
		ClientID:           c.ID,
		Name:               c.Name,
		Scopes:             c.Scopes,
		RateLimitPerMinute: c.RateLimitPerMinute,
		Active:             c.Active,
		Approved:           c.Approved,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}
