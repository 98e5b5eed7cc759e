package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/evamind/gateway/internal/gateway/service"
	"github.com/evamind/gateway/pkg/gatewaysdk"
	"github.com/evamind/gateway/pkg/httpx"
	"github.com/evamind/gateway/pkg/slogx"
)

// BootstrapTokenHeader carries the one-time setup token.
const BootstrapTokenHeader = "X-Bootstrap-Token"

type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP handles the bootstrap endpoint for initial setup.
//
//	@Summary		Bootstrap the gateway
//	@Description	Creates the first administrative client (admin:read admin:write). Only available when a bootstrap token is configured and while no client exists.
//	@Tags			Bootstrap
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Token	header		string							true	"Bootstrap token"
//	@Param			request				body		gatewaysdk.BootstrapRequest		false	"Optional client name"
//	@Success		201					{object}	gatewaysdk.CreateClientResponse	"admin client and its secret"
//	@Failure		400					{object}	gatewaysdk.ErrorResponse		"invalid_request"
//	@Failure		401					{object}	gatewaysdk.ErrorResponse		"invalid bootstrap token"
//	@Failure		404					{object}	gatewaysdk.ErrorResponse		"bootstrap not enabled"
//	@Failure		409					{object}	gatewaysdk.ErrorResponse		"already bootstrapped"
//	@Router			/v1/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l := slogx.FromContext(r.Context())

	if h.BootstrapService.Token == "" {
		gatewaysdk.ErrNotFound.WithDescription("bootstrap is not enabled").WriteError(w)
		return
	}

	token := r.Header.Get(BootstrapTokenHeader)
	if token == "" {
		gatewaysdk.NewAPIError(http.StatusUnauthorized, "unauthorized",
			"bootstrap token is required in the "+BootstrapTokenHeader+" header").WriteError(w)
		return
	}

	var req gatewaysdk.BootstrapRequest
	if err := decodeJSON(r, &req, true); err != nil {
		gatewaysdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}

	c, secret, err := h.BootstrapService.Bootstrap(r.Context(), token, strings.TrimSpace(req.Name))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBootstrapUnauthorized):
			gatewaysdk.NewAPIError(http.StatusUnauthorized, "unauthorized", "invalid bootstrap token").WriteError(w)
		case errors.Is(err, service.ErrBootstrapAlready):
			gatewaysdk.ErrConflict.WithDescription("gateway has already been bootstrapped").WriteError(w)
		default:
			writeServiceError(w, r, err)
		}
		return
	}

	l.Info("bootstrap completed")
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, gatewaysdk.CreateClientResponse{
		ClientResponse: clientResponse(c),
		ClientSecret:   secret,
	})
}
