package http

import (
	"errors"
	"net/http"

	"github.com/evamind/gateway/internal/gateway/service"
	"github.com/evamind/gateway/pkg/gatewaysdk"
	"github.com/evamind/gateway/pkg/httpx"
)

// RevokeHandler serves POST /oauth/revoke following RFC 7009. The calling
// client authenticates itself and may only revoke its own tokens; unknown,
// expired and foreign tokens still get 200 so the endpoint cannot be used
// to probe for tokens.
type RevokeHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Revocation Endpoint
//	@Description	Revokes an access token issued to the authenticated client (RFC 7009).
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			token			formData	string	true	"The token to revoke"
//	@Param			token_type_hint	formData	string	false	"Hint about token type"	Enums(access_token)
//	@Success		200				"Token revoked (or was already invalid)"
//	@Failure		400				{object}	gatewaysdk.ErrorResponse	"invalid_request"
//	@Failure		401				{object}	gatewaysdk.ErrorResponse	"invalid_client"
//	@Router			/oauth/revoke [post].
func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !parseForm(w, r) {
		return
	}

	clientID, secret, _ := clientCredentials(r)
	client, err := h.TokenService.AuthenticateClient(ctx, clientID, secret)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			gatewaysdk.ErrInvalidClient.WriteError(w)
			return
		}
		writeServiceError(w, r, err)
		return
	}

	token := r.PostForm.Get("token")
	if token == "" {
		gatewaysdk.ErrInvalidRequest.WithDescription("token is required").WriteError(w)
		return
	}

	if err := h.TokenService.RevokeOwned(ctx, client.ID, token); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}
