package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/evamind/gateway/internal/gateway/service"
	"github.com/evamind/gateway/pkg/gatewaysdk"
	"github.com/evamind/gateway/pkg/httpx"
)

// TokenHandler serves POST /oauth/token for the client_credentials grant.
type TokenHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Endpoint
//	@Description	Issues an access token with the client_credentials grant. Credentials may be sent with HTTP Basic or in the form.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type		formData	string						true	"Grant type"	Enums(client_credentials)
//	@Param			client_id		formData	string						false	"Client identifier (when not using Basic auth)"
//	@Param			client_secret	formData	string						false	"Client secret (when not using Basic auth)"
//	@Param			scope			formData	string						false	"Space-delimited subset of the client's scopes"
//	@Success		200				{object}	gatewaysdk.TokenResponse	"access_token, token_type, expires_in, scope"
//	@Failure		400				{object}	gatewaysdk.ErrorResponse	"invalid_request, unsupported_grant_type, invalid_scope"
//	@Failure		401				{object}	gatewaysdk.ErrorResponse	"invalid_client"
//	@Failure		403				{object}	gatewaysdk.ErrorResponse	"unauthorized_client"
//	@Failure		429				{object}	gatewaysdk.ErrorResponse	"rate_limit_exceeded"
//	@Header			200				{string}	Cache-Control				"no-store"
//	@Router			/oauth/token [post].
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !parseForm(w, r) {
		return
	}

	switch r.PostForm.Get("grant_type") {
	case "client_credentials":
	case "":
		gatewaysdk.ErrInvalidRequest.WithDescription("grant_type is required").WriteError(w)
		return
	default:
		gatewaysdk.ErrUnsupportedGrantType.WriteError(w)
		return
	}

	clientID, secret, basic := clientCredentials(r)
	if clientID == "" || secret == "" {
		if basic {
			w.Header().Set("WWW-Authenticate", `Basic realm="gateway"`)
		}
		gatewaysdk.ErrInvalidClient.WriteError(w)
		return
	}

	requested := httpx.ParseSpaceDelimitedFields(r.PostForm.Get("scope"))

	tok, err := h.TokenService.Issue(ctx, clientID, secret, requested)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			if basic {
				w.Header().Set("WWW-Authenticate", `Basic realm="gateway"`)
			}
			gatewaysdk.ErrInvalidClient.WriteError(w)
		case errors.Is(err, service.ErrClientNotAuthorized):
			gatewaysdk.ErrUnauthorizedClient.WriteError(w)
		default:
			writeServiceError(w, r, err)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, gatewaysdk.TokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   int(tok.ExpiresIn.Seconds()),
		Scope:       strings.Join(tok.Scopes, " "),
	})
}

// parseForm enforces a form-encoded body and parses it, writing the error
// response itself when it returns false.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		gatewaysdk.ErrInvalidContentType.WriteError(w)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		gatewaysdk.ErrInvalidFormBody.WriteError(w)
		return false
	}
	return true
}

// clientCredentials reads client authentication from HTTP Basic (RFC 6749
// section 2.3.1, form-urlencoded values) or from the form body.
func clientCredentials(r *http.Request) (id, secret string, basic bool) {
	if user, pass, ok := r.BasicAuth(); ok {
		u, err1 := url.QueryUnescape(user)
		p, err2 := url.QueryUnescape(pass)
		if err1 != nil || err2 != nil {
			return "", "", true
		}
		return u, p, true
	}
	return strings.TrimSpace(r.PostForm.Get("client_id")), r.PostForm.Get("client_secret"), false
}
