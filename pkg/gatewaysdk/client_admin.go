package gatewaysdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// CreateClient registers a client. Requires admin:write.
func (c *Client) CreateClient(ctx context.Context, in CreateClientRequest) (*CreateClientResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/v1/admin/clients", in)
	if err != nil {
		return nil, err
	}
	var out CreateClientResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListClients lists every client. Requires admin:read.
func (c *Client) ListClients(ctx context.Context) ([]ClientResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/admin/clients", nil)
	if err != nil {
		return nil, err
	}
	var out []ClientResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateClient changes a client's flags, scopes or limit. Requires admin:write.
func (c *Client) UpdateClient(ctx context.Context, id string, in UpdateClientRequest) (*ClientResponse, error) {
	resp, err := c.do(ctx, http.MethodPatch, "/v1/admin/clients/"+url.PathEscape(id), in)
	if err != nil {
		return nil, err
	}
	var out ClientResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RevokeToken revokes any token by id. Requires admin:write.
func (c *Client) RevokeToken(ctx context.Context, tokenID string) error {
	resp, err := c.do(ctx, http.MethodPost, "/v1/admin/tokens/"+url.PathEscape(tokenID)+"/revoke", nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// ClientRequests returns a client's most recent ledger entries. Requires
// admin:read.
func (c *Client) ClientRequests(ctx context.Context, id string, limit int) ([]RequestLogResponse, error) {
	path := "/v1/admin/clients/" + url.PathEscape(id) + "/requests"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var out []RequestLogResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// BootstrapPath creates the first administrative client.
const BootstrapPath = "/v1/bootstrap"

// Bootstrap creates the first administrative client of a fresh gateway
// and returns its credentials. It needs the gateway's bootstrap token and
// works only once.
func Bootstrap(ctx context.Context, hc *http.Client, baseURL, token, name string) (*CreateClientResponse, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	body, err := json.Marshal(BootstrapRequest{Name: name})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(baseURL, "/")+BootstrapPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Bootstrap-Token", token)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	var out CreateClientResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}
