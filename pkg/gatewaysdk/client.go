package gatewaysdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	TokenPath  = "/oauth/token"
	RevokePath = "/oauth/revoke"
)

// Client calls the gateway as one API client.
type Client struct {
	BaseURL string

	// HTTPClient is used for unauthenticated calls and as the transport of
	// the token-bearing client.
	HTTPClient *http.Client

	creds  clientcredentials.Config
	tokens oauth2.TokenSource
	authed *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithScopes narrows the scopes requested for each token.
func WithScopes(scopes ...string) Option {
	return func(c *Client) { c.creds.Scopes = scopes }
}

// New returns a Client for the gateway at baseURL.
func New(baseURL, clientID, clientSecret string, opts ...Option) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	c := &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		creds: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     baseURL + TokenPath,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.HTTPClient)
	c.tokens = oauth2.ReuseTokenSource(nil, c.creds.TokenSource(ctx))
	c.authed = oauth2.NewClient(ctx, c.tokens)
	c.authed.Timeout = c.HTTPClient.Timeout
	return c
}

// Token returns the current access token, fetching one when needed.
func (c *Client) Token(ctx context.Context) (*oauth2.Token, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		return nil, convertTokenError(err)
	}
	return tok, nil
}

// GetPatient fetches a serialized patient.
func (c *Client) GetPatient(ctx context.Context, id string) (json.RawMessage, error) {
	return c.getResource(ctx, "/api/v1/patients/"+url.PathEscape(id))
}

// GetAssessment fetches a serialized assessment.
func (c *Client) GetAssessment(ctx context.Context, id string) (json.RawMessage, error) {
	return c.getResource(ctx, "/api/v1/assessments/"+url.PathEscape(id))
}

// GetFHIRPatient fetches a patient as a FHIR resource.
func (c *Client) GetFHIRPatient(ctx context.Context, id string) (json.RawMessage, error) {
	return c.getResource(ctx, "/api/v1/fhir/patients/"+url.PathEscape(id))
}

// GetFHIRBundle fetches every FHIR resource of a patient as a bundle.
func (c *Client) GetFHIRBundle(ctx context.Context, patientID string) (json.RawMessage, error) {
	return c.getResource(ctx, "/api/v1/fhir/bundle/"+url.PathEscape(patientID))
}

// ExportLGPD fetches a patient's data portability export.
func (c *Client) ExportLGPD(ctx context.Context, patientID string) (json.RawMessage, error) {
	return c.getResource(ctx, "/api/v1/export/lgpd/"+url.PathEscape(patientID))
}

// Health returns the gateway's composite health report. It needs no token.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

// Revoke revokes one of this client's own tokens (RFC 7009).
func (c *Client) Revoke(ctx context.Context, token string) error {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+RevokePath, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(url.QueryEscape(c.creds.ClientID), url.QueryEscape(c.creds.ClientSecret))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	return checkStatus(resp, http.StatusOK)
}

func (c *Client) getResource(ctx context.Context, path string) (json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseErrorResponse(resp, body)
	}
	return json.RawMessage(body), nil
}

// do sends an authenticated request with an optional JSON body.
func (c *Client) do(ctx context.Context, method, path string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.authed.Do(req)
	if err != nil {
		return nil, convertTokenError(err)
	}
	return resp, nil
}

// convertTokenError exposes token endpoint failures as *APIError.
func convertTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return parseErrorResponse(re.Response, re.Body)
	}
	return err
}

func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, body)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func checkStatus(resp *http.Response, expectedStatus int) error {
	defer resp.Body.Close()

	if resp.StatusCode != expectedStatus {
		body, _ := io.ReadAll(resp.Body)
		return parseErrorResponse(resp, body)
	}
	return nil
}
