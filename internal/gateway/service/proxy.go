package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	httpclient "github.com/appleboy/go-httpclient"
	retry "github.com/appleboy/go-httpretry"

	"github.com/evamind/gateway/internal/gateway/metrics"
	"github.com/evamind/gateway/pkg/slogx"
)

const (
	DefaultDownstreamTimeout = 3 * time.Second
	DefaultRetryBackoff      = 100 * time.Millisecond
	DefaultMaxResponseBody   = 16 << 20

	// maxErrorBody caps how much of a failed downstream answer is kept.
	maxErrorBody = 64 << 10
)

// forwardedHeaders are the only request headers passed downstream. The
// caller's Authorization header never leaves the gateway.
var forwardedHeaders = []string{"Accept", "Content-Type", "X-Request-ID", "X-Client-ID"}

// ProxyRequest is a call to relay to the resource service.
type ProxyRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// ProxyResponse is a successful downstream answer.
type ProxyResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	BaseURL         string
	Timeout         time.Duration // per attempt
	RetryBackoff    time.Duration
	MaxResponseBody int64
}

// Dispatcher forwards authorized calls to the downstream resource service
// and folds its failures into the gateway's error taxonomy.
type Dispatcher struct {
	base    *url.URL
	maxBody int64
	client  *http.Client
	retry   *retry.Client
}

func NewDispatcher(opts DispatcherOptions) (*Dispatcher, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("proxy: invalid downstream url %q", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultDownstreamTimeout
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}
	if opts.MaxResponseBody <= 0 {
		opts.MaxResponseBody = DefaultMaxResponseBody
	}

	client, err := httpclient.NewClient(httpclient.WithTimeout(opts.Timeout))
	if err != nil {
		return nil, fmt.Errorf("proxy: create http client: %w", err)
	}

	// Safe methods get one more attempt after the backoff.
	retryClient, err := retry.NewRealtimeClient(
		retry.WithHTTPClient(client),
		retry.WithMaxRetries(1),
		retry.WithInitialRetryDelay(opts.RetryBackoff),
		retry.WithMaxRetryDelay(opts.RetryBackoff),
		retry.WithRetryableChecker(retryable),
	)
	if err != nil {
		return nil, fmt.Errorf("proxy: create retry client: %w", err)
	}

	return &Dispatcher{
		base:    base,
		maxBody: opts.MaxResponseBody,
		client:  client,
		retry:   retryClient,
	}, nil
}

// Dispatch relays req. GET and HEAD are retried once after a short backoff
// when the downstream is unreachable or answers 502/503/504; other methods
// are sent exactly once.
func (d *Dispatcher) Dispatch(ctx context.Context, req ProxyRequest) (ProxyResponse, error) {
	start := time.Now()
	resp, err := d.dispatch(ctx, req)
	metrics.DownstreamDuration.WithLabelValues(outcome(err)).Observe(time.Since(start).Seconds())
	return resp, err
}

func (d *Dispatcher) dispatch(ctx context.Context, req ProxyRequest) (ProxyResponse, error) {
	u := d.base.JoinPath(req.Path)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var (
		res *http.Response
		err error
	)
	switch req.Method {
	case http.MethodGet:
		res, err = d.retry.Get(ctx, u.String(), forwardOptions(req.Header)...)
	case http.MethodHead:
		res, err = d.retry.Head(ctx, u.String(), forwardOptions(req.Header)...)
	default:
		res, err = d.once(ctx, u.String(), req)
	}
	if err != nil {
		if res != nil && res.Body != nil {
			_ = res.Body.Close()
		}
		slogx.FromContext(ctx).Debug("downstream call failed",
			slog.String("path", req.Path), slog.Any("error", err))
		return ProxyResponse{}, fmt.Errorf("%w: %v", ErrDownstreamUnavailable, err)
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return ProxyResponse{}, ErrNotFound
	case res.StatusCode < 200 || res.StatusCode > 299:
		b, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return ProxyResponse{}, &DownstreamError{Status: res.StatusCode, Body: b}
	}

	b, err := io.ReadAll(io.LimitReader(res.Body, d.maxBody+1))
	if err != nil {
		return ProxyResponse{}, fmt.Errorf("%w: reading body: %v", ErrDownstreamUnavailable, err)
	}
	if int64(len(b)) > d.maxBody {
		return ProxyResponse{}, fmt.Errorf("%w: response larger than %d bytes", ErrDownstreamTooLarge, d.maxBody)
	}
	return ProxyResponse{
		Status:      res.StatusCode,
		ContentType: res.Header.Get("Content-Type"),
		Body:        b,
	}, nil
}

func (d *Dispatcher) once(ctx context.Context, u string, req ProxyRequest) (*http.Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, err
	}
	for _, h := range forwardedHeaders {
		if v := req.Header.Get(h); v != "" {
			hreq.Header.Set(h, v)
		}
	}
	return d.client.Do(hreq)
}

func forwardOptions(h http.Header) []retry.RequestOption {
	var opts []retry.RequestOption
	for _, name := range forwardedHeaders {
		if v := h.Get(name); v != "" {
			opts = append(opts, retry.WithHeader(name, v))
		}
	}
	return opts
}

// Probe checks the downstream's own health endpoint.
func (d *Dispatcher) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.base.JoinPath("health").String(), nil)
	if err != nil {
		return err
	}
	res, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxErrorBody))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("downstream health returned %d", res.StatusCode)
	}
	return nil
}

func retryable(err error, res *http.Response) bool {
	if err != nil {
		return true
	}
	if res == nil {
		return false
	}
	switch res.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDownstreamUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
