package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/evamind/gateway/internal/gateway/service"
	"github.com/stretchr/testify/require"
)

func newDispatcher(t *testing.T, h http.Handler) *service.Dispatcher {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	d, err := service.NewDispatcher(service.DispatcherOptions{
		BaseURL:      srv.URL,
		Timeout:      200 * time.Millisecond,
		RetryBackoff: time.Millisecond,
	})
	require.NoError(t, err)
	return d
}

func TestDispatchSuccess(t *testing.T) {
	var (
		seen     http.Header
		seenPath string
		seenView string
	)
	d := newDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		seenPath = r.URL.Path
		seenView = r.URL.Query().Get("view")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"42"}`)
	}))

	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("Authorization", "Bearer secret")
	h.Set("X-Request-ID", "req-1")
	h.Set("X-Client-ID", "client-1")
	h.Set("Cookie", "a=b")

	resp, err := d.Dispatch(context.Background(), service.ProxyRequest{
		Method: http.MethodGet,
		Path:   "/serialize/patient/42",
		Query:  map[string][]string{"view": {"full"}},
		Header: h,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Equal(t, "application/json", resp.ContentType)
	require.JSONEq(t, `{"id":"42"}`, string(resp.Body))

	require.Equal(t, "/serialize/patient/42", seenPath)
	require.Equal(t, "full", seenView)
	require.Equal(t, "req-1", seen.Get("X-Request-ID"))
	require.Equal(t, "client-1", seen.Get("X-Client-ID"))
	require.Empty(t, seen.Get("Authorization"))
	require.Empty(t, seen.Get("Cookie"))
}

func TestDispatchErrors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		d := newDispatcher(t, http.NotFoundHandler())
		_, err := d.Dispatch(context.Background(), service.ProxyRequest{Method: http.MethodGet, Path: "/x"})
		require.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("downstream error carries status and body", func(t *testing.T) {
		d := newDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad input", http.StatusUnprocessableEntity)
		}))
		_, err := d.Dispatch(context.Background(), service.ProxyRequest{Method: http.MethodGet, Path: "/x"})
		require.ErrorIs(t, err, service.ErrDownstream)

		var de *service.DownstreamError
		require.True(t, errors.As(err, &de))
		require.Equal(t, http.StatusUnprocessableEntity, de.Status)
		require.Contains(t, string(de.Body), "bad input")
	})

	t.Run("timeout is unavailable", func(t *testing.T) {
		d := newDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		start := time.Now()
		_, err := d.Dispatch(context.Background(), service.ProxyRequest{Method: http.MethodGet, Path: "/slow"})
		require.ErrorIs(t, err, service.ErrDownstreamUnavailable)
		require.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("connection refused is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		d, err := service.NewDispatcher(service.DispatcherOptions{BaseURL: url, Timeout: time.Second})
		require.NoError(t, err)
		_, err = d.Dispatch(context.Background(), service.ProxyRequest{Method: http.MethodGet, Path: "/x"})
		require.ErrorIs(t, err, service.ErrDownstreamUnavailable)
	})
}

func TestDispatchRetry(t *testing.T) {
	var hits atomic.Int32
	flaky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, "ok")
	})

	t.Run("GET is retried once", func(t *testing.T) {
		hits.Store(0)
		d := newDispatcher(t, flaky)
		resp, err := d.Dispatch(context.Background(), service.ProxyRequest{Method: http.MethodGet, Path: "/x"})
		require.NoError(t, err)
		require.Equal(t, "ok", string(resp.Body))
		require.EqualValues(t, 2, hits.Load())
	})

	t.Run("POST is never retried", func(t *testing.T) {
		hits.Store(0)
		d := newDispatcher(t, flaky)
		_, err := d.Dispatch(context.Background(), service.ProxyRequest{Method: http.MethodPost, Path: "/x", Body: []byte("{}")})
		require.ErrorIs(t, err, service.ErrDownstream)
		require.EqualValues(t, 1, hits.Load())
	})

	t.Run("transport failure on GET is retried", func(t *testing.T) {
		hits.Store(0)
		d := newDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				hj, ok := w.(http.Hijacker)
				require.True(t, ok)
				conn, _, err := hj.Hijack()
				require.NoError(t, err)
				_ = conn.Close()
				return
			}
			_, _ = io.WriteString(w, "ok")
		}))
		resp, err := d.Dispatch(context.Background(), service.ProxyRequest{Method: http.MethodGet, Path: "/x"})
		require.NoError(t, err)
		require.Equal(t, "ok", string(resp.Body))
		require.EqualValues(t, 2, hits.Load())
	})

	t.Run("4xx is not retried", func(t *testing.T) {
		hits.Store(0)
		d := newDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		_, err := d.Dispatch(context.Background(), service.ProxyRequest{Method: http.MethodGet, Path: "/x"})
		require.ErrorIs(t, err, service.ErrDownstream)
		require.EqualValues(t, 1, hits.Load())
	})
}

func TestDispatchOversizedBodyIsNotRelayed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/fhir+json")
		_, _ = w.Write(bytes.Repeat([]byte("x"), 1025))
	}))
	t.Cleanup(srv.Close)

	d, err := service.NewDispatcher(service.DispatcherOptions{
		BaseURL:         srv.URL,
		Timeout:         time.Second,
		MaxResponseBody: 1024,
	})
	require.NoError(t, err)

	resp, err := d.Dispatch(context.Background(), service.ProxyRequest{Method: http.MethodGet, Path: "/fhir/bundle/1"})
	require.ErrorIs(t, err, service.ErrDownstreamTooLarge)
	require.ErrorIs(t, err, service.ErrDownstream)
	require.Nil(t, resp.Body)

	t.Run("exactly at the limit is relayed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(bytes.Repeat([]byte("x"), 1024))
		}))
		t.Cleanup(srv.Close)

		d, err := service.NewDispatcher(service.DispatcherOptions{BaseURL: srv.URL, MaxResponseBody: 1024})
		require.NoError(t, err)
		resp, err := d.Dispatch(context.Background(), service.ProxyRequest{Method: http.MethodGet, Path: "/x"})
		require.NoError(t, err)
		require.Len(t, resp.Body, 1024)
	})
}

func TestNewDispatcherRejectsBadURL(t *testing.T) {
	_, err := service.NewDispatcher(service.DispatcherOptions{BaseURL: "not a url"})
	require.Error(t, err)
}
