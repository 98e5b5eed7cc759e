package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/evamind/gateway/internal/gateway/service"
	"github.com/evamind/gateway/pkg/httpx"
	"github.com/evamind/gateway/pkg/slogx"
)

// ResourceRoute maps a gateway path onto the resource service. Wildcards
// in Pattern are substituted by name into Downstream.
type ResourceRoute struct {
	Method     string
	Pattern    string
	Scope      service.ScopeRequirement
	Downstream string
}

// ResourceRoutes is the proxied route table.
var ResourceRoutes = []ResourceRoute{
	{
		Method:     http.MethodGet,
		Pattern:    "/api/v1/patients/{id}",
		Scope:      service.RequireAll("read:patients"),
		Downstream: "/serialize/patient/{id}",
	},
	{
		Method:     http.MethodGet,
		Pattern:    "/api/v1/assessments/{id}",
		Scope:      service.RequireAll("read:assessments"),
		Downstream: "/serialize/assessment/{id}",
	},
	{
		Method:     http.MethodGet,
		Pattern:    "/api/v1/fhir/patients/{id}",
		Scope:      service.RequireAny("read:patients", "export:data"),
		Downstream: "/fhir/patient/{id}",
	},
	{
		Method:     http.MethodGet,
		Pattern:    "/api/v1/fhir/bundle/{patient_id}",
		Scope:      service.RequireAll("export:data"),
		Downstream: "/fhir/bundle/{patient_id}",
	},
	{
		Method:     http.MethodGet,
		Pattern:    "/api/v1/export/lgpd/{patient_id}",
		Scope:      service.RequireAll("export:data"),
		Downstream: "/export/lgpd/{patient_id}",
	},
}

// downstreamPath fills the route's downstream template from r's path values.
func (rt ResourceRoute) downstreamPath(r *http.Request) string {
	var b strings.Builder
	rest := rt.Downstream
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String()
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(r.PathValue(rest[open+1 : open+end])))
		rest = rest[open+end+1:]
	}
}

// ProxyHandler relays one resource route to the downstream service.
type ProxyHandler struct {
	Dispatcher *service.Dispatcher
	Route      ResourceRoute
}

func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	hdr := http.Header{}
	for _, k := range []string{"Accept", "Content-Type"} {
		if v := r.Header.Get(k); v != "" {
			hdr.Set(k, v)
		}
	}
	if id := slogx.RequestID(ctx); id != "" {
		hdr.Set(slogx.RequestIDHeader, id)
	}
	hdr.Set("X-Client-ID", httpx.ClientIDFromContext(ctx))

	resp, err := h.Dispatcher.Dispatch(ctx, service.ProxyRequest{
		Method: r.Method,
		Path:   h.Route.downstreamPath(r),
		Query:  r.URL.Query(),
		Header: hdr,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}
