// Package proxy is the thin forwarding shim between the browser and the
// external tracker's REST API. Credentials stay on this side: every
// forwarded request gets the configured account's basic-auth header.
package proxy

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
)

type Handler struct {
	upstreamBase string
	authHeader   string
	httpClient   *http.Client
}

// New builds a shim forwarding to upstreamBase. With empty credentials the
// shim refuses every request rather than forwarding unauthenticated.
func New(upstreamBase, email, token string) *Handler {
	h := &Handler{
		upstreamBase: strings.TrimRight(upstreamBase, "/"),
		httpClient:   http.DefaultClient,
	}
	if email != "" && token != "" {
		h.authHeader = "Basic " + base64.StdEncoding.EncodeToString([]byte(email+":"+token))
	}
	return h
}

// NewWithHTTP builds a shim with a caller-supplied http.Client, used by tests.
func NewWithHTTP(upstreamBase, email, token string, httpClient *http.Client) *Handler {
	h := New(upstreamBase, email, token)
	h.httpClient = httpClient
	return h
}

// ServeHTTP forwards the request same-method to the upstream and passes the
// response through, unless the upstream answers with something other than
// JSON, which is reported as a bad gateway.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.authHeader == "" {
		writeProxyError(w, http.StatusInternalServerError, "Tracker credentials not configured on server.")
		return
	}

	upstreamURL := h.upstreamBase + r.URL.Path
	if r.URL.RawQuery != "" {
		upstreamURL += "?" + r.URL.RawQuery
	}

	var body io.Reader
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		body = r.Body
	}
	req, err := http.NewRequestWithContext(r.Context(), r.Method, upstreamURL, body)
	if err != nil {
		writeProxyError(w, http.StatusInternalServerError, "Proxy internal error.")
		return
	}
	req.Header.Set("Authorization", h.authHeader)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		log.Printf("proxy: upstream request failed: %v", err)
		writeProxyError(w, http.StatusBadGateway, "Bad Gateway: tracker unreachable.")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		log.Printf("proxy: non-JSON upstream response, status %d", resp.StatusCode)
		writeProxyError(w, http.StatusBadGateway, "Bad Gateway: received non-JSON response from tracker.")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

// RoundTrip lets the in-process tracker client share the shim's
// credentials instead of holding its own copy. The request goes out with
// the same basic-auth header the browser-facing path attaches.
func (h *Handler) RoundTrip(req *http.Request) (*http.Response, error) {
	if h.authHeader == "" {
		return nil, errors.New("tracker credentials not configured")
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", h.authHeader)
	transport := h.httpClient.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return transport.RoundTrip(clone)
}

func writeProxyError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
