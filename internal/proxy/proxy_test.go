package proxy

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestForwardAttachesCredentials(t *testing.T) {
	var gotAuth, gotPath, gotQuery string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	handler := New(upstream.URL, "user@example.com", "token123")
	req := httptest.NewRequest(http.MethodGet, "/search?jql=project%3DPROJ", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("user@example.com:token123"))
	if gotAuth != wantAuth {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotPath != "/search" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "jql=project%3DPROJ" {
		t.Errorf("query = %q", gotQuery)
	}
	if !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Errorf("body not passed through: %s", rec.Body.String())
	}
}

func TestNoContentPassesThrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer upstream.Close()

	handler := New(upstream.URL, "user@example.com", "token123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/issue/PROJ-1/transitions", strings.NewReader(`{}`)))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("204 must have an empty body, got %q", rec.Body.String())
	}
}

func TestNonJSONUpstreamIsBadGateway(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>login page</html>"))
	}))
	defer upstream.Close()

	handler := New(upstream.URL, "user@example.com", "token123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/myself", nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "non-JSON") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestMissingCredentialsRefused(t *testing.T) {
	handler := New("http://upstream.invalid", "", "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/myself", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "credentials") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestUnreachableUpstreamIsBadGateway(t *testing.T) {
	handler := New("http://127.0.0.1:1", "user@example.com", "token123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/myself", nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestRoundTripSharesCredentials(t *testing.T) {
	var gotAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	handler := New(upstream.URL, "user@example.com", "token123")
	client := &http.Client{Transport: handler}
	resp, err := client.Get(upstream.URL + "/myself")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if gotAuth == "" {
		t.Error("round-trip did not attach credentials")
	}
}

func TestRoundTripWithoutCredentialsFails(t *testing.T) {
	handler := New("http://upstream.invalid", "", "")
	client := &http.Client{Transport: handler}
	if _, err := client.Get("http://upstream.invalid/myself"); err == nil {
		t.Error("expected error without credentials")
	}
}
