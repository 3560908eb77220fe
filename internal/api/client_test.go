package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeTokens struct {
	token       string
	invalidated int
}

func (f *fakeTokens) Token() string { return f.token }
func (f *fakeTokens) Invalidate()   { f.invalidated++ }

func TestRequestsCarryBearerToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	c.SetTokenSource(&fakeTokens{token: "tok-123"})

	if _, err := c.GetMyCities(context.Background()); err != nil {
		t.Fatal(err)
	}
	if auth != "Bearer tok-123" {
		t.Errorf("expected bearer header, got %q", auth)
	}
}

func TestUnauthorizedInvalidatesTokenSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "token expired"}`))
	}))
	defer srv.Close()

	tokens := &fakeTokens{token: "stale"}
	c := NewClient(srv.URL, time.Second)
	c.SetTokenSource(tokens)

	_, err := c.GetMyCities(context.Background())
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TransportError, got %T", err)
	}
	if !terr.Unauthorized() {
		t.Errorf("expected Unauthorized() on a 401, status was %d", terr.Status)
	}
	if terr.Detail != "token expired" {
		t.Errorf("unexpected detail: %q", terr.Detail)
	}
	if tokens.invalidated != 1 {
		t.Errorf("expected exactly one Invalidate call, got %d", tokens.invalidated)
	}
}

func TestErrorPayloadShapes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail field", http.StatusBadRequest, `{"detail": "city is required"}`, "city is required"},
		{"errors string", http.StatusUnprocessableEntity, `{"errors": "invalid keyword"}`, "invalid keyword"},
		{"errors list", http.StatusUnprocessableEntity, `{"errors": ["city is required", "state is required"]}`, "city is required, state is required"},
		{"non-json body", http.StatusBadGateway, "<html>bad gateway</html>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, time.Second)
			_, err := c.GetMyCities(context.Background())

			var terr *TransportError
			if !errors.As(err, &terr) {
				t.Fatalf("expected *TransportError, got %T", err)
			}
			if terr.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, terr.Status)
			}
			if terr.Detail != tt.want {
				t.Errorf("expected detail %q, got %q", tt.want, terr.Detail)
			}
		})
	}
}
