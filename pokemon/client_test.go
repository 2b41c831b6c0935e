package pokemon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// newUpstream serves /pokemon/{name} with the given handler and counts hits.
func newUpstream(t *testing.T, h http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /pokemon/{name}", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		h(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestClient_Get(t *testing.T) {
	srv, _ := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"` + r.PathValue("name") + `"}`))
	})

	c := NewClient(ClientConfig{BaseURL: srv.URL + "/"})
	body, err := c.Get(context.Background(), "  Pikachu ")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(body) != `{"name":"pikachu"}` {
		t.Errorf("body = %s", body)
	}
}

func TestClient_Get_EmptyName(t *testing.T) {
	c := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:1"})
	if _, err := c.Get(context.Background(), " "); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Get() error = %v, want ErrInvalidName", err)
	}
}

func TestClient_Get_StatusError(t *testing.T) {
	srv, hits := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	c := NewClient(ClientConfig{BaseURL: srv.URL, MaxAttempts: 3})
	_, err := c.Get(context.Background(), "missingno")

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Get() error = %v, want *StatusError", err)
	}
	if !se.NotFound() || se.Name != "missingno" {
		t.Errorf("StatusError = %+v", se)
	}
	if hits.Load() != 1 {
		t.Errorf("404 should not be retried, hits = %d", hits.Load())
	}
}

func TestClient_Get_RetriesServerErrors(t *testing.T) {
	srv, hits := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})

	c := NewClient(ClientConfig{BaseURL: srv.URL, MaxAttempts: 2})
	_, err := c.Get(context.Background(), "pikachu")

	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Fatalf("Get() error = %v, want 503 StatusError", err)
	}
	if hits.Load() != 2 {
		t.Errorf("hits = %d, want 2", hits.Load())
	}
}

func TestClient_Get_RecoversAfterTransientError(t *testing.T) {
	var failed atomic.Bool
	srv, hits := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if failed.CompareAndSwap(false, true) {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	c := NewClient(ClientConfig{BaseURL: srv.URL, MaxAttempts: 2})
	if _, err := c.Get(context.Background(), "pikachu"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("hits = %d, want 2", hits.Load())
	}
}

func TestClient_Get_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv, _ := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	c := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	if _, err := c.Get(context.Background(), "pikachu"); err == nil {
		t.Fatal("Get() should fail after the timeout")
	}
}

func TestTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"server error", &StatusError{Code: 500}, true},
		{"rate limited", &StatusError{Code: 429}, true},
		{"not found", &StatusError{Code: 404}, false},
		{"cancelled", context.Canceled, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Transient(tt.err); got != tt.want {
				t.Errorf("Transient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
