package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newAdminMiddleware() func(http.Handler) http.Handler {
	store := NewMemoryAPIKeyStore()
	store.AddKey("admin", "sk_admin", "ops", "admin")
	store.AddKey("viewer", "sk_viewer", "intern", "viewer")

	authn := NewCompositeAuthenticator(
		NewAPIKeyAuthenticator(APIKeyConfig{}, store),
		NewJWTAuthenticator(JWTConfig{Issuer: "ih"}, NewStaticKeyProvider(testSecret)),
	)
	return Middleware(authn, RequireRole("admin"), nil)
}

func TestMiddleware(t *testing.T) {
	adminToken, _ := SignToken(testSecret, "ih", "alice", []string{"admin"}, time.Hour)
	expired, _ := SignToken(testSecret, "ih", "alice", []string{"admin"}, -time.Hour)

	tests := []struct {
		name      string
		header    string
		value     string
		wantCode  int
		principal string
	}{
		{"no credentials", "", "", http.StatusUnauthorized, ""},
		{"bad api key", "X-API-Key", "sk_wrong", http.StatusUnauthorized, ""},
		{"api key without role", "X-API-Key", "sk_viewer", http.StatusForbidden, ""},
		{"admin api key", "X-API-Key", "sk_admin", http.StatusNoContent, "ops"},
		{"admin jwt", "Authorization", "Bearer " + adminToken, http.StatusNoContent, "alice"},
		{"expired jwt", "Authorization", "Bearer " + expired, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPrincipal string
			h := newAdminMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPrincipal = PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodPost, "/admin/reset", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body)
			}
			if gotPrincipal != tt.principal {
				t.Errorf("principal = %q, want %q", gotPrincipal, tt.principal)
			}
			if tt.wantCode >= 400 {
				if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
					t.Errorf("Content-Type = %q", ct)
				}
				var body map[string]string
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
					t.Errorf("expected JSON error body, got %q", rec.Body)
				}
			}
		})
	}
}

func TestMiddleware_AuthenticatorError(t *testing.T) {
	authn := staticAuth("broken", true, nil, errors.New("db down"))
	h := Middleware(authn, nil, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler must not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/reset", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestMiddleware_NilAuthenticatorRejects(t *testing.T) {
	h := Middleware(nil, nil, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler must not run")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
