package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

// stubAuthenticator answers every request with a fixed outcome.
type stubAuthenticator struct {
	name     string
	supports bool
	result   *AuthResult
	err      error
}

func (s *stubAuthenticator) Name() string { return s.name }

func (s *stubAuthenticator) Supports(context.Context, *AuthRequest) bool { return s.supports }

func (s *stubAuthenticator) Authenticate(context.Context, *AuthRequest) (*AuthResult, error) {
	return s.result, s.err
}

func staticAuth(name string, supports bool, result *AuthResult, err error) Authenticator {
	return &stubAuthenticator{name: name, supports: supports, result: result, err: err}
}

func TestCompositeAuthenticator(t *testing.T) {
	ok := AuthSuccess(&Identity{Principal: "p", Method: AuthMethodAPIKey})
	fail := AuthFailure(ErrInvalidCredentials, "jwt")
	boom := errors.New("boom")

	tests := []struct {
		name    string
		auths   []Authenticator
		wantOK  bool
		wantErr error
		wantRes error
	}{
		{
			name:   "first success wins",
			auths:  []Authenticator{staticAuth("a", true, fail, nil), staticAuth("b", true, ok, nil)},
			wantOK: true,
		},
		{
			name:    "unsupported are skipped",
			auths:   []Authenticator{staticAuth("a", false, ok, nil), staticAuth("b", true, fail, nil)},
			wantRes: ErrInvalidCredentials,
		},
		{
			name:    "internal error stops the chain",
			auths:   []Authenticator{staticAuth("a", true, nil, boom), staticAuth("b", true, ok, nil)},
			wantErr: boom,
		},
		{
			name:    "nothing supports the request",
			auths:   []Authenticator{staticAuth("a", false, ok, nil)},
			wantRes: ErrMissingCredentials,
		},
		{
			name:    "empty",
			wantRes: ErrMissingCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCompositeAuthenticator(tt.auths...)
			res, err := c.Authenticate(context.Background(), &AuthRequest{})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Authenticated != tt.wantOK {
				t.Fatalf("Authenticated = %v, want %v", res.Authenticated, tt.wantOK)
			}
			if tt.wantRes != nil && !errors.Is(res.Error, tt.wantRes) {
				t.Errorf("result error = %v, want %v", res.Error, tt.wantRes)
			}
		})
	}
}

func TestCompositeAuthenticator_APIKeyAndJWT(t *testing.T) {
	store := NewMemoryAPIKeyStore()
	store.AddKey("k", "sk_admin", "ops", "admin")
	c := NewCompositeAuthenticator(
		NewAPIKeyAuthenticator(APIKeyConfig{}, store),
		nil,
		NewJWTAuthenticator(JWTConfig{}, NewStaticKeyProvider(testSecret)),
	)
	if len(c.Authenticators) != 2 {
		t.Fatalf("nil authenticators should be dropped, got %d", len(c.Authenticators))
	}

	token, _ := SignToken(testSecret, "", "alice", []string{"admin"}, time.Hour)
	for _, req := range []*AuthRequest{
		{Headers: map[string][]string{"X-Api-Key": {"sk_admin"}}},
		bearer(token),
	} {
		res, err := c.Authenticate(context.Background(), req)
		if err != nil || !res.Authenticated {
			t.Errorf("Authenticate(%v) = %+v, %v", req.Headers, res, err)
		}
	}
}
