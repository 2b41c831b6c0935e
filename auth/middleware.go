package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonwraymond/integrationhealth/observe"
)

// Middleware authenticates every request with authn and authorizes it with
// authz. Unauthenticated requests get 401, unauthorized ones 403, and
// authenticator failures 500. On success the identity is attached to the
// request context. A nil authz permits every authenticated identity.
func Middleware(authn Authenticator, authz Authorizer, logger observe.Logger) func(http.Handler) http.Handler {
	if authz == nil {
		authz = AllowAllAuthorizer{}
	}
	if logger == nil {
		logger = observe.NopLogger()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			req := &AuthRequest{Headers: r.Header, Resource: r.URL.Path}

			if authn == nil || !authn.Supports(ctx, req) {
				writeError(w, http.StatusUnauthorized, ErrMissingCredentials)
				return
			}

			result, err := authn.Authenticate(ctx, req)
			if err != nil {
				logger.Error(ctx, "auth: authenticator failed",
					observe.Field{Key: "path", Value: r.URL.Path},
					observe.Field{Key: "error", Value: err})
				writeError(w, http.StatusInternalServerError, errors.New("auth: internal error"))
				return
			}
			if !result.Authenticated {
				logger.Warn(ctx, "auth: rejected credentials",
					observe.Field{Key: "path", Value: r.URL.Path},
					observe.Field{Key: "method", Value: result.Method},
					observe.Field{Key: "error", Value: result.Error})
				writeError(w, http.StatusUnauthorized, result.Error)
				return
			}

			id := result.Identity
			if err := authz.Authorize(ctx, &AuthzRequest{Subject: id, Resource: r.URL.Path, Action: r.Method}); err != nil {
				logger.Warn(ctx, "auth: access denied",
					observe.Field{Key: "principal", Value: id.Principal},
					observe.Field{Key: "path", Value: r.URL.Path})
				writeError(w, http.StatusForbidden, ErrForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, id)))
		})
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		err = ErrInvalidCredentials
	}
	w.Header().Set("Content-Type", "application/json")
	if code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="integrationhealth"`)
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorBody{Error: err.Error()})
}
