// Package auth protects the administrative endpoints of the service.
//
// Authenticators turn request headers into an Identity (API keys hashed
// with SHA-256, HMAC-signed JWTs, or a composite of both). Authorizers
// decide whether that identity may act on a resource. Middleware joins the
// two for net/http handlers and answers 401 or 403 with a JSON body.
package auth
