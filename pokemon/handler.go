package pokemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonwraymond/integrationhealth/cache"
	"github.com/jonwraymond/integrationhealth/observe"
)

// Integration identifies the upstream API in health reports and telemetry.
var Integration = observe.IntegrationMeta{Name: "pokemon", Kind: "api", Operation: "get"}

// CacheIntegration identifies the response cache backend.
var CacheIntegration = observe.IntegrationMeta{Name: "redis", Kind: "cache"}

// Handler serves GET /pokemon/{name}.
type Handler struct {
	client Fetcher
	loader *cache.Loader
	calls  *observe.Middleware
}

// NewHandler creates a Handler. A nil loader fetches every request upstream;
// a nil calls only runs the fetch.
func NewHandler(client Fetcher, loader *cache.Loader, calls *observe.Middleware) *Handler {
	if calls == nil {
		calls = observe.NewMiddleware(nil, nil, nil, nil)
	}
	return &Handler{client: client, loader: loader, calls: calls}
}

// Register mounts the handler on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("GET /pokemon/{name}", h)
}

// CacheKey returns the cache key for a pokemon name.
func CacheKey(name string) string {
	return "pokemon:" + normalizeName(name)
}

type errorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP returns the upstream document. Upstream failures are answered
// with 502; a name unknown upstream is answered with 404 and is not an
// integration error.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := normalizeName(r.PathValue("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, ErrInvalidName.Error())
		return
	}

	var (
		body     []byte
		notFound bool
	)
	err := h.calls.Call(r.Context(), Integration, func(ctx context.Context) error {
		var err error
		body, err = h.loader.Load(ctx, CacheKey(name), func(ctx context.Context) ([]byte, error) {
			return h.client.Get(ctx, name)
		})
		var se *StatusError
		if errors.As(err, &se) && se.NotFound() {
			notFound = true
			return nil
		}
		return err
	})

	switch {
	case notFound:
		writeError(w, http.StatusNotFound, "pokemon not found")
	case err != nil:
		writeError(w, http.StatusBadGateway, "could not fetch pokemon")
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

// CacheErrorHook reports cache backend failures to the cache integration
// and logs them. The request itself has already fallen back to upstream.
func CacheErrorHook(reporter observe.Reporter, logger observe.Logger) cache.ErrorHook {
	if logger == nil {
		logger = observe.NopLogger()
	}
	log := logger.WithIntegration(CacheIntegration)
	return func(ctx context.Context, op, key string, err error) {
		if observe.CallerAbandoned(ctx, err) {
			return
		}
		if reporter != nil {
			reporter.Report(CacheIntegration.Name, err)
		}
		log.Warn(ctx, "cache backend failed, serving from upstream",
			observe.Field{Key: "op", Value: op},
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err},
		)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}
