package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jonwraymond/integrationhealth/auth"
	"github.com/jonwraymond/integrationhealth/books"
	"github.com/jonwraymond/integrationhealth/cache"
	"github.com/jonwraymond/integrationhealth/config"
	"github.com/jonwraymond/integrationhealth/health"
	"github.com/jonwraymond/integrationhealth/observe"
	"github.com/jonwraymond/integrationhealth/pokemon"
)

// connectTimeout bounds the startup connectivity checks.
const connectTimeout = 3 * time.Second

// app is the wired service.
type app struct {
	logger   observe.Logger
	registry *health.Registry
	handler  http.Handler

	mu      sync.Mutex
	cfg     *config.Config
	closers []func(context.Context) error
}

// newApp wires the registry, the integrations and the routes. Unreachable
// backends are reported to the registry instead of failing startup.
func newApp(ctx context.Context, cfg *config.Config, obs observe.Observer, metricsHandler http.Handler) (*app, error) {
	logger := obs.Logger()
	a := &app{
		cfg:    cfg,
		logger: logger,
		registry: health.NewRegistry(health.RegistryConfig{
			Parallel: true,
			Logger:   logger,
		}),
	}

	for _, ic := range integrationsFor(cfg) {
		if err := a.registry.Register(ic.Name, ic.Kind, ic.Options()...); err != nil {
			return nil, err
		}
	}

	calls, err := observe.MiddlewareFromObserver(obs, a.registry)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Hello World!"))
	})
	health.RegisterHandlers(mux, a.registry)
	books.NewHandler(a.openBooks(ctx), calls).Register(mux)
	pokemon.NewHandler(pokemon.NewClient(pokemon.ClientConfig{
		BaseURL:     cfg.PokeAPI.BaseURL,
		Timeout:     cfg.PokeAPI.Timeout,
		MaxAttempts: cfg.PokeAPI.MaxAttempts,
	}), a.openCache(ctx), calls).Register(mux)

	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	if cfg.Admin.Enabled() {
		protect := auth.Middleware(adminAuthenticator(cfg.Admin), auth.RequireRole(cfg.Admin.Role), logger)
		mux.Handle("POST /admin/reset", protect(health.ResetHandler(a.registry)))
	} else {
		logger.Warn(ctx, "admin credentials not configured, /admin/reset disabled")
	}

	a.handler = mux
	return a, nil
}

// openBooks connects the books store. A nil Store makes every insert fail,
// which the handler reports as a database error.
func (a *app) openBooks(ctx context.Context) books.Store {
	cfg := a.cfg.Mongo
	if cfg.URI == "" {
		a.logger.Warn(ctx, "mongo uri not configured, books are not stored")
		return nil
	}

	store, err := books.Connect(ctx, cfg.URI, cfg.Database)
	if err != nil {
		a.connectFailed(ctx, books.Integration, err)
		return nil
	}
	a.closers = append(a.closers, store.Close)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		a.connectFailed(ctx, books.Integration, err)
	}
	return store
}

// openCache builds the pokemon response cache. A nil Loader disables caching.
func (a *app) openCache(ctx context.Context) *cache.Loader {
	cfg := a.cfg.Redis
	if cfg.Addr == "" {
		return nil
	}

	rc := cache.NewRedisCache(cache.RedisOptions{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, cache.Policy{DefaultTTL: cfg.TTL, MaxTTL: cfg.TTL})
	a.closers = append(a.closers, func(context.Context) error { return rc.Close() })

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		a.connectFailed(ctx, pokemon.CacheIntegration, err)
	}

	return cache.NewLoader(rc, cache.Policy{DefaultTTL: cfg.TTL, MaxTTL: cfg.TTL},
		pokemon.CacheErrorHook(a.registry, a.logger))
}

func (a *app) connectFailed(ctx context.Context, meta observe.IntegrationMeta, err error) {
	a.registry.ReportError(meta.Name)
	a.logger.WithIntegration(meta).Error(ctx, "integration unreachable at startup",
		observe.Field{Key: "error", Value: err})
}

// reload re-registers the integrations whose definition changed. Other
// sections take effect on restart.
func (a *app) reload(next *config.Config) {
	ctx := context.Background()

	a.mu.Lock()
	prev := a.cfg
	a.cfg = next
	a.mu.Unlock()

	for _, ic := range config.ChangedIntegrations(prev, next) {
		if err := a.registry.Register(ic.Name, ic.Kind, ic.Options()...); err != nil {
			a.logger.Error(ctx, "re-register integration failed",
				observe.Field{Key: "integration", Value: ic.Name},
				observe.Field{Key: "error", Value: err})
		}
	}
	for _, ic := range prev.Integrations {
		if _, ok := next.Integration(ic.Name); !ok {
			a.logger.Warn(ctx, "integration removed from config stays registered until restart",
				observe.Field{Key: "integration", Value: ic.Name})
		}
	}
}

// Close releases backend connections.
func (a *app) Close(ctx context.Context) error {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		errs = append(errs, closers[i](ctx))
	}
	return errors.Join(errs...)
}

// integrationsFor returns the configured integrations followed by the
// built-in ones the config does not declare.
func integrationsFor(cfg *config.Config) []config.IntegrationConfig {
	out := append([]config.IntegrationConfig(nil), cfg.Integrations...)

	builtin := []config.IntegrationConfig{
		{Name: books.Integration.Name, Kind: books.Integration.Kind},
		{Name: pokemon.Integration.Name, Kind: pokemon.Integration.Kind},
	}
	if cfg.Redis.Addr != "" {
		builtin = append(builtin, config.IntegrationConfig{
			Name:     pokemon.CacheIntegration.Name,
			Kind:     pokemon.CacheIntegration.Kind,
			Optional: true,
		})
	}
	for _, ic := range builtin {
		if _, ok := cfg.Integration(ic.Name); !ok {
			out = append(out, ic)
		}
	}
	return out
}

// adminAuthenticator accepts the configured API keys and, when a secret is
// set, HMAC-signed bearer tokens.
func adminAuthenticator(cfg config.AdminConfig) auth.Authenticator {
	keys := auth.NewMemoryAPIKeyStore()
	for i, key := range cfg.APIKeys {
		keys.AddKey("admin-"+strconv.Itoa(i), key, "admin-key", cfg.Role)
	}

	var jwtAuth auth.Authenticator
	if cfg.JWTSecret != "" {
		jwtAuth = auth.NewJWTAuthenticator(auth.JWTConfig{Issuer: cfg.JWTIssuer},
			auth.NewStaticKeyProvider([]byte(cfg.JWTSecret)))
	}

	return auth.NewCompositeAuthenticator(
		auth.NewAPIKeyAuthenticator(auth.APIKeyConfig{}, keys),
		jwtAuth,
	)
}
