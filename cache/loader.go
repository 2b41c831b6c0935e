package cache

import (
	"context"
	"time"
)

// LoadFunc fetches a value from its source of truth.
type LoadFunc func(ctx context.Context) ([]byte, error)

// ErrorHook receives backend failures. The Loader has already fallen back
// to a direct load when it is called.
type ErrorHook func(ctx context.Context, op, key string, err error)

// Loader is a read-through cache in front of a LoadFunc.
type Loader struct {
	cache   Cache
	policy  Policy
	onError ErrorHook
}

// NewLoader creates a Loader. A nil onError discards backend failures.
func NewLoader(cache Cache, policy Policy, onError ErrorHook) *Loader {
	if onError == nil {
		onError = func(context.Context, string, string, error) {}
	}
	return &Loader{cache: cache, policy: policy, onError: onError}
}

// Load returns the cached value for key, or calls load and caches its
// result. Load errors are returned unchanged and are never cached.
func (l *Loader) Load(ctx context.Context, key string, load LoadFunc) ([]byte, error) {
	return l.LoadTTL(ctx, key, 0, load)
}

// LoadTTL is Load with a per-call TTL override.
func (l *Loader) LoadTTL(ctx context.Context, key string, ttl time.Duration, load LoadFunc) ([]byte, error) {
	if l == nil || l.cache == nil || !l.policy.ShouldCache() || ValidateKey(key) != nil {
		return load(ctx)
	}

	cached, ok, err := l.cache.Get(ctx, key)
	switch {
	case err != nil:
		l.onError(ctx, "get", key, err)
	case ok:
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if ttl = l.policy.EffectiveTTL(ttl); ttl > 0 {
		if err := l.cache.Set(ctx, key, value, ttl); err != nil {
			l.onError(ctx, "set", key, err)
		}
	}
	return value, nil
}
