package health

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/integrationhealth/observe"
)

// RegistryConfig configures the integration registry.
type RegistryConfig struct {
	// Clock returns the current time.
	// Default: time.Now
	Clock func() time.Time

	// Parallel evaluates integrations concurrently when true.
	// Default: true
	Parallel bool

	// MaxParallel bounds concurrent evaluations when Parallel is set.
	// Default: runtime.GOMAXPROCS(0)
	MaxParallel int

	// Logger receives registration and status transition logs.
	// Default: no-op logger
	Logger observe.Logger

	// OnStatusChange is called after an evaluation changes an integration's status.
	OnStatusChange func(StatusChange)
}

// StatusChange describes a status transition observed during evaluation.
type StatusChange struct {
	Name     string
	Kind     string
	Optional bool
	From     Status
	To       Status
}

// Registry tracks integrations and derives their health from reported errors.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: only Register can fail, and only for an empty name.
type Registry struct {
	config RegistryConfig

	mu           sync.RWMutex
	integrations map[string]*integration
	order        []string // Maintains registration order
}

// NewRegistry creates an empty registry.
func NewRegistry(config ...RegistryConfig) *Registry {
	cfg := RegistryConfig{Parallel: true}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = runtime.GOMAXPROCS(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}

	return &Registry{
		config:       cfg,
		integrations: make(map[string]*integration),
	}
}

// Register inserts or replaces the integration called name.
// Replacing an integration discards its error history and resets its status to pass.
func (r *Registry) Register(name, kind string, opts ...Option) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}

	var reg registration
	for _, opt := range opts {
		opt(&reg)
	}

	policy, clamped := reg.override.apply(DefaultPolicy()).normalize()
	ctx := context.Background()
	if len(clamped) > 0 {
		r.config.Logger.Warn(ctx, "integration policy clamped",
			observe.Field{Key: "integration", Value: name},
			observe.Field{Key: "fields", Value: clamped},
		)
	}

	in := newIntegration(name, kind, reg.optional, policy)

	r.mu.Lock()
	if _, exists := r.integrations[name]; !exists {
		r.order = append(r.order, name)
	}
	r.integrations[name] = in
	r.mu.Unlock()

	r.config.Logger.Info(ctx, "integration registered",
		observe.Field{Key: "integration", Value: name},
		observe.Field{Key: "kind", Value: kind},
		observe.Field{Key: "optional", Value: reg.optional},
		observe.Field{Key: "fail_threshold", Value: policy.FailThreshold},
		observe.Field{Key: "warn_threshold", Value: policy.WarnThreshold},
		observe.Field{Key: "window_minutes", Value: policy.WindowMinutes},
	)
	return nil
}

// ReportError records an error for the named integration at the current time.
// Unknown names are ignored.
func (r *Registry) ReportError(name string) {
	in := r.lookup(name)
	if in == nil {
		r.config.Logger.Debug(context.Background(), "error reported for unknown integration",
			observe.Field{Key: "integration", Value: name},
		)
		return
	}
	in.record(r.config.Clock())
}

// Report calls ReportError when err is non-nil.
func (r *Registry) Report(name string, err error) {
	if err != nil {
		r.ReportError(name)
	}
}

// ResetAllErrors clears the error history of every integration.
// Statuses are left unchanged until the next evaluation.
func (r *Registry) ResetAllErrors() {
	for _, in := range r.snapshot() {
		in.reset()
	}
}

// Names returns the registered integration names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Integration returns the last evaluated state of one integration.
func (r *Registry) Integration(name string) (IntegrationReport, bool) {
	in := r.lookup(name)
	if in == nil {
		return IntegrationReport{}, false
	}
	return in.report(), true
}

// Policy returns the normalized policy an integration was registered with.
func (r *Registry) Policy(name string) (Policy, bool) {
	in := r.lookup(name)
	if in == nil {
		return Policy{}, false
	}
	return in.policy, true
}

// HealthResponse evaluates every integration and aggregates the result.
// If ctx is already done, the previously evaluated statuses are returned.
func (r *Registry) HealthResponse(ctx context.Context) Response {
	integrations := r.snapshot()

	if ctx.Err() == nil {
		r.evaluate(ctx, integrations)
	}

	reports := make([]IntegrationReport, len(integrations))
	for i, in := range integrations {
		reports[i] = in.report()
	}

	return Response{
		Status:       Aggregate(reports),
		Integrations: reports,
	}
}

func (r *Registry) evaluate(ctx context.Context, integrations []*integration) {
	now := r.config.Clock()

	if !r.config.Parallel || len(integrations) < 2 {
		for _, in := range integrations {
			r.evaluateOne(ctx, in, now)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(r.config.MaxParallel)
	for _, in := range integrations {
		g.Go(func() error {
			r.evaluateOne(ctx, in, now)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Registry) evaluateOne(ctx context.Context, in *integration, now time.Time) {
	prev, next := in.evaluate(now)
	if prev == next {
		return
	}

	fields := []observe.Field{
		{Key: "integration", Value: in.name},
		{Key: "kind", Value: in.kind},
		{Key: "optional", Value: in.optional},
		{Key: "from", Value: prev.String()},
		{Key: "to", Value: next.String()},
	}
	if next > prev {
		r.config.Logger.Warn(ctx, "integration status degraded", fields...)
	} else {
		r.config.Logger.Info(ctx, "integration status recovered", fields...)
	}

	if r.config.OnStatusChange != nil {
		r.config.OnStatusChange(StatusChange{
			Name:     in.name,
			Kind:     in.kind,
			Optional: in.optional,
			From:     prev,
			To:       next,
		})
	}
}

// lookup finds a record by name, trimmed the same way Register trims it.
func (r *Registry) lookup(name string) *integration {
	name = strings.TrimSpace(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.integrations[name]
}

// snapshot returns the current records in registration order.
func (r *Registry) snapshot() []*integration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*integration, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.integrations[name])
	}
	return out
}
