package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/integrationhealth/health"
	"github.com/jonwraymond/integrationhealth/observe"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultAddr            = ":3000"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultServiceName     = "integrationhealth"
	DefaultMongoDatabase   = "poc-healthcheck"
	DefaultCacheTTL        = 5 * time.Minute
	DefaultPokeAPIURL      = "https://pokeapi.co/api/v2"
	DefaultPokeAPITimeout  = 5 * time.Second
	DefaultPokeAPIAttempts = 2
	DefaultAdminRole       = "admin"
)

// Errors returned by Load, Parse and Validate.
var (
	ErrMissingEnv         = errors.New("config: missing required environment variables")
	ErrInvalidIntegration = errors.New("config: invalid integration")
	ErrInvalidValue       = errors.New("config: invalid value")
	ErrInvalidDuration    = errors.New("config: duration must not be negative")
)

// Config is the top-level service configuration.
type Config struct {
	Server       ServerConfig        `yaml:"server"`
	Observe      observe.Config      `yaml:"observe"`
	Admin        AdminConfig         `yaml:"admin"`
	Mongo        MongoConfig         `yaml:"mongo"`
	Redis        RedisConfig         `yaml:"redis"`
	PokeAPI      PokeAPIConfig       `yaml:"pokeapi"`
	Integrations []IntegrationConfig `yaml:"integrations"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AdminConfig protects the administrative endpoints.
type AdminConfig struct {
	// APIKeys are accepted in the X-API-Key header.
	APIKeys []string `yaml:"api_keys"`

	// JWTSecret enables HMAC bearer tokens when non-empty.
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`

	// Role is required on the authenticated identity.
	Role string `yaml:"role"`
}

// Enabled reports whether any admin credential is configured.
func (a AdminConfig) Enabled() bool {
	return len(a.APIKeys) > 0 || a.JWTSecret != ""
}

// MongoConfig configures the books store. An empty URI disables it.
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// RedisConfig configures the response cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// PokeAPIConfig configures the upstream API client.
type PokeAPIConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"` // 1 disables retries
}

// IntegrationConfig declares one monitored integration.
type IntegrationConfig struct {
	Name     string       `yaml:"name"`
	Kind     string       `yaml:"kind"`
	Optional bool         `yaml:"optional"`
	Policy   PolicyConfig `yaml:"policy"`
}

// PolicyConfig is a partial policy. Absent keys keep the health defaults.
type PolicyConfig struct {
	FailThreshold *int `yaml:"error_per_interval_to_fail_state"`
	WarnThreshold *int `yaml:"error_per_interval_to_warn_state"`
	WindowMinutes *int `yaml:"error_minute_interval"`
}

// Override converts p to a health.PolicyOverride.
func (p PolicyConfig) Override() health.PolicyOverride {
	return health.PolicyOverride{
		FailThreshold: p.FailThreshold,
		WarnThreshold: p.WarnThreshold,
		WindowMinutes: p.WindowMinutes,
	}
}

// Options returns the registration options for this integration.
func (c IntegrationConfig) Options() []health.Option {
	return []health.Option{
		health.WithPolicy(c.Policy.Override()),
		health.WithOptional(c.Optional),
	}
}

// Equal reports whether two integration definitions are identical.
func (c IntegrationConfig) Equal(o IntegrationConfig) bool {
	return c.Name == o.Name &&
		c.Kind == o.Kind &&
		c.Optional == o.Optional &&
		intPtrEqual(c.Policy.FailThreshold, o.Policy.FailThreshold) &&
		intPtrEqual(c.Policy.WarnThreshold, o.Policy.WarnThreshold) &&
		intPtrEqual(c.Policy.WindowMinutes, o.Policy.WindowMinutes)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Integration returns the definition named name.
func (c *Config) Integration(name string) (IntegrationConfig, bool) {
	for _, ic := range c.Integrations {
		if ic.Name == name {
			return ic, true
		}
	}
	return IntegrationConfig{}, false
}

// Load reads, expands and parses the YAML config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data)
}

// Parse expands environment references in data and decodes it over the
// defaults.
func Parse(data []byte) (*Config, error) {
	expanded, err := ExpandEnvStrict(string(data))
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config pre-populated with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            DefaultAddr,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Observe: observe.Config{
			ServiceName: DefaultServiceName,
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
		},
		Admin: AdminConfig{
			Role: DefaultAdminRole,
		},
		Mongo: MongoConfig{
			Database: DefaultMongoDatabase,
		},
		Redis: RedisConfig{
			TTL: DefaultCacheTTL,
		},
		PokeAPI: PokeAPIConfig{
			BaseURL:     DefaultPokeAPIURL,
			Timeout:     DefaultPokeAPITimeout,
			MaxAttempts: DefaultPokeAPIAttempts,
		},
	}
}

// Validate checks structural constraints.
func (c *Config) Validate() error {
	if err := c.Observe.Validate(); err != nil {
		return fmt.Errorf("config: observe: %w", err)
	}

	durations := map[string]time.Duration{
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"redis.ttl":               c.Redis.TTL,
		"pokeapi.timeout":         c.PokeAPI.Timeout,
	}
	for key, d := range durations {
		if d < 0 {
			return fmt.Errorf("%w: %s", ErrInvalidDuration, key)
		}
	}

	if c.PokeAPI.MaxAttempts < 1 {
		return fmt.Errorf("%w: pokeapi.max_attempts must be at least 1, got %d", ErrInvalidValue, c.PokeAPI.MaxAttempts)
	}

	seen := make(map[string]struct{}, len(c.Integrations))
	for i, ic := range c.Integrations {
		name := strings.TrimSpace(ic.Name)
		if name == "" {
			return fmt.Errorf("%w: integrations[%d]: name is required", ErrInvalidIntegration, i)
		}
		if name != ic.Name {
			return fmt.Errorf("%w: integrations[%d]: name %q has surrounding whitespace", ErrInvalidIntegration, i, ic.Name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: integrations[%d]: duplicate name %q", ErrInvalidIntegration, i, ic.Name)
		}
		seen[name] = struct{}{}

		if err := validateThreshold(ic.Policy.FailThreshold); err != nil {
			return fmt.Errorf("%w: %q: error_per_interval_to_fail_state %v", ErrInvalidIntegration, ic.Name, err)
		}
		if err := validateThreshold(ic.Policy.WarnThreshold); err != nil {
			return fmt.Errorf("%w: %q: error_per_interval_to_warn_state %v", ErrInvalidIntegration, ic.Name, err)
		}
		if w := ic.Policy.WindowMinutes; w != nil && *w <= 0 {
			return fmt.Errorf("%w: %q: error_minute_interval must be positive", ErrInvalidIntegration, ic.Name)
		}
	}
	return nil
}

func validateThreshold(n *int) error {
	if n != nil && *n < health.Never {
		return fmt.Errorf("must be >= %d", health.Never)
	}
	return nil
}

// ChangedIntegrations returns the integrations in next that are new or
// differ from their definition in prev, in next's order.
func ChangedIntegrations(prev, next *Config) []IntegrationConfig {
	var changed []IntegrationConfig
	for _, ic := range next.Integrations {
		old, ok := prev.Integration(ic.Name)
		if !ok || !old.Equal(ic) {
			changed = append(changed, ic)
		}
	}
	return changed
}
