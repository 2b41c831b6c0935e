package pokemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonwraymond/integrationhealth/resilience"
)

// maxBodyBytes bounds upstream response bodies.
const maxBodyBytes = 4 << 20

// ErrInvalidName is returned for an empty pokemon name.
var ErrInvalidName = errors.New("pokemon: name is required")

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	Name string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pokemon: upstream returned %d for %q", e.Code, e.Name)
}

// NotFound reports whether the upstream does not know the name.
func (e *StatusError) NotFound() bool {
	return e.Code == http.StatusNotFound
}

// Fetcher returns the raw upstream document for a pokemon.
type Fetcher interface {
	Get(ctx context.Context, name string) ([]byte, error)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. https://pokeapi.co/api/v2.
	BaseURL string

	// Timeout bounds each attempt.
	// Default: 5s
	Timeout time.Duration

	// MaxAttempts bounds attempts per Get. Only transient failures retry.
	// Default: 1
	MaxAttempts int

	// HTTPClient overrides the transport. Its Timeout is replaced by Timeout.
	HTTPClient *http.Client
}

// Client fetches pokemon documents from pokeapi.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Context: Get honors cancellation/deadlines.
//   - Errors: non-2xx answers are *StatusError; transport errors are wrapped.
type Client struct {
	baseURL string
	http    *http.Client
	retry   *resilience.Retry
}

// NewClient creates a Client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	hc := &http.Client{}
	if cfg.HTTPClient != nil {
		c := *cfg.HTTPClient
		hc = &c
	}
	hc.Timeout = cfg.Timeout

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		retry: resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  cfg.MaxAttempts,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     time.Second,
			Jitter:       true,
			RetryIf:      Transient,
		}),
	}
}

// Get returns the upstream JSON document for name.
func (c *Client) Get(ctx context.Context, name string) ([]byte, error) {
	name = normalizeName(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	var body []byte
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		body, err = c.get(ctx, name)
		return err
	})
	return body, err
}

func (c *Client) get(ctx context.Context, name string) ([]byte, error) {
	endpoint := c.baseURL + "/pokemon/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("pokemon: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pokemon: request %q: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{Name: name, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("pokemon: read %q: %w", name, err)
	}
	return body, nil
}

// Transient reports whether err may succeed on another attempt: upstream
// 5xx and 429 answers and network timeouts.
func Transient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
