package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

// newTestRetry returns a Retry that records delays instead of sleeping.
func newTestRetry(cfg RetryConfig) (*Retry, *[]time.Duration) {
	r := NewRetry(cfg)
	var slept []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return r, &slept
}

func TestNewRetry_Defaults(t *testing.T) {
	cfg := NewRetry(RetryConfig{}).Config()

	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.InitialDelay != 100*time.Millisecond {
		t.Errorf("InitialDelay = %v, want 100ms", cfg.InitialDelay)
	}
	if cfg.MaxDelay != 2*time.Second {
		t.Errorf("MaxDelay = %v, want 2s", cfg.MaxDelay)
	}
	if cfg.Multiplier != 2.0 {
		t.Errorf("Multiplier = %f, want 2.0", cfg.Multiplier)
	}
	if cfg.RetryIf(context.Canceled) || !cfg.RetryIf(errors.New("boom")) {
		t.Error("default RetryIf should retry everything except context errors")
	}
}

func TestRetry_Do(t *testing.T) {
	boom := errors.New("boom")
	permanent := errors.New("permanent")

	tests := []struct {
		name         string
		failures     int
		err          error
		wantAttempts int
		wantErr      error
		wantExceeded bool
	}{
		{name: "first attempt succeeds", failures: 0, wantAttempts: 1},
		{name: "succeeds on retry", failures: 2, err: boom, wantAttempts: 3},
		{name: "exhausted", failures: 10, err: boom, wantAttempts: 3, wantErr: boom, wantExceeded: true},
		{name: "non-retryable", failures: 10, err: permanent, wantAttempts: 1, wantErr: permanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRetry(RetryConfig{
				MaxAttempts: 3,
				RetryIf:     func(err error) bool { return !errors.Is(err, permanent) },
			})

			attempts := 0
			err := r.Do(context.Background(), func(context.Context) error {
				attempts++
				if attempts <= tt.failures {
					return tt.err
				}
				return nil
			})

			if attempts != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", attempts, tt.wantAttempts)
			}
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Do() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Do() error = %v, want %v", err, tt.wantErr)
			}
			if got := errors.Is(err, ErrMaxRetriesExceeded); got != tt.wantExceeded {
				t.Errorf("errors.Is(err, ErrMaxRetriesExceeded) = %v, want %v", got, tt.wantExceeded)
			}
		})
	}
}

func TestRetry_SingleAttemptReturnsErrorUnchanged(t *testing.T) {
	boom := errors.New("boom")
	r, slept := newTestRetry(RetryConfig{MaxAttempts: 1})

	err := r.Do(context.Background(), func(context.Context) error { return boom })
	if err != boom {
		t.Errorf("Do() error = %v, want %v", err, boom)
	}
	if len(*slept) != 0 {
		t.Errorf("slept %v, want no waits", *slept)
	}
}

func TestRetry_ExponentialBackoff(t *testing.T) {
	r, slept := newTestRetry(RetryConfig{
		MaxAttempts:  5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     300 * time.Millisecond,
	})

	_ = r.Do(context.Background(), func(context.Context) error { return errors.New("boom") })

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
	if len(*slept) != len(want) {
		t.Fatalf("slept %v, want %v", *slept, want)
	}
	for i := range want {
		if (*slept)[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, (*slept)[i], want[i])
		}
	}
}

func TestRetry_Jitter(t *testing.T) {
	r := NewRetry(RetryConfig{InitialDelay: 100 * time.Millisecond, Jitter: true})
	for i := 0; i < 50; i++ {
		d := r.delay(1)
		if d < 100*time.Millisecond || d >= 125*time.Millisecond {
			t.Fatalf("delay = %v, want within [100ms, 125ms)", d)
		}
	}
}

func TestRetry_OnRetry(t *testing.T) {
	var attempts []int
	r, _ := newTestRetry(RetryConfig{
		MaxAttempts: 3,
		OnRetry: func(_ context.Context, attempt int, _ error, _ time.Duration) {
			attempts = append(attempts, attempt)
		},
	})

	_ = r.Do(context.Background(), func(context.Context) error { return errors.New("boom") })

	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("OnRetry attempts = %v, want [1 2]", attempts)
	}
}

func TestRetry_ContextCancelledDuringWait(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	attempts := 0
	err := r.Do(ctx, func(context.Context) error {
		attempts++
		return errors.New("boom")
	})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Do() error = %v, want deadline exceeded", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func BenchmarkRetry_Success(b *testing.B) {
	r := NewRetry(RetryConfig{})
	ctx := context.Background()
	op := func(context.Context) error { return nil }

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.Do(ctx, op)
	}
}
