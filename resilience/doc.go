// Package resilience retries transient failures of outbound calls.
//
// A Retry runs an operation up to MaxAttempts times with exponential backoff
// between attempts. RetryIf decides which errors are worth another attempt;
// context cancellation always stops the loop.
//
//	r := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts:  3,
//	    InitialDelay: 100 * time.Millisecond,
//	    RetryIf:      isTransient,
//	})
//
//	err := r.Do(ctx, func(ctx context.Context) error {
//	    return callUpstream(ctx)
//	})
//
// Health reporting wraps the whole Do call, so a request that succeeds on a
// later attempt is not counted as an integration error.
package resilience
