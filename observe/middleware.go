package observe

import (
	"context"
	"errors"
	"time"
)

// CallFunc is a single call to an external dependency.
type CallFunc func(ctx context.Context) error

// Reporter receives the outcome of dependency calls. *health.Registry
// satisfies it.
type Reporter interface {
	Report(name string, err error)
}

// Middleware wraps dependency calls with tracing, metrics, logging and
// health reporting.
//
// Contract:
//   - Concurrency: Wrap() returns a function safe for concurrent use.
//   - Context: the span context is propagated to the wrapped call.
//   - Errors: errors from the wrapped call are recorded and returned
//     unchanged. They are reported unless the caller's context ended and
//     the error is that context error.
type Middleware struct {
	tracer   Tracer
	metrics  Metrics
	logger   Logger
	reporter Reporter
}

// NewMiddleware creates a Middleware. A nil reporter disables health
// reporting.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger, reporter Reporter) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:   tracer,
		metrics:  metrics,
		logger:   logger,
		reporter: reporter,
	}
}

// Wrap returns fn instrumented for the integration described by meta.
func (m *Middleware) Wrap(meta IntegrationMeta, fn CallFunc) CallFunc {
	return func(ctx context.Context) error {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		err := fn(ctx)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordCall(ctx, meta, duration, err)

		abandoned := CallerAbandoned(ctx, err)
		if m.reporter != nil && !abandoned {
			m.reporter.Report(meta.Name, err)
		}

		log := m.logger.WithIntegration(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000},
		}
		switch {
		case abandoned:
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			log.Warn(ctx, "integration call abandoned by caller", fields...)
		case err != nil:
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			log.Error(ctx, "integration call failed", fields...)
		default:
			log.Debug(ctx, "integration call completed", fields...)
		}

		return err
	}
}

// CallerAbandoned reports whether err only says that ctx ended. A caller
// that hangs up or runs out of time is not a dependency failure.
func CallerAbandoned(ctx context.Context, err error) bool {
	cerr := ctx.Err()
	return err != nil && cerr != nil && errors.Is(err, cerr)
}

// Call runs fn once through Wrap.
func (m *Middleware) Call(ctx context.Context, meta IntegrationMeta, fn CallFunc) error {
	if meta.Name == "" {
		return ErrMissingIntegrationName
	}
	return m.Wrap(meta, fn)(ctx)
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer, reporter Reporter) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger(), reporter), nil
}
