package observe

import (
	"context"
	"testing"
	"time"
)

func TestLoggerContract_WithIntegration(t *testing.T) {
	for _, logger := range []Logger{NopLogger(), NewLoggerWithWriter("info", nil)} {
		if logger.WithIntegration(IntegrationMeta{Name: "noop"}) == nil {
			t.Fatalf("%T.WithIntegration should return non-nil logger", logger)
		}
	}
}

func TestMetricsContract_NoPanic(t *testing.T) {
	noopMetrics{}.RecordCall(context.Background(), IntegrationMeta{Name: "noop"}, 10*time.Millisecond, nil)
}

func TestTracerContract_NoPanic(t *testing.T) {
	tracer := newNoopTracer()
	_, span := tracer.StartSpan(context.Background(), IntegrationMeta{Name: "noop"})
	tracer.EndSpan(span, nil)
}

func TestReporterContract(t *testing.T) {
	var _ Reporter = (*recordingReporter)(nil)
}
