package health

import (
	"sync"
	"time"
)

// integration is the registry-owned record of one tracked dependency.
type integration struct {
	name     string
	kind     string
	optional bool
	policy   Policy

	mu      sync.Mutex
	status  Status
	recent  int
	history []time.Time
}

func newIntegration(name, kind string, optional bool, policy Policy) *integration {
	return &integration{
		name:     name,
		kind:     kind,
		optional: optional,
		policy:   policy,
		status:   StatusPass,
	}
}

// record appends an error timestamp and drops entries that fell out of the window.
func (in *integration) record(at time.Time) {
	in.mu.Lock()
	defer in.mu.Unlock()

	// Reports arrive in real time; a clock step backwards must not break ordering.
	if n := len(in.history); n > 0 && at.Before(in.history[n-1]) {
		at = in.history[n-1]
	}
	in.history = append(in.history, at)
	in.pruneLocked(at)
}

func (in *integration) reset() {
	in.mu.Lock()
	in.history = nil
	in.mu.Unlock()
}

// evaluate recomputes the status at now and returns the previous and new status.
func (in *integration) evaluate(now time.Time) (prev, next Status) {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.pruneLocked(now)
	prev = in.status
	in.status, in.recent = in.policy.evaluate(in.history, now)
	return prev, in.status
}

// pruneLocked evicts timestamps at or before now-window.
func (in *integration) pruneLocked(now time.Time) {
	cut := firstAfter(in.history, now.Add(-in.policy.Window()))
	if cut == 0 {
		return
	}
	if cut == len(in.history) {
		in.history = in.history[:0]
		return
	}
	in.history = append(in.history[:0], in.history[cut:]...)
}

func (in *integration) report() IntegrationReport {
	in.mu.Lock()
	defer in.mu.Unlock()

	return IntegrationReport{
		Name:         in.name,
		Kind:         in.kind,
		Optional:     in.optional,
		Status:       in.status,
		ErrorsLength: in.recent,
	}
}
