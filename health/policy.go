package health

import (
	"sort"
	"time"
)

// Never disables a threshold rule.
const Never = -1

// Default policy values.
const (
	DefaultFailThreshold = 5
	DefaultWarnThreshold = 0
	DefaultWindowMinutes = 5
)

// Policy is the sliding-window error policy of one integration.
type Policy struct {
	// FailThreshold is the error count inside the window that yields StatusFail.
	// 0 means any error, Never (-1) disables the rule.
	// Default: 5
	FailThreshold int

	// WarnThreshold is the error count inside the window that yields StatusWarn.
	// 0 means any error, Never (-1) disables the rule.
	// Default: 0
	WarnThreshold int

	// WindowMinutes is the width of the trailing window.
	// Default: 5
	WindowMinutes int
}

// DefaultPolicy returns the policy applied when no overrides are given.
func DefaultPolicy() Policy {
	return Policy{
		FailThreshold: DefaultFailThreshold,
		WarnThreshold: DefaultWarnThreshold,
		WindowMinutes: DefaultWindowMinutes,
	}
}

// Window returns the window width as a duration.
func (p Policy) Window() time.Duration {
	return time.Duration(p.WindowMinutes) * time.Minute
}

// PolicyOverride holds partial policy overrides. Nil fields keep the default.
type PolicyOverride struct {
	FailThreshold *int
	WarnThreshold *int
	WindowMinutes *int
}

// apply merges the override onto p. Override wins per field.
func (o PolicyOverride) apply(p Policy) Policy {
	if o.FailThreshold != nil {
		p.FailThreshold = *o.FailThreshold
	}
	if o.WarnThreshold != nil {
		p.WarnThreshold = *o.WarnThreshold
	}
	if o.WindowMinutes != nil {
		p.WindowMinutes = *o.WindowMinutes
	}
	return p
}

// normalize clamps invalid values and reports which fields were changed.
func (p Policy) normalize() (Policy, []string) {
	var clamped []string
	if p.FailThreshold < Never {
		p.FailThreshold = Never
		clamped = append(clamped, "fail_threshold")
	}
	if p.WarnThreshold < Never {
		p.WarnThreshold = Never
		clamped = append(clamped, "warn_threshold")
	}
	if p.WindowMinutes <= 0 {
		p.WindowMinutes = DefaultWindowMinutes
		clamped = append(clamped, "window_minutes")
	}
	return p, clamped
}

// evaluate applies the policy to a chronological error history.
// It returns the resulting status and the number of errors inside the window.
func (p Policy) evaluate(history []time.Time, now time.Time) (Status, int) {
	if len(history) == 0 {
		return StatusPass, 0
	}

	recent := countAfter(history, now.Add(-p.Window()))

	if reached(recent, p.FailThreshold) {
		return StatusFail, recent
	}
	if reached(recent, p.WarnThreshold) {
		return StatusWarn, recent
	}
	return StatusPass, recent
}

// reached reports whether count satisfies threshold. A zero threshold means
// "any error", so an empty window never satisfies it.
func reached(count, threshold int) bool {
	if threshold == Never {
		return false
	}
	if threshold == 0 {
		return count > 0
	}
	return count >= threshold
}

// countAfter counts timestamps strictly after start. history is sorted.
func countAfter(history []time.Time, start time.Time) int {
	return len(history) - firstAfter(history, start)
}

// firstAfter returns the index of the first timestamp strictly after start.
func firstAfter(history []time.Time, start time.Time) int {
	return sort.Search(len(history), func(i int) bool {
		return history[i].After(start)
	})
}
