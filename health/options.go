package health

// Option configures an integration at registration time.
type Option func(*registration)

type registration struct {
	override PolicyOverride
	optional bool
}

// WithFailThreshold overrides the fail threshold.
func WithFailThreshold(n int) Option {
	return func(r *registration) {
		r.override.FailThreshold = &n
	}
}

// WithWarnThreshold overrides the warn threshold.
func WithWarnThreshold(n int) Option {
	return func(r *registration) {
		r.override.WarnThreshold = &n
	}
}

// WithWindowMinutes overrides the width of the error window.
func WithWindowMinutes(n int) Option {
	return func(r *registration) {
		r.override.WindowMinutes = &n
	}
}

// WithPolicy applies a partial policy override. Non-nil fields replace
// the corresponding values set by earlier options.
func WithPolicy(o PolicyOverride) Option {
	return func(r *registration) {
		if o.FailThreshold != nil {
			r.override.FailThreshold = o.FailThreshold
		}
		if o.WarnThreshold != nil {
			r.override.WarnThreshold = o.WarnThreshold
		}
		if o.WindowMinutes != nil {
			r.override.WindowMinutes = o.WindowMinutes
		}
	}
}

// Optional marks the integration as optional: its status is reported
// but never affects the overall status.
func Optional() Option {
	return WithOptional(true)
}

// WithOptional sets the optional flag explicitly.
func WithOptional(optional bool) Option {
	return func(r *registration) {
		r.optional = optional
	}
}
