package health

import "fmt"

// Status is the evaluated health of a single integration.
type Status int

const (
	// StatusPass indicates the integration has no recent errors above a threshold.
	StatusPass Status = iota
	// StatusWarn indicates the warn threshold was reached inside the window.
	StatusWarn
	// StatusFail indicates the fail threshold was reached inside the window.
	StatusFail
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pass":
		*s = StatusPass
	case "warn":
		*s = StatusWarn
	case "fail":
		*s = StatusFail
	default:
		return fmt.Errorf("health: unknown integration status %q", text)
	}
	return nil
}

// Overall is the aggregate health of the process.
type Overall int

const (
	// OverallHealthy means no required integration is warning or failing.
	OverallHealthy Overall = iota
	// OverallUnhealthy means at least one required integration is warning.
	OverallUnhealthy
	// OverallDown means at least one required integration is failing.
	OverallDown
)

// String returns the string representation of the overall status.
func (o Overall) String() string {
	switch o {
	case OverallHealthy:
		return "healthy"
	case OverallUnhealthy:
		return "unhealthy"
	case OverallDown:
		return "down"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Overall) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Overall) UnmarshalText(text []byte) error {
	switch string(text) {
	case "healthy":
		*o = OverallHealthy
	case "unhealthy":
		*o = OverallUnhealthy
	case "down":
		*o = OverallDown
	default:
		return fmt.Errorf("health: unknown overall status %q", text)
	}
	return nil
}
