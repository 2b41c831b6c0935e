package resilience

import "errors"

// ErrMaxRetriesExceeded wraps the last error once every attempt has failed.
var ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")
