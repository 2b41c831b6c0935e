package health

// Response is the aggregate health snapshot returned by HealthResponse.
type Response struct {
	Status       Overall             `json:"status"`
	Integrations []IntegrationReport `json:"integrations"`
}

// IntegrationReport is the externally visible state of one integration.
type IntegrationReport struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Optional bool   `json:"optional"`
	Status   Status `json:"status"`

	// ErrorsLength is the number of errors inside the window at evaluation time.
	ErrorsLength int `json:"errors_length"`
}

// Aggregate derives the overall status from per-integration reports.
// Optional integrations never contribute.
func Aggregate(reports []IntegrationReport) Overall {
	overall := OverallHealthy
	for _, rep := range reports {
		if rep.Optional {
			continue
		}
		switch rep.Status {
		case StatusFail:
			return OverallDown
		case StatusWarn:
			overall = OverallUnhealthy
		}
	}
	return overall
}
