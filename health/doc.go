// Package health tracks the operational health of a process's outbound
// dependencies ("integrations") and derives an aggregate process status.
//
// The package never calls a dependency itself. Callers register the
// integrations they use, report an error every time a dependency operation
// fails, and ask the Registry for a HealthResponse when a health endpoint is
// hit. Each integration is evaluated against a sliding-window error policy.
//
// # Policy
//
// A Policy has a fail threshold, a warn threshold and a window in minutes.
// Errors strictly inside the trailing window are counted; the fail rule is
// checked before the warn rule. A threshold of 0 means "any error in the
// window" and Never (-1) disables the rule.
//
//	reg := health.NewRegistry()
//	_ = reg.Register("mongodb", "database")
//	_ = reg.Register("pokemon", "api", health.Optional(), health.WithFailThreshold(1))
//
//	if err := store.Insert(ctx, book); err != nil {
//	    reg.ReportError("mongodb")
//	}
//
//	resp := reg.HealthResponse(ctx)
//
// # Aggregation
//
// The overall status is down if any required integration fails, unhealthy if
// any required integration warns, and healthy otherwise. Optional
// integrations are reported but never change the overall status.
//
// # HTTP Endpoints
//
//	health.RegisterHandlers(mux, reg) // /healthz, /health, /health/{name}
//	mux.Handle("POST /admin/reset", authMiddleware(health.ResetHandler(reg)))
package health
