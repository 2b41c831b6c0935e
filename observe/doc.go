// Package observe provides observability primitives for integration calls.
//
// It is a pure instrumentation library: no dependency calls of its own and no
// I/O beyond exporter setup. Callers wrap each outbound dependency operation
// with Middleware, which traces, meters and logs the call and forwards its
// outcome to a Reporter such as a health registry.
package observe
