package telemetry

import (
	"fmt"
)

// API is an abstraction over logging/metrics.
// Components take an API instead of logging directly so tests can assert on what was reported.
type API interface {
	// ReportBroken reports a component that has broken in a way that should be addressed.
	//
	// The `id` names the component, not the specific step that failed. For a store fetcher
	// whose upstream returned garbage the id is `vtex.fetch`, and the details (status code,
	// decode error) go into params or a wrapped error.
	//
	// Formatting rules:
	// 1) all lowercase
	// 2) use underscores for large components
	// 3) use dashes for methods part of a larger component
	ReportBroken(id string, params ...any)

	// ReportWarning reports a scenario that does not necessarily indicate brokenness,
	// but may be subject to investigation.
	ReportWarning(id string, params ...any)

	// ReportDebug reports some debug information that will be ignored in production.
	ReportDebug(msg string, params ...any)

	// ReportCount reports the count of a specific event at the current time, these counts
	// are points of data over time and should not be summed.
	ReportCount(id string, count int64)
}

// ScopedAPI attaches a namespace to every id reported through it, much like a sub-logger.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) scoped(id string) string {
	return fmt.Sprintf("%s: %s", s.namespace, id)
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.scoped(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.scoped(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.scoped(msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.scoped(id), count)
}
