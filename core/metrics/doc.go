// Package metrics defines the sinks the dispatcher reports rankings and
// objective runs to. Concrete sinks live in infra/metrics and register
// themselves through RegisterMetricsSink.
package metrics
