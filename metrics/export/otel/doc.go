// Package otel binds engine metrics to OpenTelemetry observable instruments.
//
// [NewOTelExporter] registers one Int64ObservableCounter per counter and one
// Int64ObservableGauge per latency bucket. A single callback reads
// MetricsSnapshot on each collection cycle. Callers own the MeterProvider.
package otel
