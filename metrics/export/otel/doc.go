// Package otel binds goToken metrics to OpenTelemetry observable instruments.
//
// [NewExporter] registers an Int64ObservableCounter per goToken counter and an
// Int64ObservableGauge per latency bucket. A single callback reads
// [goToken.Metrics.Snapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate the metrics it reads.
package otel
