// Package prometheus exposes goToken metrics to Prometheus.
//
// [NewCollector] adapts a [goToken.Metrics] to a prometheus.Collector. Counter names are
// gotoken_*_total; the single histogram is gotoken_sign_latency_seconds. [Handler] serves
// one Metrics on a private registry.
//
// # What this package must NOT do
//
//   - Register anything in the global Prometheus registry.
//   - Mutate the metrics it reads.
package prometheus
