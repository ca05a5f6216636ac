// Package internaldefs holds the metric names and bucket bounds shared by the goToken
// exporters, so the Prometheus and OTel views of a [goToken.Metrics] agree.
//
// # What this package must NOT do
//
//   - Import any exporter package.
//   - Perform I/O.
package internaldefs
