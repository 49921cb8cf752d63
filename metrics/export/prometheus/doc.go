// Package prometheus renders engine metrics in the Prometheus text format.
//
// [PrometheusExporter.Handler] is mounted at /metrics by the HTTP API. Counter
// names follow mailauth_*_total and the login latency histogram is
// mailauth_login_latency_seconds. Nothing is registered globally.
package prometheus
