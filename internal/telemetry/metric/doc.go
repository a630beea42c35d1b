// Package metric exposes Prometheus metrics for the contacts service.
//
// Metrics are registered on a private registry owned by Registry, which
// also serves them over HTTP at /metrics. Registry implements the
// recorder interfaces declared by the services and the mailer.
package metric
