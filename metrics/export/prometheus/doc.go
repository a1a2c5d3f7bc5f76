// Package prometheus renders authsession engine metrics in the Prometheus
// text exposition format.
//
// Counter names are prefixed authsession_ and end in _total. The verify
// latency histogram is authsession_verify_latency_seconds. Nothing is
// registered globally: callers mount [Exporter.Handler] themselves.
package prometheus
