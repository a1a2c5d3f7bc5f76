// Package otel publishes authsession engine metrics through an
// OpenTelemetry Meter.
//
// Each counter becomes an Int64ObservableCounter and each histogram bucket
// an Int64ObservableGauge. One registered callback reads the engine
// snapshot per collection cycle. Callers own the MeterProvider.
package otel
