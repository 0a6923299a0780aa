// Package metrics defines the sinks that record plan, line, trip, delay and
// resource activity. Sinks like the Prometheus and InfluxDB ones in
// infra/metrics can be combined with NewMultiSink; NewMetricsSink builds a
// MultiSink automatically when several sinks are configured.
package metrics
