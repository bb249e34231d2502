// Package infra holds the adapters behind the core interfaces: the zerolog
// logger, Prometheus and InfluxDB metrics sinks, the MQTT result publisher
// and the Sentry monitor. Nothing in core imports these packages.
package infra
