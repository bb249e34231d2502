// Package metrics defines the sinks that observe optimization runs. A run
// produces one RunEvent and, when it solved, one HourEvent per hour of the
// horizon. Sinks are built from configuration through a registry; several
// configured sinks are combined in a MultiSink.
package metrics
