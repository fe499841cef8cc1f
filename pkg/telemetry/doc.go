// Package telemetry groups the observability layers of the governance
// engine.
//
// # Components
//
//   - logging: structured slog logging with PHI redaction
//   - metrics: Prometheus metrics for the governance pipeline
//   - health: liveness and readiness probes
//
// Each component is a standalone subpackage wired in from the run
// command. Logging redacts protected health information (SSNs, MRNs,
// phone numbers, email addresses) from attribute values by default;
// custom redaction patterns can be added through configuration.
package telemetry
