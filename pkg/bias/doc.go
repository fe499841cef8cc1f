// Package bias accumulates per-action outcome samples and detects
// demographic bias through disparate impact analysis.
//
// Outcomes are recorded per (agent type, action type) stream together
// with the patient's demographic attributes. Disparate impact compares
// the mean outcome of a protected group against a reference group on
// one dimension; a ratio below the configured threshold (0.8 by
// default, the four-fifths rule) raises a compliance event that tracks
// remediation from PENDING through IN_PROGRESS to RESOLVED.
//
// Comparisons require minimum sample counts, both overall and per
// group, before any finding is produced. Too little data yields
// ErrInsufficientData, which callers should treat as "no finding".
//
// Recording is safe for many concurrent handlers: each monitored stream
// accumulates behind its own lock. An optional Store persists samples
// and findings; persistence failures never surface into the recording
// path.
package bias
