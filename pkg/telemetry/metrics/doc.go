// Package metrics exposes Prometheus metrics for the governance
// pipeline: action throughput and latency, gate decisions and approval
// queue depth, denials, escalations, and bias monitoring activity.
//
// All metrics live under the configured namespace and subsystem
// (minerva_governance_* by default) in a collector-owned registry, so
// tests and embedders never collide with the global default registry.
package metrics
