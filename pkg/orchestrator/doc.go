// Package orchestrator routes actions to domain agents through the
// governance engine and coordinates multi-step workflows with ordered,
// abort-on-required-failure execution.
package orchestrator
