// Package governance composes the access control, risk gating, audit,
// fallback, and bias managers into the action processing pipeline.
//
// The Engine is the integration point for domain agents: they register
// handlers per (agent type, action type) pair and submit actions through
// ProcessAction. The pipeline decides whether an action executes
// immediately, waits on human approval, escalates, or is rejected, and
// records every decision in the audit trail.
package governance
