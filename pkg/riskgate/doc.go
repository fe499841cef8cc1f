// Package riskgate implements risk-tiered gating for agent actions.
//
// Actions are classified into four tiers by action type: LOW (routine
// administrative tasks, auto-execute), MEDIUM (standard clinical
// operations, auto-execute with supervisor notification), HIGH (clinical
// decisions with patient impact, one human approver), and CRITICAL
// (high-stakes clinical decisions, two approvers). A per-tier governance
// rule also carries a confidence threshold; an action below it is forced
// behind approval regardless of tier.
//
// Approval requests track multi-approver consensus. Decisions on one
// request are serialized by a per-request mutex, so concurrent approvals
// cannot overshoot the threshold and a rejection cannot race past a
// completed approval. APPROVED and REJECTED are terminal.
package riskgate
