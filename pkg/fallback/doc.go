// Package fallback raises and tracks escalations for actions that
// cannot be trusted to execute automatically.
//
// An action escalates when its confidence falls below the configured
// threshold or when it carries an explicit safety concern marker.
// Callers may also raise an escalation directly after a handler
// execution error. Each qualifying action produces exactly one
// escalation record; repeat triggers for the same action return the
// existing record.
//
// Registered callbacks are invoked synchronously in registration order
// when an escalation is triggered. The record is created before any
// callback runs, and a failing or panicking callback never prevents the
// escalation from being recorded or other callbacks from running.
package fallback
