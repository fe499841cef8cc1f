// Package action defines the core types shared across the governance
// runtime: the Action proposed by a domain agent, the handler Result, and
// the risk/status/agent enumerations.
//
// These types carry no behavior beyond validation; lifecycle mutation is
// owned by the governance engine.
package action
