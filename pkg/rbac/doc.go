// Package rbac implements role-based access control for human users of
// the governance layer.
//
// Six roles are recognized, each mapped to a fixed permission profile
// over agent types: system admin, clinical director, nurse manager, care
// coordinator, billing staff, and family portal. Permission checks cover
// read, write, and approval access plus a per-role allowed-action list.
// Individual users can additionally carry action-level overrides granted
// by an admin or clinical director.
//
// Every permission decision carries a human-readable reason so callers
// can log and audit denials without reconstructing the rule that fired.
package rbac
