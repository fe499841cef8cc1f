// Package audit implements the append-only compliance trail for governed
// actions.
//
// Three record families are kept: audit entries (one per governed
// action, amendable only in a bounded set of outcome fields), access logs
// (write-once PHI access attempts), and escalation logs (mutable only to
// mark resolution). Entries are retrievable through three secondary
// indices (patient, agent type, session) that stay consistent with the
// primary store: an entry is visible in its indices exactly when it is
// visible at all.
//
// Persistence is pluggable through the Store interface; in-memory and
// SQLite backends live in the storage subpackage, export encoders in
// export, and scheduled pruning in retention.
package audit
