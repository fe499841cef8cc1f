package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"caretrust-hq/minerva/pkg/action"
	"caretrust-hq/minerva/pkg/audit"
)

// MemoryStore is an in-memory audit store. A single RWMutex guards the
// primary maps and all three secondary indices, so an entry and its index
// registrations become visible together.
type MemoryStore struct {
	mu sync.RWMutex

	entries     map[string]*audit.Entry
	accessLogs  map[string]*audit.AccessLog
	escalations map[string]*audit.EscalationLog

	byPatient map[string][]string
	byAgent   map[action.AgentType][]string
	bySession map[string][]string
}

// NewMemoryStore creates an empty in-memory audit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:     make(map[string]*audit.Entry),
		accessLogs:  make(map[string]*audit.AccessLog),
		escalations: make(map[string]*audit.EscalationLog),
		byPatient:   make(map[string][]string),
		byAgent:     make(map[action.AgentType][]string),
		bySession:   make(map[string][]string),
	}
}

var _ audit.Store = (*MemoryStore)(nil)

// AppendEntry stores a new entry and registers its indices atomically.
// Entry ids are write-once; a duplicate id is rejected.
func (s *MemoryStore) AppendEntry(ctx context.Context, e *audit.Entry) error {
	c := copyEntry(e)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[c.ID]; exists {
		return &audit.StorageError{Op: "append", Err: fmt.Errorf("duplicate entry id %s", c.ID)}
	}
	s.entries[c.ID] = c
	if c.PatientID != "" {
		s.byPatient[c.PatientID] = append(s.byPatient[c.PatientID], c.ID)
	}
	s.byAgent[c.AgentType] = append(s.byAgent[c.AgentType], c.ID)
	if c.SessionID != "" {
		s.bySession[c.SessionID] = append(s.bySession[c.SessionID], c.ID)
	}
	return nil
}

// GetEntry returns a copy of the entry with the given id.
func (s *MemoryStore) GetEntry(ctx context.Context, id string) (*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, &audit.EntryNotFoundError{ID: id}
	}
	return copyEntry(e), nil
}

// EntryByAction returns the entry recorded for an action id.
func (s *MemoryStore) EntryByAction(ctx context.Context, actionID string) (*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Approval re-execution can record a second entry for the same
	// action; return the newest so overrides land on the final pass.
	var latest *audit.Entry
	for _, e := range s.entries {
		if e.ActionID != actionID {
			continue
		}
		if latest == nil || e.Timestamp.After(latest.Timestamp) {
			latest = e
		}
	}
	if latest == nil {
		return nil, &audit.EntryNotFoundError{ID: actionID}
	}
	return copyEntry(latest), nil
}

// UpdateOutcome sets outcome and status and appends modifications.
func (s *MemoryStore) UpdateOutcome(ctx context.Context, id, outcome string, status action.Status, mods []audit.Modification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return &audit.EntryNotFoundError{ID: id}
	}
	e.Outcome = outcome
	e.Status = status
	e.Modifications = append(e.Modifications, mods...)
	return nil
}

// RecordOverride marks an entry human-overridden.
func (s *MemoryStore) RecordOverride(ctx context.Context, id, by, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return &audit.EntryNotFoundError{ID: id}
	}
	e.HumanOverride = true
	e.OverrideBy = by
	e.OverrideReason = reason
	e.Modifications = append(e.Modifications, audit.Modification{
		Type:      "HUMAN_OVERRIDE",
		By:        by,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// AppendAPICall attaches an external-call sub-record to an entry.
func (s *MemoryStore) AppendAPICall(ctx context.Context, id string, call audit.APICall) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return &audit.EntryNotFoundError{ID: id}
	}
	e.APICalls = append(e.APICalls, call)
	return nil
}

// EntriesByPatient returns a patient's entries, newest first.
func (s *MemoryStore) EntriesByPatient(ctx context.Context, patientID string) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byPatient[patientID], true), nil
}

// EntriesByAgent returns an agent type's entries, newest first.
func (s *MemoryStore) EntriesByAgent(ctx context.Context, agentType action.AgentType) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byAgent[agentType], true), nil
}

// EntriesBySession returns a session's entries in chronological order.
func (s *MemoryStore) EntriesBySession(ctx context.Context, sessionID string) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.bySession[sessionID], false), nil
}

// collect resolves index ids into entry copies sorted by timestamp.
// Callers must hold at least a read lock.
func (s *MemoryStore) collect(ids []string, newestFirst bool) []audit.Entry {
	out := make([]audit.Entry, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.entries[id]; ok {
			out = append(out, *copyEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// ListEntries returns filtered entries in ascending timestamp order.
func (s *MemoryStore) ListEntries(ctx context.Context, f audit.Filter) ([]audit.Entry, error) {
	s.mu.RLock()
	var out []audit.Entry
	for _, e := range s.entries {
		if f.Matches(e) {
			out = append(out, *copyEntry(e))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// AppendAccessLog stores a PHI access record.
func (s *MemoryStore) AppendAccessLog(ctx context.Context, l *audit.AccessLog) error {
	c := *l

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessLogs[c.ID] = &c
	return nil
}

// AccessLogsByPatient returns a patient's access records, newest first.
func (s *MemoryStore) AccessLogsByPatient(ctx context.Context, patientID string) ([]audit.AccessLog, error) {
	s.mu.RLock()
	var out []audit.AccessLog
	for _, l := range s.accessLogs {
		if l.PatientID == patientID {
			out = append(out, *l)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// AppendEscalation stores an escalation record.
func (s *MemoryStore) AppendEscalation(ctx context.Context, l *audit.EscalationLog) error {
	c := *l

	s.mu.Lock()
	defer s.mu.Unlock()
	s.escalations[c.ID] = &c
	return nil
}

// ResolveEscalation marks an escalation resolved exactly once.
func (s *MemoryStore) ResolveEscalation(ctx context.Context, id, by, resolutionAction string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.escalations[id]
	if !ok {
		return &audit.EscalationNotFoundError{ID: id}
	}
	if l.Resolved {
		return audit.ErrEscalationResolved
	}
	l.Resolved = true
	l.ResolvedBy = by
	l.ResolutionAction = resolutionAction
	l.ResolvedAt = time.Now().UTC()
	return nil
}

// PendingEscalations returns all unresolved escalations, newest first.
func (s *MemoryStore) PendingEscalations(ctx context.Context) ([]audit.EscalationLog, error) {
	s.mu.RLock()
	var out []audit.EscalationLog
	for _, l := range s.escalations {
		if !l.Resolved {
			out = append(out, *l)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// Statistics derives trail-wide counts in one pass.
func (s *MemoryStore) Statistics(ctx context.Context) (*audit.Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &audit.Statistics{
		TotalEntries:     len(s.entries),
		TotalAccessLogs:  len(s.accessLogs),
		TotalEscalations: len(s.escalations),
		ByAgentType:      make(map[string]int),
		ByRiskLevel:      make(map[string]int),
		ByStatus:         make(map[string]int),
	}
	for _, e := range s.entries {
		stats.ByAgentType[string(e.AgentType)]++
		stats.ByRiskLevel[string(e.RiskLevel)]++
		stats.ByStatus[string(e.Status)]++
		stats.TotalAPICalls += len(e.APICalls)
		if e.HumanOverride {
			stats.HumanOverrides++
		}
	}
	for _, l := range s.escalations {
		if !l.Resolved {
			stats.PendingEscalations++
		}
	}
	return stats, nil
}

// PruneBefore deletes records older than the cutoff. Unresolved
// escalations are kept regardless of age.
func (s *MemoryStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, e := range s.entries {
		if e.Timestamp.Before(cutoff) {
			delete(s.entries, id)
			removed++
			if e.PatientID != "" {
				s.byPatient[e.PatientID] = removeID(s.byPatient[e.PatientID], id)
			}
			s.byAgent[e.AgentType] = removeID(s.byAgent[e.AgentType], id)
			if e.SessionID != "" {
				s.bySession[e.SessionID] = removeID(s.bySession[e.SessionID], id)
			}
		}
	}
	for id, l := range s.accessLogs {
		if l.Timestamp.Before(cutoff) {
			delete(s.accessLogs, id)
		}
	}
	for id, l := range s.escalations {
		if l.Resolved && l.Timestamp.Before(cutoff) {
			delete(s.escalations, id)
		}
	}
	return removed, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// copyEntry deep-copies an entry so callers never share mutable state
// with the store.
func copyEntry(e *audit.Entry) *audit.Entry {
	c := *e
	if e.Parameters != nil {
		c.Parameters = make(map[string]any, len(e.Parameters))
		for k, v := range e.Parameters {
			c.Parameters[k] = v
		}
	}
	c.APICalls = append([]audit.APICall(nil), e.APICalls...)
	c.Modifications = append([]audit.Modification(nil), e.Modifications...)
	return &c
}
