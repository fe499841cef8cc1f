package bias

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"caretrust-hq/minerva/pkg/action"
)

// MonitorConfig tunes the bias monitor.
type MonitorConfig struct {
	// DisparateImpactThreshold is the ratio below which a comparison is
	// flagged, per the four-fifths rule.
	// Default: 0.8
	DisparateImpactThreshold float64

	// MinSamples is the minimum total records per (agent, action) key
	// before any comparison runs.
	// Default: 10
	MinSamples int

	// MinGroupSamples is the minimum records per compared group.
	// Default: 5
	MinGroupSamples int

	// Dimensions are the demographic attributes a full analysis sweeps.
	// Default: age, gender, race, ethnicity, language
	Dimensions []string
}

func (c *MonitorConfig) applyDefaults() {
	if c.DisparateImpactThreshold <= 0 || c.DisparateImpactThreshold > 1 {
		c.DisparateImpactThreshold = 0.8
	}
	if c.MinSamples <= 0 {
		c.MinSamples = 10
	}
	if c.MinGroupSamples <= 0 {
		c.MinGroupSamples = 5
	}
	if len(c.Dimensions) == 0 {
		c.Dimensions = []string{"age", "gender", "race", "ethnicity", "language"}
	}
}

// sampleKey identifies one monitored (agent, action) stream.
type sampleKey struct {
	agent      action.AgentType
	actionType string
}

// sampleSet accumulates outcomes for one key behind its own lock, so
// parallel handlers recording outcomes for different keys never contend.
type sampleSet struct {
	mu      sync.Mutex
	records []OutcomeRecord
}

// Monitor accumulates action outcomes and detects demographic bias
// through disparate impact analysis.
type Monitor struct {
	logger *slog.Logger
	config MonitorConfig
	store  Store

	thresholdMu sync.RWMutex
	threshold   float64

	samplesMu sync.RWMutex
	samples   map[sampleKey]*sampleSet

	resultsMu sync.RWMutex
	metrics   map[string]*Metric
	events    map[string]*ComplianceEvent
}

// NewMonitor creates a bias monitor. A nil store keeps records in memory
// only.
func NewMonitor(config MonitorConfig, store Store, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	config.applyDefaults()
	return &Monitor{
		logger:    logger.With("component", "bias"),
		config:    config,
		store:     store,
		threshold: config.DisparateImpactThreshold,
		samples:   make(map[sampleKey]*sampleSet),
		metrics:   make(map[string]*Metric),
		events:    make(map[string]*ComplianceEvent),
	}
}

// Threshold returns the active disparate impact threshold.
func (m *Monitor) Threshold() float64 {
	m.thresholdMu.RLock()
	defer m.thresholdMu.RUnlock()
	return m.threshold
}

// UpdateThreshold replaces the disparate impact threshold at runtime.
// Values outside (0, 1] are rejected.
func (m *Monitor) UpdateThreshold(v float64) error {
	if v <= 0 || v > 1 {
		return fmt.Errorf("disparate impact threshold %v out of range (0, 1]", v)
	}
	m.thresholdMu.Lock()
	m.threshold = v
	m.thresholdMu.Unlock()
	m.logger.Info("Disparate impact threshold updated", "threshold", v)
	return nil
}

// WarmStart loads persisted outcomes from the store into memory. Call
// once before serving.
func (m *Monitor) WarmStart(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	records, err := m.store.LoadOutcomes(ctx)
	if err != nil {
		return err
	}
	for i := range records {
		rec := records[i]
		set := m.sampleSet(sampleKey{rec.AgentType, rec.ActionType})
		set.mu.Lock()
		set.records = append(set.records, rec)
		set.mu.Unlock()
	}
	m.logger.Info("Bias records loaded", "count", len(records))
	return nil
}

// RecordOutcome accumulates one action outcome for later analysis.
// A nil outcomeValue derives the numeric value from the outcome label
// at analysis time.
func (m *Monitor) RecordOutcome(ctx context.Context, agentType action.AgentType, actionType string, demographics map[string]string, outcome string, outcomeValue *float64, metadata map[string]any) {
	rec := OutcomeRecord{
		AgentType:    agentType,
		ActionType:   actionType,
		Demographics: copyStringMap(demographics),
		Outcome:      outcome,
		OutcomeValue: outcomeValue,
		Metadata:     metadata,
		Timestamp:    time.Now().UTC(),
	}

	set := m.sampleSet(sampleKey{agentType, actionType})
	set.mu.Lock()
	set.records = append(set.records, rec)
	set.mu.Unlock()

	if m.store != nil {
		if err := m.store.AppendOutcome(ctx, &rec); err != nil {
			m.logger.Error("Bias outcome persistence failed",
				"agent_type", string(agentType),
				"action_type", actionType,
				"error", err,
			)
		}
	}
}

// sampleSet returns the accumulator for a key, creating it on first use.
func (m *Monitor) sampleSet(k sampleKey) *sampleSet {
	m.samplesMu.RLock()
	set, ok := m.samples[k]
	m.samplesMu.RUnlock()
	if ok {
		return set
	}

	m.samplesMu.Lock()
	defer m.samplesMu.Unlock()
	if set, ok = m.samples[k]; ok {
		return set
	}
	set = &sampleSet{}
	m.samples[k] = set
	return set
}

// snapshot copies a key's records without blocking concurrent appends
// for longer than the copy.
func (m *Monitor) snapshot(k sampleKey) []OutcomeRecord {
	m.samplesMu.RLock()
	set, ok := m.samples[k]
	m.samplesMu.RUnlock()
	if !ok {
		return nil
	}
	set.mu.Lock()
	defer set.mu.Unlock()
	return append([]OutcomeRecord(nil), set.records...)
}

// DisparateImpact computes the disparate impact ratio between a
// protected and a reference group on one demographic dimension.
// ErrInsufficientData is returned when fewer than the configured
// minimums are available; it means "no finding", not a fault.
func (m *Monitor) DisparateImpact(ctx context.Context, agentType action.AgentType, actionType, dimension, protectedGroup, referenceGroup string) (*Metric, error) {
	records := m.snapshot(sampleKey{agentType, actionType})
	if len(records) < m.config.MinSamples {
		return nil, &InsufficientDataError{Total: len(records)}
	}

	var protected, reference []float64
	for i := range records {
		rec := &records[i]
		switch rec.Demographics[dimension] {
		case protectedGroup:
			protected = append(protected, rec.value())
		case referenceGroup:
			reference = append(reference, rec.value())
		}
	}

	if len(protected) < m.config.MinGroupSamples || len(reference) < m.config.MinGroupSamples {
		return nil, &InsufficientDataError{
			Total:     len(records),
			Protected: len(protected),
			Reference: len(reference),
		}
	}

	protectedRate := mean(protected)
	referenceRate := mean(reference)

	var ratio float64
	switch {
	case referenceRate != 0:
		ratio = protectedRate / referenceRate
	case protectedRate == 0:
		ratio = 1.0
	default:
		ratio = math.Inf(1)
	}

	exceeded := ratio < m.Threshold()

	// Normal approximation on the wider of the two spreads. Coarse,
	// matching the reported metric shape rather than a proper ratio CI.
	spread := 1.96 * math.Max(stdev(protected), stdev(reference))

	metric := &Metric{
		ID:                uuid.NewString(),
		MetricType:        MetricDisparateImpact,
		Dimension:         dimension,
		AgentType:         agentType,
		ActionType:        actionType,
		ProtectedGroup:    protectedGroup,
		ReferenceGroup:    referenceGroup,
		ProtectedCount:    len(protected),
		ReferenceCount:    len(reference),
		BaselineRate:      referenceRate,
		ObservedRate:      protectedRate,
		DisparityRatio:    ratio,
		ThresholdExceeded: exceeded,
		SampleSize:        len(protected) + len(reference),
		CILower:           ratio - spread,
		CIUpper:           ratio + spread,
		Timestamp:         time.Now().UTC(),
	}

	m.resultsMu.Lock()
	m.metrics[metric.ID] = metric
	m.resultsMu.Unlock()

	if m.store != nil {
		if err := m.store.SaveMetric(ctx, metric); err != nil {
			m.logger.Error("Bias metric persistence failed", "metric_id", metric.ID, "error", err)
		}
	}

	if exceeded {
		m.createComplianceEvent(ctx, metric)
	}

	m.logger.Info("Disparate impact calculated",
		"agent_type", string(agentType),
		"action_type", actionType,
		"dimension", dimension,
		"protected_group", protectedGroup,
		"reference_group", referenceGroup,
		"ratio", ratio,
		"threshold_exceeded", exceeded,
	)

	c := *metric
	return &c, nil
}

// DemographicParity returns the mean outcome per group across one
// dimension for a monitored key.
func (m *Monitor) DemographicParity(agentType action.AgentType, actionType, dimension string) map[string]float64 {
	records := m.snapshot(sampleKey{agentType, actionType})

	groupOutcomes := make(map[string][]float64)
	for i := range records {
		rec := &records[i]
		if group := rec.Demographics[dimension]; group != "" {
			groupOutcomes[group] = append(groupOutcomes[group], rec.value())
		}
	}

	rates := make(map[string]float64, len(groupOutcomes))
	for group, outcomes := range groupOutcomes {
		rates[group] = mean(outcomes)
	}
	return rates
}

// WaitTimes analyzes wait time equity across demographic groups for an
// agent's scheduling actions. Wait minutes come from the record metadata
// under "wait_time_minutes".
func (m *Monitor) WaitTimes(agentType action.AgentType, dimension string) WaitTimeEquity {
	records := m.snapshot(sampleKey{agentType, "scheduling"})

	waits := make(map[string][]float64)
	for i := range records {
		rec := &records[i]
		group := rec.Demographics[dimension]
		if group == "" {
			continue
		}
		if minutes, ok := numericMetadata(rec.Metadata, "wait_time_minutes"); ok {
			waits[group] = append(waits[group], minutes)
		}
	}

	out := WaitTimeEquity{Groups: make(map[string]GroupStats, len(waits))}
	for group, times := range waits {
		out.Groups[group] = GroupStats{
			Mean:   mean(times),
			Median: median(times),
			Stdev:  stdev(times),
			Count:  len(times),
		}
	}

	if len(out.Groups) >= 2 {
		minMean, maxMean := math.Inf(1), math.Inf(-1)
		for _, g := range out.Groups {
			minMean = math.Min(minMean, g.Mean)
			maxMean = math.Max(maxMean, g.Mean)
		}
		if minMean > 0 {
			out.DisparityRatio = maxMean / minMean
		} else {
			out.DisparityRatio = math.Inf(1)
		}
		out.ThresholdExceeded = out.DisparityRatio > 1/m.Threshold()
	}
	return out
}

// CommunicationFrequency analyzes family communication volume per group
// of one dimension. Patient attribution comes from the record metadata
// under "patient_id".
func (m *Monitor) CommunicationFrequency(dimension string) map[string]CommunicationStats {
	records := m.snapshot(sampleKey{action.AgentFamilyCommunication, "send_communication"})

	counts := make(map[string]int)
	patients := make(map[string]map[string]struct{})
	for i := range records {
		rec := &records[i]
		group := rec.Demographics[dimension]
		if group == "" {
			continue
		}
		counts[group]++
		if pid, ok := rec.Metadata["patient_id"].(string); ok && pid != "" {
			if patients[group] == nil {
				patients[group] = make(map[string]struct{})
			}
			patients[group][pid] = struct{}{}
		}
	}

	out := make(map[string]CommunicationStats, len(counts))
	for group, count := range counts {
		stats := CommunicationStats{
			TotalCommunications: count,
			UniquePatients:      len(patients[group]),
		}
		if stats.UniquePatients > 0 {
			stats.AvgPerPatient = float64(count) / float64(stats.UniquePatients)
		}
		out[group] = stats
	}
	return out
}

// RunFullAnalysis sweeps every monitored key across the configured
// dimensions, comparing each pair of observed groups. An empty agentType
// covers all agents.
func (m *Monitor) RunFullAnalysis(ctx context.Context, agentType action.AgentType) *AnalysisResult {
	result := &AnalysisResult{
		Timestamp: time.Now().UTC(),
		Threshold: m.Threshold(),
	}

	m.samplesMu.RLock()
	keys := make([]sampleKey, 0, len(m.samples))
	for k := range m.samples {
		if agentType == "" || k.agent == agentType {
			keys = append(keys, k)
		}
	}
	m.samplesMu.RUnlock()
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].agent != keys[j].agent {
			return keys[i].agent < keys[j].agent
		}
		return keys[i].actionType < keys[j].actionType
	})

	for _, k := range keys {
		for _, dimension := range m.config.Dimensions {
			parity := m.DemographicParity(k.agent, k.actionType, dimension)
			if len(parity) < 2 {
				continue
			}

			groups := make([]string, 0, len(parity))
			for g := range parity {
				groups = append(groups, g)
			}
			sort.Strings(groups)

			for i := range groups {
				for j := i + 1; j < len(groups); j++ {
					// Orient each pair so the lower-rate group is the
					// protected one; the ratio is asymmetric and only a
					// sub-threshold ratio flags.
					protected, reference := groups[i], groups[j]
					if parity[protected] > parity[reference] {
						protected, reference = reference, protected
					}
					metric, err := m.DisparateImpact(ctx, k.agent, k.actionType, dimension, protected, reference)
					if err != nil {
						continue
					}
					result.Analyses = append(result.Analyses, Analysis{
						Agent:             k.agent,
						Action:            k.actionType,
						Dimension:         dimension,
						ProtectedGroup:    protected,
						ReferenceGroup:    reference,
						DisparityRatio:    metric.DisparityRatio,
						ThresholdExceeded: metric.ThresholdExceeded,
					})
					if metric.ThresholdExceeded {
						result.Violations = append(result.Violations, Violation{
							MetricID:  metric.ID,
							Agent:     k.agent,
							Action:    k.actionType,
							Dimension: dimension,
							Ratio:     metric.DisparityRatio,
						})
					}
				}
			}
		}
	}

	result.TotalAnalyses = len(result.Analyses)
	result.TotalViolations = len(result.Violations)

	m.logger.Info("Full bias analysis completed",
		"analyses", result.TotalAnalyses,
		"violations", result.TotalViolations,
	)
	return result
}

// createComplianceEvent records a remediation-required event for a
// threshold violation.
func (m *Monitor) createComplianceEvent(ctx context.Context, metric *Metric) {
	event := &ComplianceEvent{
		ID:        uuid.NewString(),
		EventType: EventBiasDetected,
		Severity:  SeverityWarning,
		Description: fmt.Sprintf(
			"Disparate impact detected in %s %s for %s. Ratio: %.3f (threshold: %g)",
			metric.AgentType, metric.ActionType, metric.Dimension,
			metric.DisparityRatio, m.Threshold(),
		),
		AffectedAgents:      []action.AgentType{metric.AgentType},
		RemediationRequired: true,
		RemediationStatus:   RemediationPending,
		Timestamp:           time.Now().UTC(),
	}

	m.resultsMu.Lock()
	m.events[event.ID] = event
	m.resultsMu.Unlock()

	if m.store != nil {
		if err := m.store.SaveComplianceEvent(ctx, event); err != nil {
			m.logger.Error("Compliance event persistence failed", "event_id", event.ID, "error", err)
		}
	}

	m.logger.Warn("Compliance event created",
		"event_id", event.ID,
		"agent_type", string(metric.AgentType),
		"dimension", metric.Dimension,
		"ratio", metric.DisparityRatio,
	)
}

// ComplianceEvents returns events matching the filter, newest first.
func (m *Monitor) ComplianceEvents(f EventFilter) []ComplianceEvent {
	m.resultsMu.RLock()
	var out []ComplianceEvent
	for _, e := range m.events {
		if f.Severity != "" && e.Severity != f.Severity {
			continue
		}
		if f.Status != "" && e.RemediationStatus != f.Status {
			continue
		}
		out = append(out, *e)
	}
	m.resultsMu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

// UpdateComplianceEvent advances an event's remediation status,
// optionally assigning an owner.
func (m *Monitor) UpdateComplianceEvent(ctx context.Context, eventID, status, assignedTo string) error {
	switch status {
	case RemediationPending, RemediationInProgress, RemediationResolved:
	default:
		return &InvalidRemediationStatusError{Status: status}
	}

	m.resultsMu.Lock()
	event, ok := m.events[eventID]
	if !ok {
		m.resultsMu.Unlock()
		return &EventNotFoundError{ID: eventID}
	}
	event.RemediationStatus = status
	if assignedTo != "" {
		event.AssignedTo = assignedTo
	}
	m.resultsMu.Unlock()

	if m.store != nil {
		if err := m.store.UpdateComplianceEvent(ctx, eventID, status, assignedTo); err != nil {
			m.logger.Error("Compliance event update persistence failed", "event_id", eventID, "error", err)
		}
	}

	m.logger.Info("Compliance event updated", "event_id", eventID, "status", status)
	return nil
}

// Summary returns the dashboard snapshot of monitoring state.
func (m *Monitor) Summary() Summary {
	s := Summary{Threshold: m.Threshold()}

	m.resultsMu.RLock()
	s.TotalMetrics = len(m.metrics)
	s.TotalComplianceEvents = len(m.events)
	for _, e := range m.events {
		if e.RemediationStatus == RemediationPending {
			s.PendingRemediations++
		}
	}
	m.resultsMu.RUnlock()

	agents := make(map[string]struct{})
	m.samplesMu.RLock()
	for k, set := range m.samples {
		set.mu.Lock()
		s.ActionRecordsCount += len(set.records)
		set.mu.Unlock()
		agents[string(k.agent)] = struct{}{}
	}
	m.samplesMu.RUnlock()

	for a := range agents {
		s.MonitoredAgents = append(s.MonitoredAgents, a)
	}
	sort.Strings(s.MonitoredAgents)
	return s
}

// Close releases the backing store, if any.
func (m *Monitor) Close() error {
	if m.store == nil {
		return nil
	}
	return m.store.Close()
}

func copyStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// numericMetadata reads a metadata value as float64, tolerating the int
// and json-decoded float forms.
func numericMetadata(meta map[string]any, key string) (float64, bool) {
	switch v := meta[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
