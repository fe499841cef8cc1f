package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"caretrust-hq/minerva/pkg/audit"
)

// CSVExporter writes audit reports as CSV, one row per entry.
type CSVExporter struct {
	// IncludeHeader emits a header row first.
	IncludeHeader bool
}

var csvHeader = []string{
	"log_id", "timestamp", "agent_type", "action_type", "action_id",
	"patient_id", "risk_level", "confidence_score", "status",
	"human_override", "api_calls_count", "outcome",
}

// Export writes the report to w.
func (e *CSVExporter) Export(w io.Writer, report *audit.Report) error {
	cw := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := cw.Write(csvHeader); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for i := range report.Entries {
		entry := &report.Entries[i]
		record := []string{
			entry.ID,
			entry.Timestamp.Format(time.RFC3339Nano),
			string(entry.AgentType),
			entry.ActionType,
			entry.ActionID,
			entry.PatientID,
			string(entry.RiskLevel),
			strconv.FormatFloat(entry.Confidence, 'f', -1, 64),
			string(entry.Status),
			strconv.FormatBool(entry.HumanOverride),
			strconv.Itoa(len(entry.APICalls)),
			entry.Outcome,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}
	return nil
}
