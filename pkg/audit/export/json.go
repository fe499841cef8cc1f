// Package export encodes audit reports for compliance delivery.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"caretrust-hq/minerva/pkg/audit"
)

// JSONExporter writes audit reports as JSON.
type JSONExporter struct {
	// Pretty enables indented output.
	Pretty bool
}

// Export writes the report to w.
func (e *JSONExporter) Export(w io.Writer, report *audit.Report) error {
	enc := json.NewEncoder(w)
	if e.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode audit report: %w", err)
	}
	return nil
}
