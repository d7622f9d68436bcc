package audit

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/org/vitalguard/pkg/models"
)

// ExportHeader is the first row of every CSV export.
var ExportHeader = []string{"timestamp", "trace_id", "action", "subject", "status", "scopes"}

// ExportCSV writes events as CSV, one row per event in the given order.
func ExportCSV(w io.Writer, events []models.AuditEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, e := range events {
		row := []string{
			e.Timestamp.UTC().Format(time.RFC3339),
			e.TraceID,
			e.Action,
			e.Subject,
			e.Status,
			strings.Join(e.Scopes, ","),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportBytes is ExportCSV into memory, for download responses.
func ExportBytes(events []models.AuditEvent) ([]byte, error) {
	var buf bytes.Buffer
	if err := ExportCSV(&buf, events); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
