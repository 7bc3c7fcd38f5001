// Package report serialises validation results.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aasthagit2025/checkdv/internal/core"
)

// Formats accepted by Write.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Header is the column layout of the CSV report.
var Header = []string{"RespondentID", "Question", "Check_Type", "Issue"}

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	if format == FormatJSON {
		return "application/json"
	}
	return "text/csv; charset=utf-8"
}

// ParseFormat normalises a user-supplied format name. Empty means CSV.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported report format %q (want csv or json)", s)
	}
}

// Write renders res in format.
func Write(w io.Writer, format string, res *core.RunResult) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, res)
	case FormatCSV, "":
		return WriteCSV(w, res.Violations)
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

// WriteCSV writes one row per violation. Rule-level diagnostics have a blank
// RespondentID.
func WriteCSV(w io.Writer, vs []core.Violation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, v := range vs {
		var id string
		if v.RespondentID != nil {
			id = *v.RespondentID
		}
		if err := cw.Write([]string{id, v.Question, v.CheckType, v.Issue}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the full run result, violations included.
func WriteJSON(w io.Writer, res *core.RunResult) error {
	out := *res
	if out.Violations == nil {
		out.Violations = []core.Violation{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
