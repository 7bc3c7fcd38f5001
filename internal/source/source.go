// Package source materialises datasets and rule tables for the validator.
//
// Data comes from CSV exports, PostgreSQL tables, or SQLite files. Rule
// tables come from CSV or YAML. Every loader produces the same core types so
// callers never care where a survey came from.
package source

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/aasthagit2025/checkdv/internal/core"
)

var (
	// ErrUnsupportedFormat is returned for file extensions no loader handles.
	ErrUnsupportedFormat = errors.New("unsupported file type")

	// ErrEmptyFile is returned when an input has no header row.
	ErrEmptyFile = errors.New("empty file")
)

// Encoding names accepted by DataOptions.Encoding.
const (
	EncodingUTF8    = "utf-8"
	EncodingLatin1  = "latin1"
	EncodingWin1252 = "windows-1252"
)

// DataOptions controls how a dataset is read.
type DataOptions struct {
	// IDColumn names the respondent id column. Defaults to core.DefaultIDColumn.
	IDColumn string
	// Encoding of CSV input. Defaults to UTF-8.
	Encoding string
}

func (o DataOptions) idColumn() string {
	if o.IDColumn == "" {
		return core.DefaultIDColumn
	}
	return o.IDColumn
}

// decodingReader strips a UTF-8 byte order mark and converts input to valid
// UTF-8. Invalid UTF-8 bytes become U+FFFD; legacy code pages are decoded.
func decodingReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf8", EncodingUTF8:
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	case EncodingLatin1, "iso-8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case EncodingWin1252, "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

// CleanCell removes spreadsheet artifacts from a cell: surrounding
// whitespace and Excel's ="..." text-forcing wrapper.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return s
}

// headerKey normalises a rule-table header for case-insensitive matching.
// "Check Type", "check-type" and "CHECK_TYPE" share one key.
func headerKey(s string) string {
	s = strings.ToLower(CleanCell(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// RuleFormat reports which rule loader handles name, by extension.
func RuleFormat(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return "csv", nil
	case ".yaml", ".yml":
		return "yaml", nil
	default:
		return "", fmt.Errorf("%w: %q (rules must be .csv, .yaml or .yml)", ErrUnsupportedFormat, name)
	}
}

// ReadRules parses a rule file whose format is inferred from name.
func ReadRules(name string, r io.Reader) ([]core.Rule, error) {
	format, err := RuleFormat(name)
	if err != nil {
		return nil, err
	}
	var rows []core.RuleRow
	switch format {
	case "yaml":
		rows, err = ReadRuleYAML(r)
	default:
		rows, err = ReadRuleTable(r)
	}
	if err != nil {
		return nil, err
	}
	return core.ParseRules(rows), nil
}
