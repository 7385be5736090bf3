package format

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Output formats.
const (
	CSV  = "csv"
	JSON = "json"
)

// Row is an ordered field-name to value record. Field order is first-seen.
type Row struct {
	keys []string
	vals map[string]string
}

// NewRow creates an empty row.
func NewRow() *Row {
	return &Row{vals: make(map[string]string)}
}

// Set stores a field value, remembering first-seen field order.
func (r *Row) Set(key, value string) {
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = value
}

// Get returns a field value and whether the field is present.
func (r *Row) Get(key string) (string, bool) {
	value, ok := r.vals[key]
	return value, ok
}

// Keys returns the row's field names in first-seen order.
func (r *Row) Keys() []string {
	return r.keys
}

// Detect picks the output format: an explicit format wins, then a .json
// output path implies JSON, everything else is CSV.
func Detect(explicit, outputPath string) (string, error) {
	switch strings.ToLower(explicit) {
	case CSV:
		return CSV, nil
	case JSON:
		return JSON, nil
	case "":
		// Fall through to path-based detection.
	default:
		return "", fmt.Errorf("unknown output format '%s', must be csv or json", explicit)
	}
	if strings.EqualFold(filepath.Ext(outputPath), ".json") {
		return JSON, nil
	}
	return CSV, nil
}

// Columns returns the union of field names across rows in first-seen order.
func Columns(rows []*Row) []string {
	var columns []string
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, key := range row.keys {
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
	}
	return columns
}

// Write renders rows in the given format.
func Write(w io.Writer, rows []*Row, outputFormat string) error {
	switch outputFormat {
	case CSV:
		return WriteCSV(w, rows)
	case JSON:
		return WriteJSON(w, rows)
	}
	return fmt.Errorf("unknown output format '%s'", outputFormat)
}

// WriteCSV emits a header of the column union followed by one line per row.
// Fields a row lacks render empty.
func WriteCSV(w io.Writer, rows []*Row) error {
	columns := Columns(rows)
	if len(columns) == 0 {
		return nil
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, column := range columns {
			record[i], _ = row.Get(column)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON emits the rows as a JSON array of objects with camelCased keys.
// Key order within an object is not guaranteed.
func WriteJSON(w io.Writer, rows []*Row) error {
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		obj := make(map[string]string, len(row.keys))
		for _, key := range row.keys {
			obj[CamelCaseKey(key)] = row.vals[key]
		}
		out = append(out, obj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	return nil
}

// CamelCaseKey converts a human-readable field name to a camelCased JSON
// key: "Numerator description" becomes "numeratorDescription". Keys without
// spaces only get a leading capital lowered, so raw API field names like
// "displayName" survive as-is.
func CamelCaseKey(key string) string {
	words := strings.Fields(key)
	if len(words) == 0 {
		return key
	}
	if len(words) == 1 {
		return strings.ToLower(key[:1]) + key[1:]
	}
	var b strings.Builder
	for i, word := range words {
		lower := strings.ToLower(word)
		if i == 0 {
			b.WriteString(lower)
			continue
		}
		b.WriteString(strings.ToUpper(lower[:1]))
		b.WriteString(lower[1:])
	}
	return b.String()
}
