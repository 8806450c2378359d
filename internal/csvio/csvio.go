// Package csvio parses and encodes the comma-separated tables the site is
// built from. The parser is deliberately tolerant: the data files are hand
// edited and appended to by the admin flow, so malformed quoting must never
// abort a page load. encoding/csv rejects bare quotes and unterminated
// fields outright, which is why this is hand-rolled.
package csvio

import "strings"

// Record is one data row: the header's column names in order, plus
// name-addressed access to this row's values. Missing cells read as "".
type Record struct {
	columns []string
	values  map[string]string
}

// Get returns the value for a column name, or "" when the column is unknown
// or the cell was blank.
func (r Record) Get(name string) string {
	return r.values[name]
}

// Columns returns the header's column names in original order.
func (r Record) Columns() []string {
	return r.columns
}

// Fields returns the row's values in column order.
func (r Record) Fields() []string {
	out := make([]string, len(r.columns))
	for i, c := range r.columns {
		out[i] = r.values[c]
	}
	return out
}

// Parse decodes raw CSV text into records. The first row is the header; its
// cells are trimmed and become the column names for every following row.
// Accepted syntax: comma-separated fields, optional double-quote wrapping
// (embedded quotes doubled), "\n" or "\r\n" line ends. An unterminated quote
// is closed implicitly at end of input. Blank lines produce no record.
// Parse never fails; the worst malformed input yields fewer or odd rows.
func Parse(text string) []Record {
	rows := splitRows(text)
	if len(rows) == 0 {
		return nil
	}

	columns := make([]string, len(rows[0]))
	for i, c := range rows[0] {
		columns[i] = strings.TrimSpace(c)
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		values := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(row) {
				values[col] = row[i]
			} else {
				values[col] = ""
			}
		}
		records = append(records, Record{columns: columns, values: values})
	}
	return records
}

// splitRows tokenizes raw text into rows of fields.
func splitRows(text string) [][]string {
	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
	)

	endField := func() {
		row = append(row, field.String())
		field.Reset()
	}
	endRow := func() {
		endField()
		if len(row) == 1 && row[0] == "" {
			// blank line
			row = nil
			return
		}
		rows = append(rows, row)
		row = nil
	}

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inQuotes {
			if c == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					field.WriteByte('"')
					i++
					continue
				}
				inQuotes = false
				continue
			}
			field.WriteByte(c)
			continue
		}

		switch c {
		case '"':
			inQuotes = true
		case ',':
			endField()
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			endRow()
		case '\n':
			endRow()
		default:
			field.WriteByte(c)
		}
	}

	// Implicit close for an unterminated quote; flush any trailing row.
	if field.Len() > 0 || len(row) > 0 {
		endRow()
	}
	return rows
}

// EncodeRow encodes fields as one CSV line (no trailing newline), the exact
// inverse of Parse: fields containing a comma, quote, or newline are wrapped
// in quotes with internal quotes doubled.
func EncodeRow(fields []string) string {
	encoded := make([]string, len(fields))
	for i, f := range fields {
		if strings.ContainsAny(f, ",\"\n\r") {
			encoded[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
		} else {
			encoded[i] = f
		}
	}
	return strings.Join(encoded, ",")
}
