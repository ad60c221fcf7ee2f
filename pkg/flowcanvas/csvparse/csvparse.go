// Package csvparse turns uploaded CSV text into header-keyed records.
//
// The dialect is deliberately small: one record per line, comma separators,
// double quotes group fields that contain commas, and a backslash before a
// quote makes that quote literal. It is not RFC 4180; quoted newlines and
// doubled quotes ("") are not recognized.
package csvparse

import "strings"

// Record maps a header name to the field value in one row.
type Record map[string]string

// Table is the result of parsing CSV text with its header order retained.
type Table struct {
	// Header holds the distinct header names in first-seen order.
	Header []string
	// Records holds one entry per non-blank data line.
	Records []Record
}

// Len returns the number of records.
func (t Table) Len() int {
	return len(t.Records)
}

// Parse splits text into records keyed by the first non-blank line.
//
// Blank lines are skipped. Rows shorter than the header are padded with
// empty strings; extra trailing fields are ignored. Empty input returns an
// empty, non-nil slice.
func Parse(text string) []Record {
	return ParseTable(text).Records
}

// ParseTable is Parse but also reports the header order.
func ParseTable(text string) Table {
	lines := nonBlankLines(text)
	if len(lines) == 0 {
		return Table{Header: []string{}, Records: []Record{}}
	}

	headers := SplitLine(lines[0])
	records := make([]Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		cols := SplitLine(line)
		rec := make(Record, len(headers))
		for i, h := range headers {
			if i < len(cols) {
				rec[h] = cols[i]
			} else {
				rec[h] = ""
			}
		}
		records = append(records, rec)
	}

	return Table{Header: uniqueHeaders(headers), Records: records}
}

// SplitLine splits one CSV line into cleaned fields.
//
// A double quote toggles quoted mode unless the preceding byte is a
// backslash. Each field is then trimmed, has \" replaced with ", and is
// unwrapped if it is still enclosed in a pair of double quotes.
func SplitLine(line string) []string {
	var out []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		if ch == '"' && (i == 0 || line[i-1] != '\\') {
			inQuotes = !inQuotes
			continue
		}
		if ch == ',' && !inQuotes {
			out = append(out, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(ch)
	}
	out = append(out, cur.String())

	for i, field := range out {
		out[i] = cleanField(field)
	}
	return out
}

func cleanField(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, `\"`, `"`)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return s
}

func nonBlankLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r", ""), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// uniqueHeaders drops repeated names; a repeated column overwrites the
// earlier one in each record, so only its first position is reported.
func uniqueHeaders(headers []string) []string {
	seen := make(map[string]struct{}, len(headers))
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}
