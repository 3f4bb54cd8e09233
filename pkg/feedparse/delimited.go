package feedparse

import (
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"01-02-2006",
	"Jan 2, 2006",
}

// ParseDelimited turns delimited statement text into rows using the supplied
// mapping. The first line is always the header. Blank lines are dropped. A
// row with an unparseable date or a non-numeric amount is omitted rather than
// failing the whole file; the second return value is how many rows were
// dropped that way.
func ParseDelimited(text string, mapping ColumnMapping) ([]RawFeedRow, int) {
	lines := splitLines(text)
	if len(lines) <= 1 {
		return []RawFeedRow{}, 0
	}

	rows := make([]RawFeedRow, 0, len(lines)-1)
	dropped := 0

	for _, line := range lines[1:] {
		fields := splitFields(line, ',')

		maxColumn := mapping.DateColumn
		if mapping.DescriptionColumn > maxColumn {
			maxColumn = mapping.DescriptionColumn
		}
		if mapping.AmountColumn > maxColumn {
			maxColumn = mapping.AmountColumn
		}
		if len(fields) <= maxColumn {
			dropped++
			continue
		}

		date, err := ParseDate(fields[mapping.DateColumn])
		if err != nil {
			dropped++
			continue
		}

		amount, err := ParseAmount(fields[mapping.AmountColumn])
		if err != nil {
			dropped++
			continue
		}

		rows = append(rows, RawFeedRow{
			Date:        date,
			Description: strings.TrimSpace(fields[mapping.DescriptionColumn]),
			Amount:      amount,
		})
	}

	return rows, dropped
}

// Headers returns the header fields of delimited statement text, or nil for
// an empty file.
func Headers(text string) []string {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil
	}

	return splitFields(lines[0], ',')
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	return lines
}

// splitFields splits a single line on the delimiter, honoring quoted fields
// that contain the delimiter and doubled-quote escaping.
func splitFields(line string, delimiter rune) []string {
	fields := []string{}
	var field strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]

		switch {
		case c == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				// doubled quote inside a quoted field is a literal quote
				field.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == delimiter && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteRune(c)
		}
	}

	fields = append(fields, field.String())

	return fields
}

// ParseDate tries the known statement date layouts in order.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	var err error
	var t time.Time
	for _, layout := range dateLayouts {
		t, err = time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
	}

	return time.Time{}, err
}

// ParseAmount parses a currency string, tolerating dollar signs, thousands
// separators, surrounding whitespace, and a leading + sign.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "+")
	s = strings.TrimSpace(s)

	// accounting style (12.34) for negative amounts
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}

	// "- 12.34" shows up in some vendor exports
	if strings.HasPrefix(s, "- ") {
		s = "-" + strings.TrimSpace(strings.TrimPrefix(s, "- "))
	}

	return strconv.ParseFloat(s, 64)
}
