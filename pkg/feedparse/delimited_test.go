package feedparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var basicMapping = ColumnMapping{DateColumn: 0, DescriptionColumn: 1, AmountColumn: 2}

func TestParseDelimited(t *testing.T) {
	text := "Date,Description,Amount\n" +
		"2026-02-20,COSTCO WHOLESALE,-142.87\n" +
		"2026-02-21,SHELL OIL,-45.00\n"

	rows, dropped := ParseDelimited(text, basicMapping)

	require.Len(t, rows, 2)
	assert.Equal(t, 0, dropped)
	assert.Equal(t, time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, "COSTCO WHOLESALE", rows[0].Description)
	assert.Equal(t, -142.87, rows[0].Amount)
}

func TestParseDelimitedQuotedFields(t *testing.T) {
	text := "Date,Description,Amount\n" +
		`2026-01-05,"ACME, INC","1,200.50"` + "\n" +
		`2026-01-06,"HE SAID ""HI""",-3.00` + "\n"

	rows, dropped := ParseDelimited(text, basicMapping)

	require.Len(t, rows, 2)
	assert.Equal(t, 0, dropped)
	assert.Equal(t, "ACME, INC", rows[0].Description)
	assert.Equal(t, 1200.50, rows[0].Amount)
	assert.Equal(t, `HE SAID "HI"`, rows[1].Description)
}

func TestParseDelimitedDropsBadRows(t *testing.T) {
	text := "Date,Description,Amount\n" +
		"not-a-date,SOMETHING,-1.00\n" +
		"2026-01-05,FINE ROW,-2.00\n" +
		"2026-01-06,BAD AMOUNT,abc\n" +
		"short\n"

	rows, dropped := ParseDelimited(text, basicMapping)

	require.Len(t, rows, 1)
	assert.Equal(t, "FINE ROW", rows[0].Description)
	assert.Equal(t, 3, dropped)
}

func TestParseDelimitedSkipsBlankLines(t *testing.T) {
	text := "Date,Description,Amount\n\n2026-01-05,ROW,-2.00\n\n\n"

	rows, dropped := ParseDelimited(text, basicMapping)

	assert.Len(t, rows, 1)
	assert.Equal(t, 0, dropped)
}

func TestParseDelimitedEmptyFile(t *testing.T) {
	rows, dropped := ParseDelimited("", basicMapping)

	assert.Empty(t, rows)
	assert.Equal(t, 0, dropped)
}

func TestParseAmountFormats(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"-142.87", -142.87},
		{"$85.00", 85},
		{"+ $85.00", 85},
		{"(12.34)", -12.34},
		{"- $1,234.56", -1234.56},
		{"1,000", 1000},
	}

	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestHeaders(t *testing.T) {
	headers := Headers("Date,Description,Amount\n2026-01-01,X,1\n")
	assert.Equal(t, []string{"Date", "Description", "Amount"}, headers)

	assert.Nil(t, Headers(""))
}
