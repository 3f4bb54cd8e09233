package feedparse

import (
	"fmt"
	"math"
	"strings"
)

// statuses that never settle and so never hit the ledger
var nonTerminalStatuses = map[string]bool{
	"declined":  true,
	"cancelled": true,
	"canceled":  true,
	"expired":   true,
	"failed":    true,
	"pending":   true,
}

type peerPaymentColumns struct {
	date   int
	kind   int
	status int
	note   int
	from   int
	to     int
	amount int
}

// ParsePeerPayments parses a peer-payment vendor export. Column positions are
// located by fuzzy header name because the vendor reshuffles its export
// format over time. owner is the name the vendor uses for the ledger owner;
// sign and description are derived from the (type, from, to) triple relative
// to it. Rows with a non-terminal status, an unparseable date, or a
// non-numeric amount are omitted; the second return value counts omissions.
func ParsePeerPayments(text, owner string) ([]RawFeedRow, int) {
	lines := splitLines(text)
	if len(lines) <= 1 {
		return []RawFeedRow{}, 0
	}

	columns, err := locatePeerPaymentColumns(splitFields(lines[0], ','))
	if err != nil {
		return []RawFeedRow{}, len(lines) - 1
	}

	rows := make([]RawFeedRow, 0, len(lines)-1)
	dropped := 0

	for _, line := range lines[1:] {
		fields := splitFields(line, ',')

		row, ok := parsePeerPaymentRow(fields, columns, owner)
		if !ok {
			dropped++
			continue
		}

		rows = append(rows, row)
	}

	return rows, dropped
}

func parsePeerPaymentRow(fields []string, columns peerPaymentColumns, owner string) (RawFeedRow, bool) {
	get := func(i int) string {
		if i < 0 || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	if nonTerminalStatuses[strings.ToLower(get(columns.status))] {
		return RawFeedRow{}, false
	}

	date, err := ParseDate(get(columns.date))
	if err != nil {
		return RawFeedRow{}, false
	}

	amount, err := ParseAmount(get(columns.amount))
	if err != nil {
		return RawFeedRow{}, false
	}
	amount = math.Abs(amount)

	kind := strings.ToLower(get(columns.kind))
	from := get(columns.from)
	to := get(columns.to)
	note := get(columns.note)

	var description string
	var payee string

	switch {
	case strings.Contains(kind, "charge") && sameName(from, owner):
		// owner requested money and got it
		description = "Charge to " + to
		payee = to
		amount = -amount
	case strings.Contains(kind, "charge") && sameName(to, owner):
		// owner was charged and paid
		description = "Charge from " + from
		payee = from
	case sameName(from, owner):
		description = "To " + to
		payee = to
	case sameName(to, owner):
		description = from
		payee = from
		amount = -amount
	default:
		// row doesn't involve the owner at all
		return RawFeedRow{}, false
	}

	if note != "" {
		description = fmt.Sprintf("%s: %q", description, note)
	}

	return RawFeedRow{
		Date:        date,
		Description: description,
		Payee:       payee,
		Amount:      amount,
		Note:        note,
	}, true
}

// locatePeerPaymentColumns finds columns by fuzzy header name rather than
// fixed index, tolerant of export-format drift.
func locatePeerPaymentColumns(headers []string) (peerPaymentColumns, error) {
	find := func(candidates ...string) int {
		// exact names win over substring hits so "to" never lands on
		// "amount (total)"
		for _, candidate := range candidates {
			for i, header := range headers {
				if strings.ToLower(strings.TrimSpace(header)) == candidate {
					return i
				}
			}
		}
		for _, candidate := range candidates {
			for i, header := range headers {
				if strings.Contains(strings.ToLower(strings.TrimSpace(header)), candidate) {
					return i
				}
			}
		}
		return -1
	}

	columns := peerPaymentColumns{
		date:   find("datetime", "date"),
		kind:   find("type"),
		status: find("status"),
		note:   find("note", "memo"),
		from:   find("from"),
		to:     find("to"),
		amount: find("amount (total)", "amount"),
	}

	if columns.date < 0 || columns.from < 0 || columns.to < 0 || columns.amount < 0 {
		return columns, fmt.Errorf("missing required peer-payment columns in header %v", headers)
	}

	return columns, nil
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
