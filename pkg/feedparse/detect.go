package feedparse

import "strings"

type Format string

const (
	FormatGeneric     Format = "generic"
	FormatPeerPayment Format = "peer_payment"
)

// peer-payment exports carry a status column and a from/to pair, which no
// bank statement does
var peerPaymentMarkers = []string{"status", "from", "to"}

var dateHeaders = []string{"date", "posted", "datetime"}
var descriptionHeaders = []string{"description", "memo", "payee", "note", "details"}
var amountHeaders = []string{"amount", "total", "value"}

// DetectFormat inspects header text and guesses the vendor format plus the
// most likely column to field mapping. Pure pattern matching, first match
// wins, first column wins ties. It never fails: with no matches at all the
// mapping degrades to columns 0,1,2 which the caller must let the user
// correct.
func DetectFormat(headers []string) (Format, ColumnMapping) {
	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}

	format := FormatGeneric
	if matchCount(lowered, peerPaymentMarkers) == len(peerPaymentMarkers) {
		format = FormatPeerPayment
	}

	mapping := ColumnMapping{
		DateColumn:        findColumn(lowered, dateHeaders, 0),
		DescriptionColumn: findColumn(lowered, descriptionHeaders, 1),
		AmountColumn:      findColumn(lowered, amountHeaders, 2),
	}

	return format, mapping
}

func findColumn(headers []string, candidates []string, fallback int) int {
	for _, candidate := range candidates {
		for i, header := range headers {
			if strings.Contains(header, candidate) {
				return i
			}
		}
	}

	return fallback
}

func matchCount(headers []string, markers []string) int {
	count := 0
	for _, marker := range markers {
		for _, header := range headers {
			if header == marker || strings.Contains(header, marker) {
				count++
				break
			}
		}
	}

	return count
}
