package reconcile

import (
	"math"
	"regexp"
	"strings"
)

// Amounts at or below this are never flagged; small-dollar merchant charges
// must not be mistaken for transfers.
const transferMaterialityThreshold = 100.0

// account names shorter than this would false-positive on ordinary
// merchant text
const minAccountNameLength = 4

// transferKeywords is an ordered table of transfer-indicating patterns,
// evaluated first-match-wins against the combined payee+description text.
var transferKeywords = []*regexp.Regexp{
	regexp.MustCompile(`transfer`),
	regexp.MustCompile(`payment`),
	regexp.MustCompile(`thank you`),
	regexp.MustCompile(`autopay`),
	regexp.MustCompile(`ach pmt`),
	regexp.MustCompile(`mobile payment`),
	regexp.MustCompile(`online\s+\w+(\s+\w+)*\s+transfer`),
}

// TransferDetector flags rows that look like money moving between the
// user's own accounts rather than real expense or income events. The active
// account list is supplied once at construction so batch callers never
// re-query it per row.
type TransferDetector struct {
	accountNames []string
}

func NewTransferDetector(activeAccountNames []string) *TransferDetector {
	names := make([]string, 0, len(activeAccountNames))
	for _, name := range activeAccountNames {
		name = strings.ToLower(strings.TrimSpace(name))
		if len(name) >= minAccountNameLength {
			names = append(names, name)
		}
	}

	return &TransferDetector{accountNames: names}
}

// IsTransfer is advisory: true surfaces a warning, it never blocks a row.
func (d *TransferDetector) IsTransfer(payee, description string, amount float64) bool {
	if math.Abs(amount) <= transferMaterialityThreshold {
		return false
	}

	text := strings.ToLower(strings.TrimSpace(payee + " " + description))

	for _, pattern := range transferKeywords {
		if pattern.MatchString(text) {
			return true
		}
	}

	for _, name := range d.accountNames {
		if strings.Contains(text, name) {
			return true
		}
	}

	return false
}

// TransferCandidate is one row of a batch check.
type TransferCandidate struct {
	Payee       string
	Description string
	Amount      float64
}

// CheckTransfers returns one flag per candidate, order-preserving.
func (d *TransferDetector) CheckTransfers(candidates []TransferCandidate) []bool {
	flags := make([]bool, len(candidates))
	for i, c := range candidates {
		flags[i] = d.IsTransfer(c.Payee, c.Description, c.Amount)
	}

	return flags
}
