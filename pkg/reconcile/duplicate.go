package reconcile

import (
	"math"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
)

type DuplicateStatus string

const (
	DuplicateNone     DuplicateStatus = "none"
	DuplicatePossible DuplicateStatus = "possible"
	DuplicateExact    DuplicateStatus = "exact"
)

const (
	amountTolerance = 0.005
	// calendar days a possible match may drift from the stored date
	possibleDateWindow = 3
	// description similarity required to call a same-date same-amount match exact
	exactSimilarity = 0.85
	// weaker similarity that still makes a same-date same-amount pair suspicious
	possibleSimilarity = 0.5
)

// DuplicateVerdict is advisory: a possible or exact status is surfaced for
// the user's decision, never auto-rejected.
type DuplicateVerdict struct {
	Status  DuplicateStatus
	MatchID *int64
}

// Candidate is an incoming row being checked against the stored ledger.
type Candidate struct {
	Date        time.Time
	Amount      float64
	Description string
}

// StoredTransaction is the slice of committed state the detector reads.
type StoredTransaction struct {
	ID          int64
	Date        time.Time
	Amount      float64
	Description string
}

// CheckDuplicates returns one verdict per candidate, order-preserving. It is
// a pure read over the pre-fetched stored slice, safe to call speculatively
// before the user decides to import.
func CheckDuplicates(candidates []Candidate, stored []StoredTransaction) []DuplicateVerdict {
	verdicts := make([]DuplicateVerdict, len(candidates))
	for i, candidate := range candidates {
		verdicts[i] = checkOne(candidate, stored)
	}

	return verdicts
}

func checkOne(candidate Candidate, stored []StoredTransaction) DuplicateVerdict {
	verdict := DuplicateVerdict{Status: DuplicateNone}

	for i := range stored {
		s := &stored[i]

		if !amountsMatch(candidate.Amount, s.Amount) {
			continue
		}

		if sameDay(candidate.Date, s.Date) {
			similarity := descriptionSimilarity(candidate.Description, s.Description)
			if similarity >= exactSimilarity {
				id := s.ID
				return DuplicateVerdict{Status: DuplicateExact, MatchID: &id}
			}
			if similarity >= possibleSimilarity && verdict.Status == DuplicateNone {
				id := s.ID
				verdict = DuplicateVerdict{Status: DuplicatePossible, MatchID: &id}
			}
			continue
		}

		if daysApart(candidate.Date, s.Date) <= possibleDateWindow && verdict.Status == DuplicateNone {
			id := s.ID
			verdict = DuplicateVerdict{Status: DuplicatePossible, MatchID: &id}
		}
	}

	return verdict
}

func amountsMatch(a, b float64) bool {
	return math.Abs(a-b) < amountTolerance
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func daysApart(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}

	return int(d.Hours() / 24)
}

func descriptionSimilarity(a, b string) float64 {
	a = strings.ToUpper(strings.TrimSpace(a))
	b = strings.ToUpper(strings.TrimSpace(b))

	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}

	distance := levenshtein.ComputeDistance(a, b)

	return 1 - float64(distance)/float64(longest)
}
