package ledger

import (
	"fmt"
	"math"
)

// SplitTolerance is the absolute difference allowed between a transaction's
// amount and the sum of its splits. Currency amounts are floats, so exact
// equality is not required.
const SplitTolerance = 0.01

// SplitValidationError names the offending transaction and how its splits
// failed, so the caller can surface it before any write happens.
type SplitValidationError struct {
	TransactionDescription string
	Reason                 string
	Difference             float64
}

func (e *SplitValidationError) Error() string {
	if e.Difference != 0 {
		return fmt.Sprintf("invalid splits for %q: %s (off by %.2f)", e.TransactionDescription, e.Reason, e.Difference)
	}

	return fmt.Sprintf("invalid splits for %q: %s", e.TransactionDescription, e.Reason)
}

// ValidateSplits checks a proposed split list against the transaction's
// total. Checks run in order and the first failure wins: at least two
// splits, every split categorized, no zero amounts, amounts summing to the
// total within SplitTolerance.
func ValidateSplits(description string, total float64, splits []Split) error {
	if len(splits) < 2 {
		return &SplitValidationError{
			TransactionDescription: description,
			Reason:                 fmt.Sprintf("need at least 2 splits, got %d", len(splits)),
		}
	}

	for i, split := range splits {
		if split.CategoryID == 0 {
			return &SplitValidationError{
				TransactionDescription: description,
				Reason:                 fmt.Sprintf("split %d has no category", i+1),
			}
		}

		if split.Amount == 0 {
			return &SplitValidationError{
				TransactionDescription: description,
				Reason:                 fmt.Sprintf("split %d has a zero amount", i+1),
			}
		}
	}

	sum := 0.0
	for _, split := range splits {
		sum += split.Amount
	}

	if diff := sum - total; math.Abs(diff) > SplitTolerance {
		return &SplitValidationError{
			TransactionDescription: description,
			Reason:                 fmt.Sprintf("splits sum to %.2f, transaction is %.2f", sum, total),
			Difference:             diff,
		}
	}

	return nil
}
