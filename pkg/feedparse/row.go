package feedparse

import "time"

// RawFeedRow is the normalized output of any parser, regardless of the
// source format. Amounts follow the ledger convention: positive = money out.
type RawFeedRow struct {
	Date        time.Time
	Description string
	Payee       string
	Amount      float64
	Note        string
}

// ColumnMapping is a guessed column to field assignment. It is a hint for
// the review step, never persisted, and always user overridable.
type ColumnMapping struct {
	DateColumn        int
	DescriptionColumn int
	AmountColumn      int
}
