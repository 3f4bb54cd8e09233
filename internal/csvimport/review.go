package csvimport

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hearthledger/hearth/pkg/categorize"
	"github.com/hearthledger/hearth/pkg/feedparse"
	"github.com/hearthledger/hearth/pkg/reconcile"
)

// padding around the parsed date range when pre-fetching stored
// transactions, wide enough for the duplicate detector's possible-match
// window
const storedFetchPadding = 4 * 24 * time.Hour

// ParseResult is the review artifact echoed back after parsing, before the
// user confirms. The mapping is a hint the user can override.
type ParseResult struct {
	Headers          []string
	SampleRows       []feedparse.RawFeedRow
	TotalRows        int
	DroppedRows      int
	DetectedFormat   feedparse.Format
	SuggestedMapping feedparse.ColumnMapping
}

// RowReview pairs a parsed row with the advisory verdicts surfaced for the
// user's decision.
type RowReview struct {
	Row        feedparse.RawFeedRow
	Suggestion categorize.Suggestion
	Duplicate  reconcile.DuplicateVerdict
	Transfer   bool
}

type Review struct {
	BatchID string
	Parse   ParseResult
	Rows    []RowReview
}

// Pipeline holds the request-scoped state the review stages read: the
// suggestion engine built from category history, the transfer detector built
// from active accounts, and the pre-fetched stored transactions for
// duplicate checks. Every stage is a pure transformation; nothing is written
// until commit.
type Pipeline struct {
	Engine    *categorize.Engine
	Transfers *reconcile.TransferDetector
	// FetchStored pre-fetches the duplicate detector's read slice for the
	// parsed date range, called at most once per review.
	FetchStored func(from, to time.Time) ([]reconcile.StoredTransaction, error)
	Owner       string
	SampleRows  int
}

// Review runs detect, parse, suggest, and the duplicate/transfer checks over
// raw statement text. Output lists are order-preserving; callers rely on
// positional correspondence.
func (p *Pipeline) Review(text string) (*Review, error) {
	headers := feedparse.Headers(text)
	if len(headers) == 0 {
		return nil, fmt.Errorf("statement file is empty or has no parseable header")
	}

	format, mapping := feedparse.DetectFormat(headers)

	var rows []feedparse.RawFeedRow
	var dropped int

	switch format {
	case feedparse.FormatPeerPayment:
		rows, dropped = feedparse.ParsePeerPayments(text, p.Owner)
	default:
		rows, dropped = feedparse.ParseDelimited(text, mapping)
	}

	sampleCount := p.SampleRows
	if sampleCount <= 0 || sampleCount > len(rows) {
		sampleCount = len(rows)
	}

	review := &Review{
		BatchID: uuid.NewString(),
		Parse: ParseResult{
			Headers:          headers,
			SampleRows:       rows[:sampleCount],
			TotalRows:        len(rows),
			DroppedRows:      dropped,
			DetectedFormat:   format,
			SuggestedMapping: mapping,
		},
	}

	var stored []reconcile.StoredTransaction
	if from, to, ok := DateRange(rows); ok && p.FetchStored != nil {
		var err error
		stored, err = p.FetchStored(from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch stored transactions: %w", err)
		}
	}

	candidates := make([]reconcile.Candidate, len(rows))
	for i, row := range rows {
		candidates[i] = reconcile.Candidate{
			Date:        row.Date,
			Amount:      row.Amount,
			Description: row.Description,
		}
	}

	verdicts := reconcile.CheckDuplicates(candidates, stored)

	review.Rows = make([]RowReview, len(rows))
	for i, row := range rows {
		review.Rows[i] = RowReview{
			Row:        row,
			Suggestion: p.Engine.Suggest(row.Payee, row.Description),
			Duplicate:  verdicts[i],
			Transfer:   p.Transfers.IsTransfer(row.Payee, row.Description, row.Amount),
		}
	}

	return review, nil
}

// DateRange returns the padded fetch range covering every parsed row, for
// pre-fetching the duplicate detector's read slice.
func DateRange(rows []feedparse.RawFeedRow) (time.Time, time.Time, bool) {
	if len(rows) == 0 {
		return time.Time{}, time.Time{}, false
	}

	min, max := rows[0].Date, rows[0].Date
	for _, row := range rows[1:] {
		if row.Date.Before(min) {
			min = row.Date
		}
		if row.Date.After(max) {
			max = row.Date
		}
	}

	return min.Add(-storedFetchPadding), max.Add(storedFetchPadding), true
}
