package bankfeed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	calls []Window
	fetch func(window Window) (*Snapshot, error)
}

func (f *fakeFetcher) FetchWindow(ctx context.Context, window Window) (*Snapshot, error) {
	f.calls = append(f.calls, window)
	return f.fetch(window)
}

func epochDays(days int) int64 {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Unix() + int64(days*secondsPerDay)
}

func TestPartitionWindow(t *testing.T) {
	windows := partitionWindow(Window{Start: epochDays(0), End: epochDays(150)})

	require.Len(t, windows, 3)

	maxSpan := int64(MaxWindowDays * secondsPerDay)
	for i, w := range windows {
		assert.LessOrEqual(t, w.End-w.Start, maxSpan)
		if i > 0 {
			// consecutive and non-overlapping
			assert.Equal(t, windows[i-1].End+1, w.Start)
		}
	}

	assert.Equal(t, epochDays(0), windows[0].Start)
	assert.Equal(t, epochDays(150), windows[2].End)
}

func TestPartitionWindowSingle(t *testing.T) {
	windows := partitionWindow(Window{Start: epochDays(0), End: epochDays(30)})

	require.Len(t, windows, 1)
	assert.Equal(t, epochDays(0), windows[0].Start)
	assert.Equal(t, epochDays(30), windows[0].End)
}

func TestFetchRangeSingleWindowSkipsMerge(t *testing.T) {
	snapshot := &Snapshot{Accounts: []Account{{ID: "a1", Name: "Checking"}}}
	fetcher := &fakeFetcher{fetch: func(Window) (*Snapshot, error) { return snapshot, nil }}

	got, err := NewWindowMerger(fetcher).FetchRange(context.Background(), epochDays(0), epochDays(30))

	require.NoError(t, err)
	require.Len(t, fetcher.calls, 1)
	// the single fetch result comes back unchanged, no merge pass at all
	assert.Same(t, snapshot, got)
}

func TestFetchRangeSequentialInOrder(t *testing.T) {
	fetcher := &fakeFetcher{fetch: func(Window) (*Snapshot, error) { return &Snapshot{}, nil }}

	_, err := NewWindowMerger(fetcher).FetchRange(context.Background(), epochDays(0), epochDays(150))

	require.NoError(t, err)
	require.Len(t, fetcher.calls, 3)
	for i := 1; i < len(fetcher.calls); i++ {
		assert.Greater(t, fetcher.calls[i].Start, fetcher.calls[i-1].End-1)
	}
}

func TestFetchRangeChunkMergeEquivalence(t *testing.T) {
	// three sub-windows reporting the same account with overlapping
	// transactions must fold into the union, deduplicated by remote id
	perWindow := map[int64]*Snapshot{
		0: {Accounts: []Account{{
			ID: "a1", Name: "Checking", Balance: 100, BalanceDate: epochDays(60),
			Transactions: []Transaction{{ID: "t1", Amount: -5}, {ID: "t2", Amount: -10}},
		}}},
		1: {Accounts: []Account{{
			ID: "a1", Name: "Checking", Balance: 250, BalanceDate: epochDays(120),
			Transactions: []Transaction{{ID: "t2", Amount: -10}, {ID: "t3", Amount: -15}},
		}}},
		2: {Accounts: []Account{{
			ID: "a1", Name: "Checking", Balance: 200, BalanceDate: epochDays(90),
			Transactions: []Transaction{{ID: "t4", Amount: -20}},
		}}},
	}

	call := int64(0)
	fetcher := &fakeFetcher{fetch: func(Window) (*Snapshot, error) {
		s := perWindow[call]
		call++
		return s, nil
	}}

	got, err := NewWindowMerger(fetcher).FetchRange(context.Background(), epochDays(0), epochDays(150))

	require.NoError(t, err)
	require.Len(t, got.Accounts, 1)

	account := got.Accounts[0]

	ids := make([]string, len(account.Transactions))
	for i, transaction := range account.Transactions {
		ids[i] = transaction.ID
	}
	// union, no duplicates, first-seen order preserved
	assert.Equal(t, []string{"t1", "t2", "t3", "t4"}, ids)

	// balance comes from the sub-window with the newest balance timestamp,
	// not the last one fetched
	assert.Equal(t, 250.0, account.Balance)
	assert.Equal(t, epochDays(120), account.BalanceDate)
}

func TestMergeNeverClearsHoldings(t *testing.T) {
	merged := &Snapshot{Accounts: []Account{{
		ID:       "a1",
		Holdings: []Holding{{ID: "h1", Description: "VTSAX", Shares: 10}},
	}}}

	mergeSnapshot(merged, &Snapshot{Accounts: []Account{{ID: "a1"}}})
	assert.Len(t, merged.Accounts[0].Holdings, 1)

	mergeSnapshot(merged, &Snapshot{Accounts: []Account{{
		ID:       "a1",
		Holdings: []Holding{{ID: "h1", Shares: 12}, {ID: "h2", Shares: 3}},
	}}})
	// a non-empty sighting replaces wholesale
	require.Len(t, merged.Accounts[0].Holdings, 2)
	assert.Equal(t, 12.0, merged.Accounts[0].Holdings[0].Shares)
}

func TestMergeKeepsOlderBalance(t *testing.T) {
	merged := &Snapshot{Accounts: []Account{{ID: "a1", Balance: 500, BalanceDate: 1000}}}

	mergeSnapshot(merged, &Snapshot{Accounts: []Account{{ID: "a1", Balance: 100, BalanceDate: 999}}})

	assert.Equal(t, 500.0, merged.Accounts[0].Balance)

	// an equal timestamp is not strictly newer either
	mergeSnapshot(merged, &Snapshot{Accounts: []Account{{ID: "a1", Balance: 100, BalanceDate: 1000}}})
	assert.Equal(t, 500.0, merged.Accounts[0].Balance)
}

func TestFetchRangeFailsWholeSyncOnError(t *testing.T) {
	boom := errors.New("boom")
	call := 0
	fetcher := &fakeFetcher{fetch: func(Window) (*Snapshot, error) {
		call++
		if call == 2 {
			return nil, boom
		}
		return &Snapshot{}, nil
	}}

	_, err := NewWindowMerger(fetcher).FetchRange(context.Background(), epochDays(0), epochDays(150))

	// no partial result on failure
	assert.ErrorIs(t, err, boom)
}

func TestFetchRangeFailsWholeSyncOnTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &fakeFetcher{fetch: func(Window) (*Snapshot, error) {
		cancel()
		return &Snapshot{}, nil
	}}

	_, err := NewWindowMerger(fetcher).FetchRange(ctx, epochDays(0), epochDays(150))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchRangeRejectsInvertedRange(t *testing.T) {
	fetcher := &fakeFetcher{fetch: func(Window) (*Snapshot, error) { return &Snapshot{}, nil }}

	_, err := NewWindowMerger(fetcher).FetchRange(context.Background(), epochDays(10), epochDays(0))

	assert.Error(t, err)
	assert.Empty(t, fetcher.calls)
}
