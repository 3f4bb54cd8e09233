package bankfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientFetchWindow(t *testing.T) {
	var gotStart, gotEnd, gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStart = r.URL.Query().Get("start-date")
		gotEnd = r.URL.Query().Get("end-date")
		gotAuth = r.Header.Get("Authorization")

		w.Write([]byte(`{"accounts":[{
			"id":"a1","name":"Checking","type":"checking",
			"balance":1523.11,"balance-date":1755000000,
			"transactions":[{"id":"t1","posted":1754900000,"amount":-142.87,"description":"COSTCO WHOLESALE"}]
		}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token123")

	snapshot, err := client.FetchWindow(context.Background(), Window{Start: 1754000000, End: 1755000000})

	require.NoError(t, err)
	assert.Equal(t, "1754000000", gotStart)
	assert.Equal(t, "1755000000", gotEnd)
	assert.Equal(t, "Bearer token123", gotAuth)

	require.Len(t, snapshot.Accounts, 1)
	account := snapshot.Accounts[0]
	assert.Equal(t, "a1", account.ID)
	assert.Equal(t, 1523.11, account.Balance)
	require.Len(t, account.Transactions, 1)
	assert.Equal(t, -142.87, account.Transactions[0].Amount)
}

func TestClientAuthExpired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "stale").FetchWindow(context.Background(), Window{})

	// distinct, user-actionable error kind, not a generic failure
	assert.ErrorIs(t, err, ErrReauthRequired)
	assert.NotErrorIs(t, err, ErrRateLimited)
}

func TestClientRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "token").FetchWindow(context.Background(), Window{})

	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestClientUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "token").FetchWindow(context.Background(), Window{})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrReauthRequired)
	assert.NotErrorIs(t, err, ErrRateLimited)
}
