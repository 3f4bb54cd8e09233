package bankfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"k8s.io/klog"
)

// The remote feed allows roughly this many calls per day; 429 responses are
// reported against it.
const DailyRequestBudget = 24

// ErrReauthRequired means the feed connection's credentials have expired and
// the user has to re-link the account. Retrying without that is pointless.
var ErrReauthRequired = errors.New("bank feed authorization expired, reconnect the account")

// ErrRateLimited means the daily call budget is exhausted; retry later.
var ErrRateLimited = fmt.Errorf("bank feed rate limited (budget is about %d requests/day), retry later", DailyRequestBudget)

// Transaction is a transaction as the remote feed reports it, amount still
// in the feed's sign convention.
type Transaction struct {
	ID          string  `json:"id"`
	Posted      int64   `json:"posted"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Payee       string  `json:"payee"`
}

type Holding struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Shares      float64 `json:"shares"`
	MarketValue float64 `json:"market_value"`
}

// Account carries its own transactions, holdings, and balance, as returned
// by one date-bounded feed query.
type Account struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Type         string        `json:"type"`
	Balance      float64       `json:"balance"`
	BalanceDate  int64         `json:"balance-date"`
	Transactions []Transaction `json:"transactions"`
	Holdings     []Holding     `json:"holdings"`
}

type Snapshot struct {
	Accounts []Account `json:"accounts"`
}

// Window is a date-bounded feed query range in epoch seconds.
type Window struct {
	Start int64
	End   int64
}

type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

func NewClient(baseURL, accessToken string) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 2 * time.Minute},
	}
}

// FetchWindow issues one date-bounded accounts query. Auth expiry and rate
// limiting come back as distinct error kinds the caller can act on.
func (c *Client) FetchWindow(ctx context.Context, window Window) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/accounts", nil)
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	q.Add("start-date", strconv.FormatInt(window.Start, 10))
	q.Add("end-date", strconv.FormatInt(window.End, 10))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	klog.V(2).Infof("fetching bank feed window %d..%d", window.Start, window.End)

	rs, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching bank feed: %w", err)
	}
	defer rs.Body.Close()

	switch rs.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return nil, ErrReauthRequired
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("bank feed returned unexpected status %d", rs.StatusCode)
	}

	bodyBytes, err := io.ReadAll(rs.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading bank feed response: %w", err)
	}

	var snapshot Snapshot
	err = json.Unmarshal(bodyBytes, &snapshot)
	if err != nil {
		return nil, fmt.Errorf("error parsing bank feed response: %w", err)
	}

	return &snapshot, nil
}
