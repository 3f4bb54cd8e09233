package ledger

import (
	"time"

	"github.com/uptrace/bun"
)

// Transaction is a committed ledger entry. Amounts are positive for money
// out. A transaction has either a single CategoryID or two or more splits,
// never both and never neither; the repository enforces that at commit time.
type Transaction struct {
	bun.BaseModel `bun:"table:transactions"`

	ID              int64  `bun:",pk,autoincrement"`
	RemoteID        string `bun:",unique,nullzero"`
	AccountID       int64
	TransactionDate time.Time
	Payee           string
	Description     string `bun:"type:text"`
	Note            string `bun:"type:text"`
	Amount          float64
	CategoryID      *int64
	ImportBatchID   string
	UpdatedAt       time.Time
}

// Split allocates part of a transaction's amount to a category.
type Split struct {
	bun.BaseModel `bun:"table:splits"`

	ID            int64 `bun:",pk,autoincrement"`
	TransactionID int64
	CategoryID    int64
	Amount        float64
}

type Account struct {
	bun.BaseModel `bun:"table:accounts"`

	ID             int64  `bun:",pk,autoincrement"`
	RemoteID       string `bun:",unique,nullzero"`
	Name           string
	Classification string
	Active         bool
	Balance        float64
	BalanceDate    time.Time
	UpdatedAt      time.Time
}

type Category struct {
	bun.BaseModel `bun:"table:categories"`

	ID        int64 `bun:",pk,autoincrement"`
	GroupName string
	Name      string
	Type      string
}
