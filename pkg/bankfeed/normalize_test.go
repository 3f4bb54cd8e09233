package bankfeed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAmountIsSelfInverse(t *testing.T) {
	for _, amount := range []float64{142.87, -85.00, 0, 1e9, -0.01} {
		assert.Equal(t, amount, NormalizeAmount(NormalizeAmount(amount)))
	}
}

func TestApplyLedgerSign(t *testing.T) {
	// the same negation applies to every account classification; balances
	// are state, not flow, and stay untouched
	snapshot := &Snapshot{Accounts: []Account{
		{
			ID: "a1", Type: "checking", Balance: 1523.11,
			Transactions: []Transaction{{ID: "t1", Amount: -142.87}},
		},
		{
			ID: "a2", Type: "credit", Balance: -310.00,
			Transactions: []Transaction{{ID: "t2", Amount: -59.99}},
		},
		{
			ID: "a3", Type: "investment", Balance: 80000,
			Transactions: []Transaction{{ID: "t3", Amount: 500.00}},
		},
	}}

	ApplyLedgerSign(snapshot)

	assert.Equal(t, 142.87, snapshot.Accounts[0].Transactions[0].Amount)
	assert.Equal(t, 59.99, snapshot.Accounts[1].Transactions[0].Amount)
	assert.Equal(t, -500.00, snapshot.Accounts[2].Transactions[0].Amount)

	assert.Equal(t, 1523.11, snapshot.Accounts[0].Balance)
	assert.Equal(t, -310.00, snapshot.Accounts[1].Balance)
	assert.Equal(t, 80000.0, snapshot.Accounts[2].Balance)
}
