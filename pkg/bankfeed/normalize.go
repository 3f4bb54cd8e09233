package bankfeed

// NormalizeAmount maps the feed's sign convention onto the ledger's
// (positive = money out). A single negation is correct for checking,
// credit, and investment accounts alike given the feed's documented
// per-type conventions; do not special-case by account classification.
// The negation is its own inverse.
func NormalizeAmount(amount float64) float64 {
	return -amount
}

// ApplyLedgerSign normalizes every transaction amount in a snapshot in
// place. Balances represent account state, not a signed flow, and are never
// flipped.
func ApplyLedgerSign(snapshot *Snapshot) {
	for i := range snapshot.Accounts {
		transactions := snapshot.Accounts[i].Transactions
		for j := range transactions {
			transactions[j].Amount = NormalizeAmount(transactions[j].Amount)
		}
	}
}
