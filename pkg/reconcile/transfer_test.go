package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransferKeywords(t *testing.T) {
	d := NewTransferDetector(nil)

	tests := []struct {
		description string
		amount      float64
		want        bool
	}{
		{"ONLINE SCHEDULED TRANSFER TO SAV", -500.00, true},
		{"CHASE CREDIT CRD AUTOPAY", -750.00, true},
		{"PAYMENT THANK YOU - WEB", -1200.00, true},
		{"ACH PMT WELLS FARGO", -300.00, true},
		{"MOBILE PAYMENT RECEIVED", 250.00, true},
		{"COSTCO WHOLESALE", -142.87, false},
		{"SHELL OIL 5771", -450.00, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, d.IsTransfer("", tt.description, tt.amount), tt.description)
	}
}

func TestIsTransferSmallAmountImmunity(t *testing.T) {
	d := NewTransferDetector(nil)

	// guaranteed keyword hit, but small-dollar rows are never flagged
	assert.False(t, d.IsTransfer("", "ONLINE TRANSFER TO SAVINGS", -100.00))
	assert.False(t, d.IsTransfer("", "PAYMENT THANK YOU", 35.00))
	assert.True(t, d.IsTransfer("", "ONLINE TRANSFER TO SAVINGS", -100.01))
}

func TestIsTransferAccountNameSubstring(t *testing.T) {
	d := NewTransferDetector([]string{"Emergency Fund", "Brokerage"})

	assert.True(t, d.IsTransfer("", "TO EMERGENCY FUND 2/20", -500.00))
	assert.True(t, d.IsTransfer("Brokerage Deposit", "", -2000.00))
	assert.False(t, d.IsTransfer("", "COSTCO WHOLESALE", -500.00))
}

func TestIsTransferShortAccountNamesIgnored(t *testing.T) {
	// a 3-character account name would false-positive constantly
	d := NewTransferDetector([]string{"HSA"})

	assert.False(t, d.IsTransfer("", "CHSApay merchant 123", -500.00))
}

func TestCheckTransfersBatch(t *testing.T) {
	d := NewTransferDetector([]string{"Savings"})

	flags := d.CheckTransfers([]TransferCandidate{
		{Description: "ONLINE TRANSFER TO SAVINGS", Amount: -500.00},
		{Description: "COSTCO WHOLESALE", Amount: -142.87},
		{Description: "TO SAVINGS ACCT", Amount: -200.00},
	})

	assert.Equal(t, []bool{true, false, true}, flags)
}
