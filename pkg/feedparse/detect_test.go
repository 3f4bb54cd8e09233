package feedparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFormatGeneric(t *testing.T) {
	format, mapping := DetectFormat([]string{"Date", "Description", "Amount"})

	assert.Equal(t, FormatGeneric, format)
	assert.Equal(t, ColumnMapping{DateColumn: 0, DescriptionColumn: 1, AmountColumn: 2}, mapping)
}

func TestDetectFormatShuffledColumns(t *testing.T) {
	format, mapping := DetectFormat([]string{"Amount", "Posted Date", "Memo"})

	assert.Equal(t, FormatGeneric, format)
	assert.Equal(t, 1, mapping.DateColumn)
	assert.Equal(t, 2, mapping.DescriptionColumn)
	assert.Equal(t, 0, mapping.AmountColumn)
}

func TestDetectFormatPeerPayment(t *testing.T) {
	format, _ := DetectFormat([]string{"ID", "Datetime", "Type", "Status", "Note", "From", "To", "Amount (total)"})

	assert.Equal(t, FormatPeerPayment, format)
}

func TestDetectFormatFallbackMapping(t *testing.T) {
	// nothing recognizable degrades to 0,1,2, which the caller lets the
	// user correct
	format, mapping := DetectFormat([]string{"aaa", "bbb", "ccc"})

	assert.Equal(t, FormatGeneric, format)
	assert.Equal(t, ColumnMapping{DateColumn: 0, DescriptionColumn: 1, AmountColumn: 2}, mapping)
}

func TestDetectFormatFirstColumnWinsTies(t *testing.T) {
	_, mapping := DetectFormat([]string{"Transaction Date", "Post Date", "Description", "Amount"})

	assert.Equal(t, 0, mapping.DateColumn)
}
