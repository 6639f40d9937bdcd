package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vorrawut/poon-ai-service-sub001/internal/common"
)

func TestReadRows(t *testing.T) {
	input := "\ufeffDate, Amount ,Merchant,Category\n" +
		"2024-03-01,120.50,Starbucks,Food & Dining\n" +
		",,,\n" +
		"2024-03-02,85,Grab\n"

	columns, rows, err := readRows(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "amount", "merchant", "category"}, columns)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]string{
		"date":     "2024-03-01",
		"amount":   "120.50",
		"merchant": "Starbucks",
		"category": "Food & Dining",
	}, rows[0])
	assert.Equal(t, "Grab", rows[1]["merchant"])
	_, hasCategory := rows[1]["category"]
	assert.False(t, hasCategory)
}

func TestReadRowsRejectsEmptyInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "no header", input: ""},
		{name: "header only", input: "amount,merchant\n"},
		{name: "blank rows", input: "amount,merchant\n,\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := readRows(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})
	}
}
