package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawRowLookup(t *testing.T) {
	row := RawRow{Line: 2, Fields: map[string]string{
		"id":               "  ",
		"transaction_code": " T1 ",
		"amount":           "",
	}}

	tests := []struct {
		keys   []string
		want   string
		wantOK bool
	}{
		{[]string{"transaction_code"}, "T1", true},
		{[]string{"id", "transaction_code"}, "T1", true},
		{[]string{"amount"}, "", false},
		{[]string{"missing"}, "", false},
		{nil, "", false},
	}
	for _, tt := range tests {
		got, ok := row.Lookup(tt.keys...)
		assert.Equal(t, tt.want, got, "Lookup(%v)", tt.keys)
		assert.Equal(t, tt.wantOK, ok, "Lookup(%v)", tt.keys)
	}
}

func TestLabelsDefaulted(t *testing.T) {
	assert.False(t, Transaction{}.LabelsDefaulted())
	assert.True(t, Transaction{StatusDefaulted: true}.LabelsDefaulted())
	assert.True(t, Transaction{CategoryDefaulted: true}.LabelsDefaulted())
	assert.True(t, Transaction{StatusDefaulted: true, CategoryDefaulted: true}.LabelsDefaulted())
}

func TestClosedSets(t *testing.T) {
	assert.Len(t, Statuses, 7)
	assert.Equal(t, StatusUnknown, Statuses[len(Statuses)-1])
	assert.Equal(t, []Category{CategoryDebit, CategoryCredit}, Categories)
}
