package ynab

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportTransactionsCSV(t *testing.T) {
	transactions := Collection[*Transaction]{
		"t-2": {
			ID: "t-2", Date: onDate(2024, time.March, 7), Amount: -12000,
			AccountName: "Checking", PayeeName: "Coffee", CategoryName: "Dining Out",
			Cleared: ClearedUncleared,
		},
		"t-1": {
			ID: "t-1", Date: onDate(2024, time.March, 5), Amount: -42500,
			AccountName: "Checking", PayeeName: "Grocery Store", CategoryName: "Groceries",
			Memo: "weekly shop", Cleared: ClearedCleared, Approved: true,
		},
	}

	var buf strings.Builder
	require.NoError(t, ExportTransactionsCSV(&buf, transactions))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, DefaultCSVColumns, records[0])
	// Rows come out date-ordered regardless of map iteration.
	assert.Equal(t, []string{
		"2024-03-05", "Checking", "Grocery Store", "Groceries",
		"weekly shop", "-42.50", "cleared", "true",
	}, records[1])
	assert.Equal(t, "2024-03-07", records[2][0])
	assert.Equal(t, "-12.00", records[2][5])
}

func TestExportTransactionsCSV_Empty(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, ExportTransactionsCSV(&buf, nil))
	assert.Equal(t, "date,account_name,payee_name,category_name,memo,amount,cleared,approved\n", buf.String())
}

func TestExportTransactionsCSV_CustomColumns(t *testing.T) {
	transactions := Collection[*Transaction]{
		"t-1": {ID: "t-1", Date: onDate(2024, time.March, 5), Amount: -42500},
	}

	var buf strings.Builder
	require.NoError(t, ExportTransactionsCSV(&buf, transactions, "id", "milliunits"))
	assert.Equal(t, "id,milliunits\nt-1,-42500\n", buf.String())

	err := ExportTransactionsCSV(&buf, transactions, "no_such_column")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}
