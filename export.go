package ynab

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// DefaultCSVColumns is the column set ExportTransactionsCSV writes when
// none are named.
var DefaultCSVColumns = []string{
	"date", "account_name", "payee_name", "category_name",
	"memo", "amount", "cleared", "approved",
}

var csvExtractors = map[string]func(*Transaction) string{
	"id":            func(t *Transaction) string { return t.ID },
	"date":          func(t *Transaction) string { return t.Date.Time.Format("2006-01-02") },
	"account_name":  func(t *Transaction) string { return t.AccountName },
	"payee_name":    func(t *Transaction) string { return t.PayeeName },
	"category_name": func(t *Transaction) string { return t.CategoryName },
	"memo":          func(t *Transaction) string { return t.Memo },
	"amount":        func(t *Transaction) string { return t.Amount.Decimal().StringFixed(2) },
	"milliunits":    func(t *Transaction) string { return strconv.FormatInt(int64(t.Amount), 10) },
	"cleared":       func(t *Transaction) string { return string(t.Cleared) },
	"approved":      func(t *Transaction) string { return strconv.FormatBool(t.Approved) },
	"flag_color": func(t *Transaction) string {
		if t.FlagColor == nil {
			return ""
		}
		return string(*t.FlagColor)
	},
}

// ExportTransactionsCSV writes the transactions as CSV, sorted by date and
// then id so output is stable across runs. Columns default to
// DefaultCSVColumns; pass names from that set (plus "id", "milliunits",
// "flag_color") to select others. An unknown column name is an error
// wrapping ErrValidation. Amounts are written as decimal currency units
// unless the "milliunits" column is chosen.
func ExportTransactionsCSV(w io.Writer, transactions Collection[*Transaction], columns ...string) error {
	if len(columns) == 0 {
		columns = DefaultCSVColumns
	}
	extractors := make([]func(*Transaction) string, len(columns))
	for i, name := range columns {
		ex, ok := csvExtractors[name]
		if !ok {
			return fmt.Errorf("%w: unknown csv column %q", ErrValidation, name)
		}
		extractors[i] = ex
	}

	rows := make([]*Transaction, 0, len(transactions))
	for _, t := range transactions {
		rows = append(rows, t)
	}
	sort.Slice(rows, func(i, j int) bool {
		di, dj := rows[i].Date.Time, rows[j].Date.Time
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return rows[i].ID < rows[j].ID
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(columns))
	for _, t := range rows {
		for i, ex := range extractors {
			record[i] = ex(t)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
