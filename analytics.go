package ynab

import "time"

// Reporting helpers over fetched collections. These are pure functions;
// fetch the inputs first, then slice them locally without spending more
// requests.

// NetWorth sums the balances of live accounts. Closed accounts are
// skipped unless includeClosed is passed as true.
func NetWorth(accounts Collection[*Account], includeClosed ...bool) Milliunits {
	withClosed := len(includeClosed) > 0 && includeClosed[0]
	var total Milliunits
	for _, a := range accounts {
		if a.Deleted || (a.Closed && !withClosed) {
			continue
		}
		total += a.Balance
	}
	return total
}

// SpendingByCategory totals outflows per category name, as positive
// amounts. Splits are broken into their subtransactions; transfers and
// inflows are skipped. Uncategorized spending lands under "Uncategorized".
func SpendingByCategory(transactions Collection[*Transaction]) map[string]Milliunits {
	totals := make(map[string]Milliunits)
	for _, t := range transactions {
		if t.Deleted || t.TransferAccountID != nil {
			continue
		}
		if len(t.Subtransactions) > 0 {
			for _, sub := range t.Subtransactions {
				if sub.Deleted || sub.TransferAccountID != nil || sub.Amount >= 0 {
					continue
				}
				totals[orUncategorized(sub.CategoryName)] -= sub.Amount
			}
			continue
		}
		if t.Amount >= 0 {
			continue
		}
		totals[orUncategorized(t.CategoryName)] -= t.Amount
	}
	return totals
}

// SpendingByPayee totals outflows per payee name, as positive amounts.
// Transfers and inflows are skipped.
func SpendingByPayee(transactions Collection[*Transaction]) map[string]Milliunits {
	totals := make(map[string]Milliunits)
	for _, t := range transactions {
		if t.Deleted || t.TransferAccountID != nil || t.Amount >= 0 {
			continue
		}
		name := t.PayeeName
		if name == "" {
			name = "No Payee"
		}
		totals[name] -= t.Amount
	}
	return totals
}

// TransactionsBetween keeps the transactions dated within [from, to],
// inclusive on both ends.
func TransactionsBetween(transactions Collection[*Transaction], from, to time.Time) Collection[*Transaction] {
	return transactions.Where(func(t *Transaction) bool {
		d := t.Date.Time
		return !d.Before(from) && !d.After(to)
	})
}

func orUncategorized(name string) string {
	if name == "" {
		return "Uncategorized"
	}
	return name
}
