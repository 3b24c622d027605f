// Package ynab is a client for the YNAB (You Need A Budget) REST API.
//
// A Client fronts the whole API. Fetch a Budget from it and walk the
// resource graph; each collection is fetched on first access and memoized
// on its parent:
//
//	client, err := ynab.New(ynab.WithAccessToken(token))
//	if err != nil {
//		log.Fatal(err)
//	}
//	budget, err := client.Budget(ctx, budgetID)
//	if err != nil {
//		log.Fatal(err)
//	}
//	accounts, err := budget.Accounts(ctx)
//	checking, ok, err := accounts.ByName("Checking")
//
// Every request passes a client-side rate limiter tuned to the API's 200
// requests per rolling hour, and GET responses are cached with a short
// TTL. Cache hits consume no rate-limit quota. Mutations bypass the cache
// and invalidate the affected budget's cached reads.
//
// A Client is safe for concurrent use. A Budget and the entities fetched
// through it are not; give each goroutine its own Budget.
package ynab
