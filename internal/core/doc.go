// Package core holds the budgeting domain: cycles, buckets, transactions and
// the pure rules that allocate a salary and fold a ledger into balances.
package core
