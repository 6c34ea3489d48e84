// Package ledger holds the balance, settlement, and period arithmetic for a
// household. Everything here is a pure function over receipt values: no
// storage, no clock, no I/O. Callers fetch receipts, pick a date range, and
// the ledger answers who paid what, who owes what, and the single transfer
// that squares the pair.
//
// All amounts are shopspring decimals rounded to two places, ties away from
// zero, after each step that produces a stored amount. Shared costs split
// into a rounded half plus the exact remainder so the two shares always sum
// back to the original amount.
package ledger
