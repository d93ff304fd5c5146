// Package ledger persists packaging history in a local SQLite database: one
// row per run plus a row per executed stage. History is advisory; the
// pipeline treats ledger write failures as warnings, never as run failures.
package ledger
