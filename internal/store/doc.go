// Package store is an optional SQLite sink for derived frames, built on
// database/sql with the pure-Go modernc.org/sqlite driver.
//
// Each frame goes to its own table, replaced on every save, with a TEXT
// DATE column followed by one REAL column per metric. Missing values are
// NULL. The runs table keeps one row per saved frame with the run ID that
// also tags the log lines of the job.
package store
