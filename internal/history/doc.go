// Package history persists finished alignment runs in SQLite.
//
// The Store records one row per run (outcome, error kind, mark count, elapsed
// time, and the serialized result) so operators can inspect recent runs from
// the CLI or the HTTP API. The table is trimmed to a configured number of rows
// after each insert. Busy databases are retried with bounded backoff because
// the CLI and the server may write concurrently.
package history
