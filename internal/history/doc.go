// Package history persists one row per finished transcode in a SQLite
// database under the data directory. The CLI records every job's outcome and
// renders recent runs with "discompressor history".
package history
