// Package logs reads the mpsync log file for `mpsync logs`.
//
// It returns the last N lines with bounded memory, optionally keeping only
// lines that mention a run id, and can follow the file as new lines arrive.
// Follow mode watches the log directory until the caller's context is
// cancelled.
package logs
