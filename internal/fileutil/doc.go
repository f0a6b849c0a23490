// Package fileutil converts between absolute filesystem paths and the
// library-relative, slash-separated paths the ledger stores, and holds the
// small file predicates shared by the scanner and the sync phase.
package fileutil
