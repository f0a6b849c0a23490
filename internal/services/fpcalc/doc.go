// Package fpcalc computes Chromaprint acoustic fingerprints by invoking the
// fpcalc CLI in JSON mode.
//
// The fingerprint string is treated as an opaque identity: two files with
// byte-for-byte equal fingerprints are the same recording as far as the
// ledger is concerned. Failures are tagged with services.ErrFingerprint so the
// phases can skip the file and continue.
package fpcalc
