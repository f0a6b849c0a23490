// Package main hosts the mpsync CLI entrypoint and command graph.
//
// The Cobra-based command tree loads configuration, opens the song ledger and
// drives the reconcile pipeline. `sync` runs verify, scan and sync against the
// configured library; `status` prints the ledger; `doctor` reports tool and
// directory health; `config` scaffolds and validates configuration files.
//
// Keep this package lean: behaviour belongs in the internal packages and is
// only surfaced here through commands and flags.
package main
