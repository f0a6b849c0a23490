// Package config loads, normalizes, and validates mpsync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MPSYNC_LIBRARY_DIR and MPSYNC_PLAYLIST_ID. The Config type centralizes the
// library layout, the external tool settings and the logging knobs so the
// CLI and the reconciliation pipeline discover them in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
