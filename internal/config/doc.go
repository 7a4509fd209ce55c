// Package config loads, normalizes, and validates mediasweep configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the MEDIASWEEP_WORKERS environment
// override. Operation defaults for convert and compress live here so the CLI
// can resolve an immutable request from flags layered over configuration.
package config
