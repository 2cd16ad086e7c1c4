// Package config loads, normalizes, and validates discompressor configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts) and reads TOML files. Always obtain settings through this
// package so downstream code receives absolute paths and canonical values.
package config
