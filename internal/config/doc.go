// Package config loads and validates ledgerkeep's configuration.
//
// Values are collected from three sources and merged with mergo, first
// non-zero value winning: environment variables, command-line flags, and an
// optional JSON file whose path comes from the first two sources.
package config
