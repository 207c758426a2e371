// Package config defines configuration structures for the objdl CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (OBJDL_ prefix)
//   - YAML configuration file
//
// Precedence is flags over environment over file over defaults; the CLI
// composes these with [Config.Merge].
package config
