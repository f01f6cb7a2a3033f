// Package config handles configuration loading and merging for muxfold.
//
// # Configuration Precedence
//
// Configuration values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--no-color, --debug, --shell, --final-shrink, etc.)
//  2. Environment variables (MUXFOLD_NO_COLOR, NO_COLOR, MUXFOLD_DEBUG, MUXFOLD_SHELL, MUXFOLD_LOG_FILE)
//  3. YAML config file (.muxfold.yaml in local directory or ~/.config/muxfold/.muxfold.yaml)
//  4. Hardcoded defaults
//
// When a higher-priority source sets a value, it overrides any lower-priority values.
// Each resolved value records which source it came from.
//
// # Pattern Pairs
//
// Pairs are not overridden but concatenated, and their order is their match
// priority: -s/-e pairs by position, then the --match-pairs-file, then the
// pairs list of the config file.
//
// # Programs
//
// Programs from --programs-file run through the shell, one per line, and
// come before programs given as arguments. Argument programs are separated
// by -/-. With no programs at all, standard input is the only source.
//
// # Environment Variables
//
//   - MUXFOLD_NO_COLOR: "true" or "1" disables colors
//   - NO_COLOR: any non-empty value disables colors
//   - MUXFOLD_DEBUG: "true" or "1" enables the structural trace instead of live rendering
//   - MUXFOLD_SHELL: shell used for programs file lines
//   - MUXFOLD_LOG_FILE: write structured logs to this file
package config
