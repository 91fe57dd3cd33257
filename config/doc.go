// Package config loads lbhealth settings from defaults, an optional YAML
// file, LBHEALTH_* environment variables and command-line flags, and reads
// the JSON list of check commands.
package config
