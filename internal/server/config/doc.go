// Package config defines the contacts-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - verify.go: validation before startup
//   - sanitize.go: copy with secrets masked, for logging
//
// Values are loaded by internal/infra/confloader from a YAML file and
// CONTACTS_ environment variables on top of Default().
package config
