// Package config stores contacts-cli settings and the signed-in session
// in ~/.contacts/cli.yaml.
package config
