// Package output renders contacts-cli results as a table, JSON or YAML.
package output
