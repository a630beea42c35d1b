// Command contacts-cli is a command-line client for the contacts API.
//
// Usage:
//
//	contacts-cli auth login --email ann@example.com --password ...
//	contacts-cli contact list --page 2
//	contacts-cli -o json contact get 7
//	contacts-cli contact update --phone +15550100 7
//
// The session from "auth login" is kept in ~/.contacts/cli.yaml.
package main
