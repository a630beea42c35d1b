// Package command defines the contacts-cli commands.
//
// Commands are grouped as auth, user, contact and system. A successful
// "auth login" stores the session tokens in the CLI config file so later
// commands authenticate without repeating credentials.
package command
