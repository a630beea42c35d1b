// Command contacts-server runs the contacts REST API.
//
// Configuration comes from an optional YAML file, an optional dotenv file and
// CONTACTS_* environment variables, in increasing precedence. Changes to the
// file's log.level are applied without a restart. When TLS is configured the
// certificate and key are reloaded whenever either file changes on disk.
package main
