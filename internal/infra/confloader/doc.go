// Package confloader loads configuration with koanf.
//
// Sources, lowest priority first: the target's pre-filled values, a YAML
// file, an optional dotenv file, then environment variables. Environment
// keys carry a prefix and use a double underscore between levels, so
// CONTACTS_AUTH__SECRET_KEY sets auth.secret_key.
//
// Watcher reports writes to a config file through fsnotify so that
// selected settings can be re-applied without a restart.
package confloader
