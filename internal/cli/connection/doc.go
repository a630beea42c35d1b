// Package connection is the HTTP client used by contacts-cli.
//
// Every API response is wrapped in the server's JSON envelope; ParseResponse
// unwraps it and turns error envelopes into *APIError values.
package connection
