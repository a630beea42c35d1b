// Package tlsroots loads TLS material for the server and its outbound
// connections.
//
// CertReloader serves the HTTPS key pair and picks up renewed files without
// a restart. LoadPool builds the trust store used to verify the SMTP relay.
package tlsroots
