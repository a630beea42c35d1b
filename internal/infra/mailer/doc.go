// Package mailer delivers confirmation e-mails.
//
// A Dispatcher renders messages from embedded HTML templates and hands them
// to a single background worker through a bounded queue, so request
// handlers never wait on the mail server. Delivery goes through a
// Transport: SMTP for production, or a logging transport when mail is
// disabled.
package mailer
