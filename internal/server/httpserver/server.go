package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Default server timeouts.
const (
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultReadTimeout       = 15 * time.Second
	DefaultWriteTimeout      = 30 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	certFile   string
	keyFile    string
}

// Option configures a Server.
type Option func(*Server)

// WithTimeouts overrides the read, write and idle timeouts. Zero keeps the default.
func WithTimeouts(read, write, idle time.Duration) Option {
	return func(s *Server) {
		if read > 0 {
			s.httpServer.ReadTimeout = read
		}
		if write > 0 {
			s.httpServer.WriteTimeout = write
		}
		if idle > 0 {
			s.httpServer.IdleTimeout = idle
		}
	}
}

// WithTLS serves HTTPS using the given certificate and key files.
func WithTLS(certFile, keyFile string) Option {
	return func(s *Server) {
		s.certFile, s.keyFile = certFile, keyFile
	}
}

// WithCertificate serves HTTPS with certificates from get, which is consulted
// on every handshake so a renewed certificate takes effect immediately.
func WithCertificate(get func(*tls.ClientHelloInfo) (*tls.Certificate, error)) Option {
	return func(s *Server) {
		s.httpServer.TLSConfig = &tls.Config{
			MinVersion:     tls.VersionTLS12,
			GetCertificate: get,
		}
	}
}

// WithErrorLog routes net/http internal errors to log.
func WithErrorLog(log *slog.Logger) Option {
	return func(s *Server) {
		s.httpServer.ErrorLog = slog.NewLogLogger(log.Handler(), slog.LevelWarn)
	}
}

// New creates a new HTTP server.
func New(addr string, handler http.Handler, opts ...Option) *Server {
	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			ReadTimeout:       DefaultReadTimeout,
			WriteTimeout:      DefaultWriteTimeout,
			IdleTimeout:       DefaultIdleTimeout,
		},
		handler: handler,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TLS reports whether the server serves HTTPS.
func (s *Server) TLS() bool {
	return (s.certFile != "" && s.keyFile != "") || s.httpServer.TLSConfig != nil
}

// ListenAndServe starts the server, using TLS when configured.
// It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	var err error
	if s.TLS() {
		err = s.httpServer.ListenAndServeTLS(s.certFile, s.keyFile)
	} else {
		err = s.httpServer.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Serve accepts connections on ln, using TLS when configured.
// It returns nil after Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	var err error
	if s.TLS() {
		err = s.httpServer.ServeTLS(ln, s.certFile, s.keyFile)
	} else {
		err = s.httpServer.Serve(ln)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
