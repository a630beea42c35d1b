package tlsroots

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events a certificate renewal produces.
const DefaultDebounce = 500 * time.Millisecond

// CertReloader holds a key pair and reloads it when its files change.
type CertReloader struct {
	certFile string
	keyFile  string
	log      *slog.Logger
	debounce time.Duration

	cert atomic.Pointer[tls.Certificate]

	watcher *fsnotify.Watcher
	done    chan struct{}
	once    sync.Once
}

// NewCertReloader loads the key pair once. It does not watch until Watch is called.
func NewCertReloader(certFile, keyFile string, log *slog.Logger) (*CertReloader, error) {
	if log == nil {
		log = slog.Default()
	}
	r := &CertReloader{
		certFile: certFile,
		keyFile:  keyFile,
		log:      log,
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload reads the key pair from disk. On failure the previous pair stays in use.
func (r *CertReloader) Reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("tlsroots: load key pair: %w", err)
	}
	r.cert.Store(&cert)
	return nil
}

// GetCertificate implements tls.Config.GetCertificate.
func (r *CertReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return r.cert.Load(), nil
}

// Watch starts reloading on changes to either file. Parent directories are
// watched so that rename-into-place updates are seen.
func (r *CertReloader) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	dirs := map[string]bool{filepath.Dir(r.certFile): true, filepath.Dir(r.keyFile): true}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return fmt.Errorf("tlsroots: watch %s: %w", dir, err)
		}
	}
	r.watcher = w
	go r.loop()
	r.log.Info("watching TLS certificate", "cert_file", r.certFile, "key_file", r.keyFile)
	return nil
}

func (r *CertReloader) loop() {
	names := map[string]bool{filepath.Base(r.certFile): true, filepath.Base(r.keyFile): true}
	var timer *time.Timer
	for {
		select {
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if !names[filepath.Base(ev.Name)] || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(r.debounce, func() {
				if err := r.Reload(); err != nil {
					r.log.Error("TLS certificate reload failed", "error", err)
					return
				}
				r.log.Info("TLS certificate reloaded", "cert_file", r.certFile)
			})
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.log.Warn("TLS certificate watcher error", "error", err)
		case <-r.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// Close stops watching. It is safe to call more than once.
func (r *CertReloader) Close() error {
	var err error
	r.once.Do(func() {
		close(r.done)
		if r.watcher != nil {
			err = r.watcher.Close()
		}
	})
	return err
}
