package mailer

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// DefaultQueueSize bounds pending messages when no size is configured.
const DefaultQueueSize = 100

// ErrQueueFull is returned when a message cannot be queued.
var ErrQueueFull = errors.New("mail queue is full")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("mail dispatcher is closed")

// Recorder receives delivery outcomes: sent, failed or dropped.
type Recorder interface {
	MailDelivery(result string)
}

type nopRecorder struct{}

func (nopRecorder) MailDelivery(string) {}

// Options configures a Dispatcher.
type Options struct {
	QueueSize int

	// TokenTTL is shown in the message as the link lifetime.
	TokenTTL time.Duration

	Logger   *slog.Logger
	Recorder Recorder
}

// Dispatcher renders confirmation e-mails and sends them from a single
// background worker.
type Dispatcher struct {
	transport Transport
	tokenTTL  time.Duration
	logger    *slog.Logger
	recorder  Recorder

	mu     sync.RWMutex
	closed bool
	queue  chan Message
	done   chan struct{}
}

// NewDispatcher starts the worker. Call Close to drain and stop it.
func NewDispatcher(transport Transport, opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}

	d := &Dispatcher{
		transport: transport,
		tokenTTL:  opts.TokenTTL,
		logger:    opts.Logger.With("component", "mailer"),
		recorder:  opts.Recorder,
		queue:     make(chan Message, opts.QueueSize),
		done:      make(chan struct{}),
	}
	go d.run()
	return d
}

// SendConfirmation queues a confirmation message linking to
// <baseURL>/auth/confirmed_email/<token>. It does not wait for delivery.
func (d *Dispatcher) SendConfirmation(_ context.Context, to, username, baseURL, token string) error {
	msg, err := RenderConfirmation(to, ConfirmationData{
		Username: username,
		Link:     ConfirmationLink(baseURL, token),
		Expires:  formatTTL(d.tokenTTL),
	})
	if err != nil {
		return err
	}
	return d.Enqueue(msg)
}

// Enqueue queues msg without blocking.
func (d *Dispatcher) Enqueue(msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrClosed
	}
	select {
	case d.queue <- msg:
		return nil
	default:
		d.recorder.MailDelivery("dropped")
		d.logger.Warn("mail queue full, message dropped", "to", msg.To)
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits until the queue is drained or
// ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for msg := range d.queue {
		if err := d.transport.Send(context.Background(), msg); err != nil {
			d.recorder.MailDelivery("failed")
			d.logger.Error("mail delivery failed", "to", msg.To, "error", err)
			continue
		}
		d.recorder.MailDelivery("sent")
		d.logger.Debug("mail sent", "to", msg.To, "subject", msg.Subject)
	}
}

func formatTTL(ttl time.Duration) string {
	switch {
	case ttl <= 0:
		return "a few days"
	case ttl%(24*time.Hour) == 0:
		days := int(ttl / (24 * time.Hour))
		if days == 1 {
			return "1 day"
		}
		return strconv.Itoa(days) + " days"
	case ttl%time.Hour == 0:
		hours := int(ttl / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return strconv.Itoa(hours) + " hours"
	default:
		return ttl.String()
	}
}
