// Package broker owns the duplex messaging endpoint: a reply socket that
// accepts inbound error envelopes and returns acknowledgements, and a
// publish socket that broadcasts processed results to any subscriber.
package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-zeromq/zmq4"

	"errorrelay/internal/analysis"
	"errorrelay/internal/notify"
	"errorrelay/internal/store"
)

// ReplySocket is the request/reply capability of the fabric: one envelope
// per exchange, one acknowledgement back.
type ReplySocket interface {
	Listen(endpoint string) error
	Recv() (zmq4.Msg, error)
	Send(msg zmq4.Msg) error
	Close() error
}

// PubSocket is the fire-and-forget broadcast capability; subscribers never
// acknowledge.
type PubSocket interface {
	Listen(endpoint string) error
	Send(msg zmq4.Msg) error
	Close() error
}

// Config holds the broker's bind parameters. The publish and reply ports
// derive from the HTTP base port; the +1/+2 scheme is fixed for
// compatibility with existing subscribers.
type Config struct {
	BindHost    string
	BasePort    int
	NotifyDelay time.Duration
}

func (c Config) PubPort() int   { return c.BasePort + 1 }
func (c Config) ReplyPort() int { return c.BasePort + 2 }

// Broker runs the receive-process-reply loop and the side-effecting calls to
// the webhook notifier and the analysis gateway. The Error Store is the only
// cross-envelope shared state; everything else is per-envelope.
type Broker struct {
	cfg      Config
	store    store.Store
	notifier notify.Notifier
	gateway  analysis.Gateway

	reply ReplySocket

	pubMu sync.Mutex // publish socket is not safe for concurrent sends
	pub   PubSocket
}

// Option configures a Broker.
type Option func(*Broker)

// WithSockets injects fabric sockets, replacing the default ZeroMQ pair.
func WithSockets(reply ReplySocket, pub PubSocket) Option {
	return func(b *Broker) {
		b.reply = reply
		b.pub = pub
	}
}

// New creates a Broker. Call Start before Serve or Dispatch.
func New(cfg Config, st store.Store, n notify.Notifier, g analysis.Gateway, opts ...Option) *Broker {
	b := &Broker{
		cfg:      cfg,
		store:    st,
		notifier: n,
		gateway:  g,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start binds both fabric endpoints. A bind failure aborts startup — it is
// the only fatal error in the system.
func (b *Broker) Start(ctx context.Context) error {
	if b.reply == nil {
		b.reply = zmq4.NewRep(ctx)
	}
	if b.pub == nil {
		b.pub = zmq4.NewPub(ctx)
	}

	replyEP := fmt.Sprintf("tcp://%s:%d", b.cfg.BindHost, b.cfg.ReplyPort())
	if err := b.reply.Listen(replyEP); err != nil {
		return fmt.Errorf("bind reply endpoint %s: %w", replyEP, err)
	}

	pubEP := fmt.Sprintf("tcp://%s:%d", b.cfg.BindHost, b.cfg.PubPort())
	if err := b.pub.Listen(pubEP); err != nil {
		return fmt.Errorf("bind publish endpoint %s: %w", pubEP, err)
	}

	slog.Info("broker bound", "reply", replyEP, "publish", pubEP)
	return nil
}

// Serve runs the reply loop until ctx is cancelled or the socket fails.
// Each envelope runs the full pipeline to completion before the next one is
// accepted, so responses keep arrival order.
func (b *Broker) Serve(ctx context.Context) error {
	for {
		msg, err := b.reply.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receive envelope: %w", err)
		}

		ack := b.handle(ctx, msg.Bytes())
		if err := b.reply.Send(zmq4.NewMsg(ack)); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("send acknowledgement: %w", err)
		}
	}
}

// Close releases both fabric sockets.
func (b *Broker) Close() error {
	var errs []error
	if b.reply != nil {
		if err := b.reply.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close reply socket: %w", err))
		}
	}
	b.pubMu.Lock()
	defer b.pubMu.Unlock()
	if b.pub != nil {
		if err := b.pub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publish socket: %w", err))
		}
	}
	return errors.Join(errs...)
}
