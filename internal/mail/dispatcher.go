package mail

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	applog "homeshop/internal/log"
)

var (
	ErrClosed    = errors.New("mail dispatcher closed")
	ErrQueueFull = errors.New("mail queue full")
)

const sendTimeout = 15 * time.Second

// Dispatcher sends messages in the background, at most once and best
// effort: a full queue drops the message and a failed send is only logged.
type Dispatcher struct {
	sender Sender
	log    *applog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan Message
	g      errgroup.Group
}

func NewDispatcher(sender Sender, log *applog.Logger, workers, queue int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queue < 1 {
		queue = 1
	}
	d := &Dispatcher{sender: sender, log: log, queue: make(chan Message, queue)}
	for i := 0; i < workers; i++ {
		d.g.Go(d.work)
	}
	return d
}

func (d *Dispatcher) work() error {
	for m := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err := d.sender.Send(ctx, m)
		cancel()
		if err != nil {
			d.log.Error(nil, "mail.send.fail", err, map[string]any{"to": m.To, "subject": m.Subject})
			continue
		}
		d.log.Info(nil, "mail.sent", map[string]any{"to": m.To, "subject": m.Subject})
	}
	return nil
}

// Dispatch queues m without blocking. It reports whether m was accepted.
func (d *Dispatcher) Dispatch(m Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Error(nil, "mail.dispatch.drop", ErrClosed, map[string]any{"to": m.To})
		return false
	}
	select {
	case d.queue <- m:
		return true
	default:
		d.log.Error(nil, "mail.dispatch.drop", ErrQueueFull, map[string]any{"to": m.To, "subject": m.Subject})
		return false
	}
}

// Close stops accepting messages and waits for queued ones to be handed to
// the sender, or for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- d.g.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
