package mail

import (
	"context"
	"errors"
	"sync"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

var ErrDispatcherClosed = errors.New("mail dispatcher is closed")

// Result is the outcome of one dispatched message.
type Result struct {
	MessageID string
	Err       error
}

// Dispatcher sends messages in the background. Callers get a future they are
// free to ignore; every outcome is logged here. Nothing is retried.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration

	base   context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(sender Sender, timeout time.Duration) *Dispatcher {
	base, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		sender:  sender,
		timeout: timeout,
		base:    base,
		cancel:  cancel,
	}
}

// Dispatch starts sending msg and returns immediately. The returned channel
// receives exactly one Result and is then closed.
func (d *Dispatcher) Dispatch(msg Message) <-chan Result {
	out := make(chan Result, 1)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		fiberlog.Errorf("Error sending email %s: %v", msg.ID, ErrDispatcherClosed)
		out <- Result{MessageID: msg.ID, Err: ErrDispatcherClosed}
		close(out)
		return out
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer close(out)

		ctx := d.base
		if d.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(d.base, d.timeout)
			defer cancel()
		}

		err := d.sender.Send(ctx, msg)
		if err != nil {
			fiberlog.Errorf("Error sending email %s to %s: %v", msg.ID, msg.To, err)
		} else {
			fiberlog.Infof("Email sent: %s to %s", msg.ID, msg.To)
		}
		out <- Result{MessageID: msg.ID, Err: err}
	}()
	return out
}

// Close refuses new messages and waits for in-flight sends. When ctx expires
// first, pending sends are cancelled and ctx.Err() is returned.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	}
}
