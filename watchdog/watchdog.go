// Package watchdog races a single blocking operation against a deadline, and runs an expiry
// action (in practice, killing the proxy process) if the deadline wins.
package watchdog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/netlab-grading/proxy-contract-tests/framework"
)

const DefaultTimeout = 30 * time.Second

// ErrDeadlineExceeded is returned by Guard when the operation did not finish in time.
var ErrDeadlineExceeded = errors.New("operation timed out")

// Watchdog guards one operation at a time. Calls to Guard are serialized, so a watchdog is
// never armed while the previous one might still fire.
type Watchdog struct {
	timeout time.Duration
	logger  framework.Logger
	lock    sync.Mutex
}

func New(timeout time.Duration, logger framework.Logger) *Watchdog {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Watchdog{timeout: timeout, logger: logger}
}

func (w *Watchdog) Timeout() time.Duration {
	return w.timeout
}

// Guard runs action under a context that expires after the watchdog's timeout. If action has
// not returned by then, expire is called once, from another goroutine, while action is still
// blocked; the caller is expected to bind expire to whatever resource was current when Guard
// was called, so that it cannot affect a later operation.
//
// If action returns before the deadline, expire is never called. Guard does not return until
// the timer goroutine has finished, so the expiry action has always completed by then.
//
// The result is ErrDeadlineExceeded if the deadline fired, otherwise whatever action returned.
// If action panics, the watchdog is still disarmed before the panic continues.
func (w *Watchdog) Guard(
	ctx context.Context,
	expire func() error,
	action func(context.Context) error,
) (err error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	deadline := time.Now().Add(w.timeout)
	opCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	var finishedAt atomic.Int64
	var fired atomic.Bool
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		select {
		case <-done:
			return
		case <-opCtx.Done():
		}
		if !errors.Is(opCtx.Err(), context.DeadlineExceeded) {
			return
		}
		if t := finishedAt.Load(); t != 0 && t < deadline.UnixNano() {
			return
		}
		fired.Store(true)
		w.logger.Printf("Operation timed out after %s", w.timeout)
		if expire != nil {
			if err := expire(); err != nil {
				w.logger.Printf("Expiry action failed: %s", err)
			}
		}
	}()

	defer func() {
		finishedAt.Store(time.Now().UnixNano())
		close(done)
		cancel()
		<-stopped
		if fired.Load() {
			err = ErrDeadlineExceeded
		}
	}()

	return action(opCtx)
}
