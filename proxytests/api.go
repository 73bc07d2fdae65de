package proxytests

import (
	"context"
	"errors"
	"fmt"

	"github.com/netlab-grading/proxy-contract-tests/config"
	"github.com/netlab-grading/proxy-contract-tests/exchange"
	"github.com/netlab-grading/proxy-contract-tests/framework"
	"github.com/netlab-grading/proxy-contract-tests/supervisor"

	"github.com/stretchr/testify/require"
)

// T represents a test or group of tests in the proxy suite.
//
// Like the SSE contract tests it grew out of, it implements the same basic functionality as
// Go's testing.T outside of the Go test runner, so the assert and require packages can be used
// with a *T. On top of that it knows about the proxy being graded: which proxy is current, how
// to talk to it, and how to run a scored case under the watchdog.
type T struct {
	context *framework.Context
	run     *suiteRun
	ctx     context.Context
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a test should fail and immediately exit. The methods in
// the require package call FailNow.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Debug logs some debug output for the test. The output will be passed to the test logger at
// the end of the test.
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

// Config returns the suite configuration.
func (t *T) Config() *config.Config {
	return t.run.harness.Config
}

// Proxy returns the proxy that is current for this test.
func (t *T) Proxy() supervisor.Proxy {
	return t.run.proxy
}

// Run runs an unscored group of tests. The group itself is not watched; only the cases inside it are.
func (t *T) Run(name string, action func(*T)) {
	t.context.Run(name, func(c *framework.Context) {
		action(&T{context: c, run: t.run, ctx: t.ctx})
	})
}

// Case runs one scored test case.
//
// The action runs under the watchdog, which is bound to the proxy that is current right now; if
// the deadline passes, that proxy is killed. Afterward, whether the action passed, failed, or
// timed out, the proxy is probed, and if it is dead the case fails and a new proxy is started.
func (t *T) Case(name string, points int, action func(*T)) {
	t.context.RunScored(name, points, func(c *framework.Context) {
		run := t.run
		if run.fatal != nil {
			c.SkipWithReason(fmt.Sprintf("no proxy is running: %s", run.fatal))
		}
		sup := run.harness.Supervisor
		armedFor := run.proxy

		defer func() { run.checkProxy(c.Failed(), c.Errorf) }()

		timeout := run.harness.Watchdog.Timeout()
		_ = run.harness.Watchdog.Guard(t.ctx,
			func() error { return sup.Terminate(armedFor) },
			func(ctx context.Context) error {
				// deferred so that it is reported even when the action bails out with FailNow
				defer func() {
					if errors.Is(ctx.Err(), context.DeadlineExceeded) {
						c.Errorf("proxy transaction timed out after %s", timeout)
					}
				}()
				action(&T{context: c, run: run, ctx: ctx})
				return nil
			},
		)
	})
}

// ExchangeWithProxy sends a literal request to the current proxy and returns its raw response.
func (t *T) ExchangeWithProxy(req exchange.Request) ([]byte, error) {
	p := t.run.proxy
	t.Debug("Sending to proxy at %s: %q", p.Addr(), req.String())
	data, err := exchange.Exchange(t.ctx, "localhost", p.Port, req.String())
	if err != nil {
		t.Debug("Exchange with proxy failed: %s", err)
		return data, err
	}
	t.Debug("Proxy responded with %d bytes", len(data))
	return data, nil
}

// ExchangeWithOrigin sends a literal request directly to the origin server.
func (t *T) ExchangeWithOrigin(origin exchange.Origin, req exchange.Request) ([]byte, error) {
	t.Debug("Sending to origin %s:%d: %q", origin.Host, origin.Port, req.String())
	return exchange.Exchange(t.ctx, origin.Host, origin.Port, req.String())
}

// RequireProxyResponse is like ExchangeWithProxy, but fails the test immediately on a socket error.
func (t *T) RequireProxyResponse(req exchange.Request) []byte {
	data, err := t.ExchangeWithProxy(req)
	if exchange.IsConnectionError(err) {
		require.Fail(t, "socket error while attempting to talk to proxy", "%s", err)
	}
	require.NoError(t, err)
	return data
}
