package proxytests

import (
	"context"
	"errors"

	"github.com/netlab-grading/proxy-contract-tests/compare"
	"github.com/netlab-grading/proxy-contract-tests/config"
	"github.com/netlab-grading/proxy-contract-tests/framework"
	"github.com/netlab-grading/proxy-contract-tests/supervisor"
	"github.com/netlab-grading/proxy-contract-tests/watchdog"
)

const (
	basicGroup    = "basic"
	extendedGroup = "extended"
)

// ExtendedSuite is an additional suite supplied by the caller, run between the basic and the
// extended suite. It is not part of the score. It receives the current proxy and must return
// the proxy that is current when it finishes, which differs if it had to restart it.
type ExtendedSuite interface {
	Name() string
	Run(ctx context.Context, sup *supervisor.Supervisor, proxy supervisor.Proxy) (passed, total int, current supervisor.Proxy)
}

// Harness is everything the suite needs besides the proxy itself.
type Harness struct {
	Supervisor *supervisor.Supervisor
	Watchdog   *watchdog.Watchdog
	Config     *config.Config
	Logger     framework.Logger
}

// DelegateResult is the outcome of an ExtendedSuite.
type DelegateResult struct {
	Name   string
	Passed int
	Total  int
}

// Report is the outcome of a full run.
type Report struct {
	Results  framework.Results
	Basic    framework.Score
	Extended framework.Score
	Delegate *DelegateResult

	// Maximum is the number of points available with the configuration that was used.
	Maximum int

	// Proxy is the last proxy handle that was current. RunTestSuite has already terminated it.
	Proxy supervisor.Proxy

	// Err is set if the run could not continue because a proxy could not be restarted.
	Err error
}

// MaxScore is the number of points available with the given configuration.
func MaxScore(cfg *config.Config) int {
	return cfg.Basic.Points*len(cfg.Basic.URLs) +
		missingHostPoints +
		methodPoints*len(rejectedMethods) +
		versionPoints +
		invalidHostPoints +
		mismatchedHostPoints +
		missingResourcePoints
}

func (r Report) Total() framework.Score {
	return r.Basic.Add(r.Extended)
}

// suiteRun is the state shared by all tests of one run. Only one test runs at a time, and
// proxy is only replaced between tests.
type suiteRun struct {
	ctx      context.Context
	harness  *Harness
	comparer compare.Comparer
	proxy    supervisor.Proxy
	fatal    error
}

// RunTestSuite runs the basic suite, then the optional delegate, then the extended suite, and
// finally terminates whatever proxy is current.
func RunTestSuite(
	ctx context.Context,
	harness *Harness,
	proxy supervisor.Proxy,
	filter framework.Filter,
	testLogger framework.TestLogger,
	delegate ExtendedSuite,
) Report {
	if harness.Logger == nil {
		harness.Logger = framework.NullLogger()
	}
	if harness.Config == nil {
		harness.Config = config.Default()
	}
	run := &suiteRun{
		ctx:      ctx,
		harness:  harness,
		comparer: compare.Comparer{VolatileHeaders: harness.Config.VolatileHeaders},
		proxy:    proxy,
	}

	var report Report
	report.Results = framework.Run(filter, testLogger, func(c *framework.Context) {
		t := &T{context: c, run: run, ctx: ctx}

		t.Run(basicGroup, DoBasicTests)

		if delegate != nil && run.fatal == nil {
			report.Delegate = run.runDelegate(delegate)
		}

		t.Run(extendedGroup, DoExtendedTests)
	})

	report.Basic = report.Results.Score(basicGroup)
	report.Extended = report.Results.Score(extendedGroup)
	report.Maximum = MaxScore(harness.Config)
	report.Err = run.fatal
	report.Proxy = run.proxy

	if harness.Supervisor.IsAlive(run.proxy) {
		if err := harness.Supervisor.Terminate(run.proxy); err != nil {
			harness.Logger.Printf("Could not terminate proxy (%s): %s", run.proxy, err)
		}
	}
	return report
}

// runDelegate runs the delegate under the watchdog, bound to the proxy that is current when it
// starts, so that a proxy hung by the delegate is killed rather than left for the next case.
func (r *suiteRun) runDelegate(delegate ExtendedSuite) *DelegateResult {
	sup := r.harness.Supervisor
	armedFor := r.proxy
	result := &DelegateResult{Name: delegate.Name()}
	current := armedFor

	err := r.harness.Watchdog.Guard(r.ctx,
		func() error { return sup.Terminate(armedFor) },
		func(ctx context.Context) error {
			result.Passed, result.Total, current = delegate.Run(ctx, sup, armedFor)
			return nil
		},
	)
	if errors.Is(err, watchdog.ErrDeadlineExceeded) {
		r.harness.Logger.Printf("%s timed out after %s", delegate.Name(), r.harness.Watchdog.Timeout())
	}
	r.proxy = current
	r.checkProxy(result.Passed < result.Total, func(format string, args ...interface{}) {
		r.harness.Logger.Printf(format, args...)
	})
	return result
}

// checkProxy probes the current proxy and restarts it if it has died. If the test that just
// ran failed, the proxy is first given the supervisor's settle window to finish exiting, since
// a crash can be visible to the test before the process is gone. It reports the death through
// fail, and reports whether the proxy had to be replaced.
func (r *suiteRun) checkProxy(failed bool, fail func(format string, args ...interface{})) bool {
	sup := r.harness.Supervisor
	if failed {
		sup.AwaitExit(r.proxy)
	}
	if sup.IsAlive(r.proxy) {
		return false
	}
	fail("proxy process (%s) terminated abnormally during test; restarting proxy", r.proxy)
	next, err := sup.Restart(r.ctx, r.proxy)
	if next.Valid() {
		r.proxy = next
	}
	if err != nil {
		r.fatal = err
		r.harness.Logger.Printf("Could not restart proxy: %s", err)
		return true
	}
	r.harness.Logger.Printf("Proxy restarted (%s)", next)
	return true
}
