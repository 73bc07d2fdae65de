package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/netlab-grading/proxy-contract-tests/framework"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const (
	minRandomPort = 1025
	maxRandomPort = 49151
)

type commandParams struct {
	binaryPath     string
	port           ldvalue.OptionalInt
	configFile     string
	timeout        time.Duration
	grace          time.Duration
	startupDelay   time.Duration
	restartDelay   time.Duration
	settle         time.Duration
	filters        framework.RegexFilters
	concurrency    int
	concurrencyURL string
	quietProxy     bool
	noColor        bool
	debug          bool
	debugAll       bool

	// names of the flags that were given explicitly, so they can override the config file
	explicit map[string]bool
}

func (c *commandParams) Read(args []string, errOut io.Writer) bool {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() {
		fmt.Fprintf(errOut, "Usage: %s [options] path/to/proxy/binary [port]\n", args[0])
		fmt.Fprintln(errOut, "Omit the port argument for a randomly generated port.")
		fmt.Fprintln(errOut)
		fs.PrintDefaults()
	}
	fs.StringVar(&c.configFile, "config", "", "YAML file describing the suite")
	fs.DurationVar(&c.timeout, "timeout", 30*time.Second, "how long a test may take before the proxy is killed")
	fs.DurationVar(&c.grace, "grace", 500*time.Millisecond, "time between SIGINT and SIGKILL when stopping the proxy")
	fs.DurationVar(&c.startupDelay, "startup-delay", 2*time.Second, "time to wait after starting the proxy")
	fs.DurationVar(&c.restartDelay, "restart-delay", 3*time.Second, "time to wait after restarting the proxy")
	fs.DurationVar(&c.settle, "settle", time.Second, "how long to let a proxy finish exiting after a failed test before probing it")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.IntVar(&c.concurrency, "concurrency", 0, "if nonzero, also send this many simultaneous requests through the proxy")
	fs.StringVar(&c.concurrencyURL, "concurrency-url", "", "URL for the concurrency test (default: first basic URL)")
	fs.BoolVar(&c.quietProxy, "quiet-proxy", false, "discard the proxy's own output")
	fs.BoolVar(&c.noColor, "no-color", false, "disable colored output")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")

	if err := fs.Parse(args[1:]); err != nil {
		return false
	}

	c.explicit = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { c.explicit[f.Name] = true })

	positional := fs.Args()
	if len(positional) < 1 || len(positional) > 2 {
		fs.Usage()
		return false
	}
	c.binaryPath = positional[0]
	if len(positional) == 2 {
		port, err := strconv.Atoi(positional[1])
		if err != nil || port <= 0 || port > 65535 {
			fmt.Fprintf(errOut, "Invalid port: %s\n", positional[1])
			return false
		}
		c.port = ldvalue.NewOptionalInt(port)
	}
	if c.concurrency < 0 {
		fmt.Fprintln(errOut, "-concurrency must not be negative")
		return false
	}
	return true
}
