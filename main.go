package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"

	"github.com/netlab-grading/proxy-contract-tests/config"
	"github.com/netlab-grading/proxy-contract-tests/framework"
	"github.com/netlab-grading/proxy-contract-tests/proxytests"
	"github.com/netlab-grading/proxy-contract-tests/supervisor"
	"github.com/netlab-grading/proxy-contract-tests/watchdog"

	"github.com/fatih/color"
)

func main() {
	var params commandParams
	if !params.Read(os.Args, os.Stderr) {
		os.Exit(2)
	}
	if params.noColor {
		color.NoColor = true
	}

	cfg := config.Default()
	if params.configFile != "" {
		loaded, err := config.Load(params.configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not load %s: %s\n", params.configFile, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	timings := resolveTimings(cfg, params)

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	var proxyOutput io.Writer = os.Stdout
	if params.quietProxy {
		proxyOutput = nil
	}
	sup := supervisor.New(supervisor.Config{
		BinaryPath:   params.binaryPath,
		GracePeriod:  timings.Grace,
		StartupDelay: timings.Startup,
		RestartDelay: timings.Restart,
		SettleWindow: params.settle,
		Stdout:       proxyOutput,
		Stderr:       proxyOutput,
		Logger:       framework.PrefixedLogger("supervisor", mainDebugLogger),
	})

	port := params.port.OrElse(randomPort())
	fmt.Printf("Binary: %s\n", params.binaryPath)
	fmt.Printf("Running on port %d\n", port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	proxy, err := sup.Start(ctx, port)
	if err != nil {
		if proxy.Valid() && sup.IsAlive(proxy) {
			_ = sup.Terminate(proxy)
		}
		fmt.Fprintf(os.Stderr, "Could not start proxy: %s\n", err)
		os.Exit(1)
	}

	fmt.Println()
	framework.PrintFilterDescription(params.filters)

	var delegate proxytests.ExtendedSuite
	if params.concurrency > 0 {
		url := params.concurrencyURL
		if url == "" {
			url = cfg.Basic.URLs[0]
		}
		delegate = proxytests.ConcurrencySuite{
			Clients: params.concurrency,
			URL:     url,
			Timeout: timings.Test,
			Logger:  framework.PrefixedLogger("concurrency", mainDebugLogger),
		}
	}

	testLogger := &ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}
	harness := &proxytests.Harness{
		Supervisor: sup,
		Watchdog:   watchdog.New(timings.Test, framework.PrefixedLogger("watchdog", mainDebugLogger)),
		Config:     cfg,
		Logger:     mainDebugLogger,
	}

	report := proxytests.RunTestSuite(ctx, harness, proxy, params.filters.AsFilter, testLogger, delegate)

	fmt.Println()
	framework.PrintResults(os.Stdout, report.Results)
	fmt.Println()
	printScore(report)

	if report.Err != nil {
		fmt.Fprintf(os.Stderr, "Test run aborted: %s\n", report.Err)
		os.Exit(1)
	}
}

func printScore(report proxytests.Report) {
	fmt.Printf("Basic Score:\t%d / %d\n", report.Basic.Awarded, report.Basic.Possible)
	fmt.Printf("Extended Score:\t%d / %d\n", report.Extended.Awarded, report.Extended.Possible)
	color.New(color.Bold).Printf("Total Score:\t%d / %d\n", report.Total().Awarded, report.Maximum)
	if d := report.Delegate; d != nil {
		fmt.Printf("%d of %d %s tests passed\n", d.Passed, d.Total, d.Name)
	}
}

func resolveTimings(cfg *config.Config, params commandParams) config.Timings {
	timings := cfg.Timings()
	if params.configFile == "" || params.explicit["timeout"] {
		timings.Test = params.timeout
	}
	if params.configFile == "" || params.explicit["grace"] {
		timings.Grace = params.grace
	}
	if params.configFile == "" || params.explicit["startup-delay"] {
		timings.Startup = params.startupDelay
	}
	if params.configFile == "" || params.explicit["restart-delay"] {
		timings.Restart = params.restartDelay
	}
	return timings
}

func randomPort() int {
	return minRandomPort + rand.Intn(maxRandomPort-minRandomPort+1)
}
