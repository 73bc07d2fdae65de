package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/netlab-grading/proxy-contract-tests/framework"

	"github.com/fatih/color"
)

var groupTitles = map[string]string{
	"basic":    "Basic Functionality Test",
	"extended": "Extended Functionality Test",
}

var (
	passedColor = color.New(color.FgGreen)
	failedColor = color.New(color.FgRed)
)

type ConsoleTestLogger struct {
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool

	runningTotal int
}

func (c *ConsoleTestLogger) TestStarted(id framework.TestID) {
	if len(id.Path) == 1 {
		title := groupTitles[id.Path[0]]
		if title == "" {
			title = id.Path[0]
		}
		fmt.Println("#############################")
		fmt.Println(title)
		fmt.Println("#############################")
		fmt.Println()
		return
	}
	fmt.Printf("### Testing: %s\n", id.Path[len(id.Path)-1])
}

func (c *ConsoleTestLogger) TestError(id framework.TestID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		fmt.Printf("  %s\n", line)
	}
}

func (c *ConsoleTestLogger) TestFinished(id framework.TestID, failed bool, points int, debugOutput framework.CapturedOutput) {
	if points > 0 {
		name := id.Path[len(id.Path)-1]
		if failed {
			failedColor.Printf("%s: [FAILED] (0/%d points)\n", name, points)
		} else {
			c.runningTotal += points
			passedColor.Printf("%s: [PASSED] (%d/%d points)\n", name, points, points)
		}
		fmt.Printf("Running total: %d\n", c.runningTotal)
	} else if failed {
		failedColor.Printf("  FAILED: %s\n", id)
	}
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		debugOutput.Dump(os.Stdout, "    DEBUG ")
	}
	if points > 0 {
		fmt.Println()
	}
}

func (c *ConsoleTestLogger) TestSkipped(id framework.TestID, reason string) {
	if reason == "" {
		fmt.Printf("  SKIPPED: %s\n", id)
	} else {
		fmt.Printf("  SKIPPED: %s (%s)\n", id, reason)
	}
}
