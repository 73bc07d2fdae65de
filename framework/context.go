package framework

import (
	"errors"
	"fmt"
	"runtime/debug"
)

type environment struct {
	results    Results
	testLogger TestLogger
	filter     Filter
}

// Context is the state of a single test or group of tests.
type Context struct {
	env         *environment
	id          TestID
	points      int
	debugLogger CapturingLogger
	failed      bool
	skipped     bool
	skipReason  string
	errors      []error
}

// Run executes the root action and returns the results of every test that was run inside it.
func Run(
	filter Filter,
	testLogger TestLogger,
	action func(*Context),
) Results {
	if testLogger == nil {
		testLogger = nullTestLogger{}
	}
	env := &environment{
		filter:     filter,
		testLogger: testLogger,
	}
	c := &Context{env: env}
	c.run(action)
	return env.results
}

func (c *Context) run(action func(*Context)) {
	defer func() {
		if r := recover(); r != nil {
			if !c.skipped {
				c.failed = true
				var addError error
				if _, ok := r.(*Context); ok {
					if len(c.errors) == 0 {
						addError = errors.New("test failed with no failure message")
					}
				} else {
					addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
				}
				if addError != nil {
					c.errors = append(c.errors, addError)
					c.env.testLogger.TestError(c.id, addError)
				}
			}
		}
		if len(c.id.Path) == 0 {
			return
		}
		result := TestResult{
			TestID:  c.id,
			Errors:  c.errors,
			Skipped: c.skipped,
			Points:  c.points,
		}
		if !c.failed && !c.skipped {
			result.Awarded = c.points
		}
		c.env.results.Tests = append(c.env.results.Tests, result)
		if c.failed {
			c.env.results.Failures = append(c.env.results.Failures, result)
		}
	}()

	action(c)
}

func (c *Context) ID() TestID {
	return c.id
}

// Points returns the point value of this test, or zero if it is not scored.
func (c *Context) Points() int {
	return c.points
}

// Failed reports whether the test has been marked as failed so far.
func (c *Context) Failed() bool {
	return c.failed
}

// Run runs a group of subtests. Groups are not subject to the filter; the filter is only
// applied to the scored tests inside them.
func (c *Context) Run(name string, action func(*Context)) {
	c.runChild(name, 0, false, action)
}

// RunScored runs a subtest that is worth the specified number of points if it passes. If the
// filter excludes it, it is recorded as skipped and its points count as not achieved.
func (c *Context) RunScored(name string, points int, action func(*Context)) {
	c.runChild(name, points, true, action)
}

func (c *Context) runChild(name string, points int, filtered bool, action func(*Context)) {
	id := TestID{Path: append(append([]string(nil), c.id.Path...), name)}

	c.env.testLogger.TestStarted(id)
	if filtered && c.env.filter != nil && !c.env.filter(id) {
		c.env.testLogger.TestSkipped(id, "excluded by filter parameters")
		c.env.results.Tests = append(c.env.results.Tests, TestResult{TestID: id, Skipped: true, Points: points})
		return
	}
	c1 := &Context{
		id:     id,
		env:    c.env,
		points: points,
	}
	c1.run(action)
	if c1.skipped {
		c.env.testLogger.TestSkipped(id, c1.skipReason)
	} else {
		c.env.testLogger.TestFinished(id, c1.failed, c1.points, c1.debugLogger.Output())
	}
}

// Errorf marks the test as failed and records an error message, without stopping the test.
func (c *Context) Errorf(format string, args ...interface{}) {
	c.failed = true
	err := fmt.Errorf(format, args...)
	c.errors = append(c.errors, err)
	c.env.testLogger.TestError(c.id, err)
}

// FailNow stops the test immediately. It is only valid on the goroutine that is running the test.
func (c *Context) FailNow() {
	c.failed = true
	panic(c)
}

func (c *Context) Skip() {
	c.skipped = true
	panic(c)
}

func (c *Context) SkipWithReason(reason string) {
	c.skipReason = reason
	c.Skip()
}

func (c *Context) Debug(message string, args ...interface{}) {
	c.debugLogger.Printf(message, args...)
}

func (c *Context) DebugLogger() Logger {
	return &c.debugLogger
}
