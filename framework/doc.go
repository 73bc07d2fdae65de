// Package framework contains the low-level implementation of the grading harness
// infrastructure, independent of what kind of implementation is being graded.
//
// The general model is:
//
// 1. There is a notion of a test context which is similar to Go's *testing.T, allowing
// pieces of test logic to be associated with a test identifier and to accumulate
// success/failure results.
//
// 2. A test may carry a point value. The points are awarded only if the test finishes
// without failing, so a score can be computed from the results of a run.
//
// 3. Each test has its own debug logger, whose output can be shown by the TestLogger
// when the test finishes.
//
// The domain-specific code that knows what is being tested is responsible for the test
// cases themselves and for any domain-specific test API on top of the test context.
package framework
