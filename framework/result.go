package framework

import (
	"fmt"
	"strings"
)

type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

type TestResult struct {
	TestID  TestID
	Errors  []error
	Skipped bool
	Points  int
	Awarded int
}

// Score is the number of points achieved out of the number of points available.
type Score struct {
	Awarded  int
	Possible int
}

func (s Score) Add(other Score) Score {
	return Score{Awarded: s.Awarded + other.Awarded, Possible: s.Possible + other.Possible}
}

func (s Score) String() string {
	return fmt.Sprintf("%d / %d", s.Awarded, s.Possible)
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Score adds up the points of every test whose path begins with the given prefix. An empty
// prefix selects all tests.
func (r Results) Score(prefix ...string) Score {
	var s Score
	for _, t := range r.Tests {
		if t.TestID.HasPrefix(prefix) {
			s.Awarded += t.Awarded
			s.Possible += t.Points
		}
	}
	return s
}

type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

func (t TestID) HasPrefix(prefix []string) bool {
	if len(prefix) > len(t.Path) {
		return false
	}
	for i, p := range prefix {
		if t.Path[i] != p {
			return false
		}
	}
	return true
}

type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}
