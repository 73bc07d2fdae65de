// Package compare decides whether a response fetched through the proxy matches the same
// response fetched directly from the origin.
package compare

import (
	"bytes"
	"fmt"
)

// DefaultVolatileHeader is the header expected to differ between two fetches of the same page.
const DefaultVolatileHeader = "Date"

// Mismatch is one pair of lines that differed.
type Mismatch struct {
	Index int
	A     []byte
	B     []byte
}

func (m Mismatch) String() string {
	return fmt.Sprintf("line %d: %q != %q", m.Index+1, m.A, m.B)
}

// Comparer compares two responses line by line.
//
// Lines are paired by index up to the length of the shorter response; extra trailing lines in
// the longer one are not looked at. A pair passes if the two lines are byte-equal, or if either
// line begins with one of the volatile header names. Nothing is normalized.
type Comparer struct {
	VolatileHeaders []string
}

// Default tolerates differences in the Date header only.
var Default = Comparer{VolatileHeaders: []string{DefaultVolatileHeader}}

// Lines is Default.Equal.
func Lines(a, b [][]byte) bool {
	return Default.Equal(a, b)
}

func (c Comparer) Equal(a, b [][]byte) bool {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if !c.pairMatches(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Mismatches returns every pair that Equal would reject, in order.
func (c Comparer) Mismatches(a, b [][]byte) []Mismatch {
	var ret []Mismatch
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if !c.pairMatches(a[i], b[i]) {
			ret = append(ret, Mismatch{Index: i, A: a[i], B: b[i]})
		}
	}
	return ret
}

func (c Comparer) pairMatches(a, b []byte) bool {
	return bytes.Equal(a, b) || c.isVolatile(a) || c.isVolatile(b)
}

func (c Comparer) isVolatile(line []byte) bool {
	for _, h := range c.VolatileHeaders {
		if bytes.HasPrefix(line, []byte(h)) {
			return true
		}
	}
	return false
}
