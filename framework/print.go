package framework

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// PrintResults writes a summary of any failed tests.
func PrintResults(out io.Writer, results Results) {
	if results.OK() {
		color.New(color.FgGreen).Fprintln(out, "All tests passed")
		return
	}
	color.New(color.FgRed).Fprintf(out, "FAILED TESTS (%d):\n", len(results.Failures))
	for _, f := range results.Failures {
		fmt.Fprintf(out, "  * %s\n", f.TestID)
		for _, err := range f.Errors {
			fmt.Fprintf(out, "    %s\n", err)
		}
	}
}
