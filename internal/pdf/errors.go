package pdf

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoPages reports a document with zero pages; there is nothing to
// rasterize.
var ErrNoPages = errors.New("document has no pages")

// CompileError carries the captured tool output of a failed compile
// run. The output goes to logs only; clients get a generic message.
type CompileError struct {
	Output string
	Err    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("latex compile failed: %v", e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Tail returns the last n lines of the engine output. Full pdflatex
// logs run to hundreds of lines; the failure is at the end.
func (e *CompileError) Tail(n int) string {
	lines := strings.Split(strings.TrimRight(e.Output, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
