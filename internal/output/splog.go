// Package output handles user-facing terminal output: message levels on the
// Splog type and colored change formatting. Color is disabled automatically
// when stdout is not a terminal.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Splog provides leveled user-facing output
type Splog struct {
	out io.Writer
	err io.Writer
}

// NewSplog creates a Splog writing to stdout/stderr
func NewSplog() *Splog {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
	return &Splog{out: os.Stdout, err: os.Stderr}
}

// NewSplogWriter creates a Splog writing to the given writers (for tests)
func NewSplogWriter(out, err io.Writer) *Splog {
	return &Splog{out: out, err: err}
}

// Info writes an informational message
func (s *Splog) Info(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format+"\n", args...)
}

// Newline writes a blank line
func (s *Splog) Newline() {
	fmt.Fprintln(s.out)
}

// Warn writes a warning message to stderr
func (s *Splog) Warn(format string, args ...interface{}) {
	fmt.Fprintf(s.err, "%s %s\n", color.YellowString("warning:"), fmt.Sprintf(format, args...))
}

// Error writes an error message to stderr
func (s *Splog) Error(format string, args ...interface{}) {
	fmt.Fprintf(s.err, "%s %s\n", color.RedString("error:"), fmt.Sprintf(format, args...))
}
