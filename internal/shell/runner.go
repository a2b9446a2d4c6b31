package shell

import (
	"context"
	"fmt"
	"io"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Command is a shell command line run in a directory.
type Command struct {
	// Dir is the working directory; empty means the current directory.
	Dir string

	// Line is the command line, in POSIX shell syntax.
	Line string

	// Stdout, when set, receives the command's standard output instead of
	// it being captured and returned by Run.
	Stdout io.Writer
}

// Runner executes shell commands.
//
// Run returns the captured standard output on success. On a non-zero exit
// the error is a *CommandError carrying the captured standard error.
type Runner interface {
	Run(ctx context.Context, cmd Command) (string, error)
}

// CommandError describes a command that could not run or exited non-zero.
type CommandError struct {
	Line     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("`%s` exited with status %d", e.Line, e.ExitCode)
	if e.ExitCode == 0 && e.Err != nil {
		msg = fmt.Sprintf("`%s` failed: %v", e.Line, e.Err)
	}

	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		return msg + ": " + stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Line builds a command line from a program prefix and literal arguments.
//
// The prefix is used as-is so configured programs may carry their own
// arguments ("cargo +nightly"); every argument is shell-quoted.
func Line(prefix string, args ...string) (string, error) {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, strings.TrimSpace(prefix))

	for _, arg := range args {
		quoted, err := syntax.Quote(arg, syntax.LangPOSIX)
		if err != nil {
			return "", fmt.Errorf("cannot quote argument %q: %w", arg, err)
		}
		parts = append(parts, quoted)
	}

	return strings.Join(parts, " "), nil
}
