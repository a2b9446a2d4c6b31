package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// InterpRunner runs command lines through an embedded POSIX shell
// interpreter. External programs are resolved on PATH and executed as
// child processes.
type InterpRunner struct {
	// Env is the process environment; nil inherits os.Environ.
	Env []string

	// Timeout bounds each command; zero means no limit.
	Timeout time.Duration

	// Stderr, when set, also receives each command's standard error as it
	// is produced.
	Stderr io.Writer
}

// NewInterpRunner creates a runner that inherits the current environment
func NewInterpRunner() *InterpRunner {
	return &InterpRunner{}
}

func (r *InterpRunner) Run(ctx context.Context, cmd Command) (string, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(cmd.Line), "")
	if err != nil {
		return "", &CommandError{Line: cmd.Line, Err: fmt.Errorf("failed to parse command: %w", err)}
	}

	env := r.Env
	if env == nil {
		env = os.Environ()
	}

	var stdout, stderr bytes.Buffer
	var out io.Writer = &stdout
	if cmd.Stdout != nil {
		out = cmd.Stdout
	}
	var errOut io.Writer = &stderr
	if r.Stderr != nil {
		errOut = io.MultiWriter(&stderr, r.Stderr)
	}

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, out, errOut),
	}
	if cmd.Dir != "" {
		opts = append(opts, interp.Dir(cmd.Dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return "", &CommandError{Line: cmd.Line, Err: fmt.Errorf("failed to create interpreter: %w", err)}
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return "", &CommandError{Line: cmd.Line, Err: err}
	}

	if err := runner.Run(ctx, prog); err != nil {
		cmdErr := &CommandError{Line: cmd.Line, Stderr: stderr.String(), Err: err}

		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			cmdErr.ExitCode = int(exitStatus)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			cmdErr.Err = ctxErr
		}
		return stdout.String(), cmdErr
	}

	return stdout.String(), nil
}
