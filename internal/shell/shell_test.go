package shell

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInterpRunner_CapturesStdout(t *testing.T) {
	r := NewInterpRunner()

	out, err := r.Run(context.Background(), Command{Line: "echo hello"})
	require.NoError(t, err)
	require.Equal(t, "hello\n", out)
}

func TestInterpRunner_StreamsStdout(t *testing.T) {
	r := NewInterpRunner()
	var buf bytes.Buffer

	out, err := r.Run(context.Background(), Command{Line: "echo streamed", Stdout: &buf})
	require.NoError(t, err)
	require.Empty(t, out)
	require.Equal(t, "streamed\n", buf.String())
}

func TestInterpRunner_ExitStatus(t *testing.T) {
	r := NewInterpRunner()

	_, err := r.Run(context.Background(), Command{Line: "echo boom >&2; exit 3"})
	require.Error(t, err)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	require.Equal(t, 3, cmdErr.ExitCode)
	require.Equal(t, "boom\n", cmdErr.Stderr)
	require.Contains(t, err.Error(), "exited with status 3: boom")
}

func TestInterpRunner_TeesStderr(t *testing.T) {
	var live bytes.Buffer
	r := &InterpRunner{Stderr: &live}

	_, err := r.Run(context.Background(), Command{Line: "echo warn >&2"})
	require.NoError(t, err)
	require.Equal(t, "warn\n", live.String())
}

func TestInterpRunner_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	r := NewInterpRunner()

	out, err := r.Run(context.Background(), Command{Dir: dir, Line: "pwd"})
	require.NoError(t, err)
	require.Equal(t, dir+"\n", out)
}

func TestInterpRunner_Environment(t *testing.T) {
	r := &InterpRunner{Env: []string{"CANDID_TEST=42"}}

	out, err := r.Run(context.Background(), Command{Line: "echo $CANDID_TEST"})
	require.NoError(t, err)
	require.Equal(t, "42\n", out)
}

func TestInterpRunner_ParseError(t *testing.T) {
	r := NewInterpRunner()

	_, err := r.Run(context.Background(), Command{Line: "echo 'unterminated"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse command")
}

func TestInterpRunner_CancelledContext(t *testing.T) {
	r := &InterpRunner{Timeout: 50 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, Command{Line: "echo never"})
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLine_QuotesArguments(t *testing.T) {
	line, err := Line("cargo", "build", "--package", "my pkg", "it's")
	require.NoError(t, err)
	require.Equal(t, `cargo build --package 'my pkg' "it's"`, line)
}

func TestLine_KeepsPrefixVerbatim(t *testing.T) {
	line, err := Line("  cargo +nightly ", "--version")
	require.NoError(t, err)
	require.Equal(t, "cargo +nightly --version", line)
}

func TestLine_RoundTripsThroughInterpreter(t *testing.T) {
	line, err := Line("echo", "a b", "$HOME", "x;y")
	require.NoError(t, err)

	out, err := NewInterpRunner().Run(context.Background(), Command{Line: line})
	require.NoError(t, err)
	require.Equal(t, "a b $HOME x;y\n", out)
}

func TestMockRunner_ScriptedResponses(t *testing.T) {
	m := NewMockRunner().
		On("cargo --version", Response{Stdout: "cargo 1.80.0\n"}).
		OnPrefix("cargo build", Response{ExitCode: 101, Stderr: "error: package not found"})

	out, err := m.Run(context.Background(), Command{Line: "cargo --version"})
	require.NoError(t, err)
	require.Equal(t, "cargo 1.80.0\n", out)

	_, err = m.Run(context.Background(), Command{Line: "cargo build --package x"})
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	require.Equal(t, 101, cmdErr.ExitCode)

	require.Equal(t, []string{"cargo --version", "cargo build --package x"}, m.Lines())
}

func TestMockRunner_UnknownCommand(t *testing.T) {
	m := NewMockRunner()

	_, err := m.Run(context.Background(), Command{Line: "rustup --version"})
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	require.Equal(t, 127, cmdErr.ExitCode)
	require.Contains(t, cmdErr.Stderr, "rustup: command not found")
}

func TestMockRunner_SideEffectAndStream(t *testing.T) {
	ran := false
	m := NewMockRunner().On("gen", Response{
		Stdout: "service : {}\n",
		Run: func(cmd Command) error {
			ran = true
			return nil
		},
	})

	var buf bytes.Buffer
	out, err := m.Run(context.Background(), Command{Line: "gen", Stdout: &buf})
	require.NoError(t, err)
	require.True(t, ran)
	require.Empty(t, out)
	require.Equal(t, "service : {}\n", buf.String())
}
