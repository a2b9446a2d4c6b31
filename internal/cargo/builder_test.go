package cargo

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/jakoblorz/candid-gen/internal/manifest"
	"github.com/jakoblorz/candid-gen/internal/shell"
	"github.com/stretchr/testify/require"
)

const wasmTarget = "wasm32-unknown-unknown"

func rustCanister(name, pkg string) *manifest.Canister {
	c := manifest.NewCanister(name)
	c.Package = pkg
	return c
}

func TestBuild_Success(t *testing.T) {
	runner := shell.NewMockRunner().OnPrefix("cargo build", shell.Response{})
	var logs bytes.Buffer
	b := NewBuilder(runner, "cargo", Layout{Root: "/project", Target: wasmTarget}, log.New(&logs))

	err := b.Build(context.Background(), rustCanister("backend", "backend"))
	require.NoError(t, err)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, "/project", calls[0].Dir)
	require.Equal(t, "cargo build --release --target wasm32-unknown-unknown --package backend", calls[0].Line)
	require.Contains(t, logs.String(), "canister 'backend' built successfully")
}

func TestBuild_NonexistentPackage(t *testing.T) {
	runner := shell.NewMockRunner().OnPrefix("cargo build", shell.Response{
		ExitCode: 101,
		Stderr:   "error: package ID specification `ghost` did not match any packages\n",
	})
	b := NewBuilder(runner, "cargo", Layout{Root: "/project", Target: wasmTarget}, log.New(io.Discard))

	err := b.Build(context.Background(), rustCanister("ghost", "ghost"))
	require.ErrorIs(t, err, ErrBuildFailed)
	require.Contains(t, err.Error(), "failed to build the canister 'ghost'")
	require.Contains(t, err.Error(), "did not match any packages")
}

func TestBuild_CancelledContext(t *testing.T) {
	runner := shell.NewMockRunner().OnPrefix("cargo build", shell.Response{})
	b := NewBuilder(runner, "cargo", Layout{Root: "/project", Target: wasmTarget}, log.New(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Build(ctx, rustCanister("backend", "backend"))
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, ErrBuildFailed)
}

func TestCommandLine(t *testing.T) {
	tests := []struct {
		name    string
		command string
		layout  Layout
		pkg     string
		want    string
	}{
		{
			name:    "defaults",
			command: "cargo",
			layout:  Layout{Root: "/p", Target: wasmTarget},
			pkg:     "backend",
			want:    "cargo build --release --target wasm32-unknown-unknown --package backend",
		},
		{
			name:    "toolchain override",
			command: "cargo +nightly",
			layout:  Layout{Root: "/p", Target: wasmTarget, TargetDir: DefaultTargetDir},
			pkg:     "my-backend",
			want:    "cargo +nightly build --release --target wasm32-unknown-unknown --package my-backend",
		},
		{
			name:    "custom target dir",
			command: "cargo",
			layout:  Layout{Root: "/p", Target: wasmTarget, TargetDir: "/tmp/cargo out"},
			pkg:     "backend",
			want:    "cargo build --release --target wasm32-unknown-unknown --package backend --target-dir '/tmp/cargo out'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(shell.NewMockRunner(), tt.command, tt.layout, log.New(io.Discard))
			line, err := b.CommandLine(rustCanister("x", tt.pkg))
			require.NoError(t, err)
			require.Equal(t, tt.want, line)
		})
	}
}

func TestLayout_Artifact(t *testing.T) {
	c := rustCanister("backend", "my-backend")

	require.Equal(t,
		"/project/target/wasm32-unknown-unknown/release/my_backend.wasm",
		Layout{Root: "/project", Target: wasmTarget}.Artifact(c))

	require.Equal(t,
		"/project/build/wasm32-unknown-unknown/release/my_backend.wasm",
		Layout{Root: "/project", TargetDir: "build", Target: wasmTarget}.Artifact(c))

	require.Equal(t,
		"/cache/wasm32-unknown-unknown/release/my_backend.wasm",
		Layout{Root: "/project", TargetDir: "/cache", Target: wasmTarget}.Artifact(c))
}
