package cargo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jakoblorz/candid-gen/internal/manifest"
	"github.com/jakoblorz/candid-gen/internal/shell"
)

// DefaultTargetDir is cargo's build directory relative to the workspace root
const DefaultTargetDir = "target"

var ErrBuildFailed = errors.New("cargo build failed")

// Layout describes where cargo places release artifacts
type Layout struct {
	Root      string
	TargetDir string
	Target    string
}

// Artifact returns the absolute path of the release wasm for a canister
func (l Layout) Artifact(c *manifest.Canister) string {
	dir := l.TargetDir
	if dir == "" {
		dir = DefaultTargetDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(l.Root, dir)
	}
	return filepath.Join(dir, l.Target, "release", c.CrateName()+".wasm")
}

// Builder compiles canister packages to wasm
type Builder struct {
	runner  shell.Runner
	command string
	layout  Layout
	logger  *log.Logger
}

// NewBuilder creates a new Builder. command is the cargo invocation prefix.
func NewBuilder(runner shell.Runner, command string, layout Layout, logger *log.Logger) *Builder {
	if command == "" {
		command = "cargo"
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{
		runner:  runner,
		command: command,
		layout:  layout,
		logger:  logger,
	}
}

// Layout returns the artifact layout the builder compiles into
func (b *Builder) Layout() Layout {
	return b.layout
}

// CommandLine returns the cargo command that builds the canister
func (b *Builder) CommandLine(c *manifest.Canister) (string, error) {
	args := []string{"build", "--release", "--target", b.layout.Target, "--package", c.Package}
	if dir := b.layout.TargetDir; dir != "" && dir != DefaultTargetDir {
		args = append(args, "--target-dir", dir)
	}
	return shell.Line(b.command, args...)
}

// Build runs cargo build for the canister's package in the project root
func (b *Builder) Build(ctx context.Context, c *manifest.Canister) error {
	line, err := b.CommandLine(c)
	if err != nil {
		return fmt.Errorf("%w: canister '%s': %v", ErrBuildFailed, c.Name, err)
	}

	b.logger.Debug("building canister", "canister", c.Name, "command", line)

	if _, err := b.runner.Run(ctx, shell.Command{Dir: b.layout.Root, Line: line}); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: failed to build the canister '%s': %s", ErrBuildFailed, c.Name, detail(err))
	}

	b.logger.Infof("canister '%s' built successfully", c.Name)
	return nil
}

func detail(err error) string {
	var cmdErr *shell.CommandError
	if errors.As(err, &cmdErr) {
		if stderr := strings.TrimSpace(cmdErr.Stderr); stderr != "" {
			return stderr
		}
	}
	return err.Error()
}
