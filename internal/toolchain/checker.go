package toolchain

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jakoblorz/candid-gen/internal/shell"
	"golang.org/x/mod/semver"
)

// DefaultTarget is the rust target canisters are compiled for
const DefaultTarget = "wasm32-unknown-unknown"

var (
	ErrMissingTool   = errors.New("required tool is not available")
	ErrMissingTarget = errors.New("rust target is not installed")
	ErrOutdatedTool  = errors.New("tool version is too old")
)

var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?`)

// Tools holds the command prefixes used to invoke each external tool
type Tools struct {
	Rustup    string
	Cargo     string
	Extractor string
}

// DefaultTools returns the plain tool names resolved on PATH
func DefaultTools() Tools {
	return Tools{
		Rustup:    "rustup",
		Cargo:     "cargo",
		Extractor: "candid-extractor",
	}
}

// ToolError reports a tool that could not be run
type ToolError struct {
	Tool   string
	Detail string
	Err    error
}

func (e *ToolError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s command is not available", e.Tool)
	}
	return fmt.Sprintf("%s command is not available: %s", e.Tool, e.Detail)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

func (e *ToolError) Is(target error) bool {
	return target == ErrMissingTool
}

// Tool is a detected tool and its reported version
type Tool struct {
	Name    string
	Command string
	Version string
}

// Report is the outcome of a successful check
type Report struct {
	Tools  []Tool
	Target string
}

// Version returns the detected version of the named tool
func (r *Report) Version(name string) string {
	for _, t := range r.Tools {
		if t.Name == name {
			return t.Version
		}
	}
	return ""
}

// Checker verifies that the rust toolchain and candid-extractor are installed
type Checker struct {
	runner              shell.Runner
	tools               Tools
	target              string
	minExtractorVersion string
	logger              *log.Logger
}

// NewChecker creates a new Checker
func NewChecker(runner shell.Runner, tools Tools, target string, logger *log.Logger) *Checker {
	if target == "" {
		target = DefaultTarget
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Checker{
		runner: runner,
		tools:  tools,
		target: target,
		logger: logger,
	}
}

// RequireExtractorVersion makes Check fail when candid-extractor reports a
// version older than min
func (c *Checker) RequireExtractorVersion(min string) *Checker {
	c.minExtractorVersion = strings.TrimSpace(min)
	return c
}

// Check runs each tool's --version and then verifies the target is installed
func (c *Checker) Check(ctx context.Context) (*Report, error) {
	report := &Report{Target: c.target}

	probes := []struct {
		name    string
		command string
	}{
		{"rustup", c.tools.Rustup},
		{"cargo", c.tools.Cargo},
		{"candid-extractor", c.tools.Extractor},
	}

	for _, probe := range probes {
		tool, err := c.probe(ctx, probe.name, probe.command)
		if err != nil {
			return nil, err
		}
		report.Tools = append(report.Tools, tool)
	}

	if err := c.checkExtractorVersion(report.Version("candid-extractor")); err != nil {
		return nil, err
	}

	if err := c.checkTarget(ctx); err != nil {
		return nil, err
	}

	return report, nil
}

func (c *Checker) probe(ctx context.Context, name, command string) (Tool, error) {
	line, err := shell.Line(command, "--version")
	if err != nil {
		return Tool{}, &ToolError{Tool: name, Detail: err.Error(), Err: err}
	}

	out, err := c.runner.Run(ctx, shell.Command{Line: line})
	if err != nil {
		if ctx.Err() != nil {
			return Tool{}, ctx.Err()
		}
		return Tool{}, &ToolError{Tool: name, Detail: errorDetail(err), Err: err}
	}

	tool := Tool{
		Name:    name,
		Command: command,
		Version: ParseVersion(out),
	}
	c.logger.Debug("found tool", "tool", name, "version", tool.Version)
	return tool, nil
}

func (c *Checker) checkExtractorVersion(found string) error {
	if c.minExtractorVersion == "" {
		return nil
	}

	min := canonical(c.minExtractorVersion)
	if !semver.IsValid(min) {
		return fmt.Errorf("invalid minimum candid-extractor version %q", c.minExtractorVersion)
	}

	have := canonical(found)
	if !semver.IsValid(have) {
		return fmt.Errorf("%w: cannot determine candid-extractor version (need %s)", ErrOutdatedTool, min)
	}

	if semver.Compare(have, min) < 0 {
		return fmt.Errorf("%w: candid-extractor %s is older than the required %s", ErrOutdatedTool, have, min)
	}
	return nil
}

func (c *Checker) checkTarget(ctx context.Context) error {
	line, err := shell.Line(c.tools.Rustup, "target", "list", "--installed")
	if err != nil {
		return err
	}

	out, err := c.runner.Run(ctx, shell.Command{Line: line})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to list installed rust targets: %w", err)
	}

	for _, installed := range strings.Fields(out) {
		if installed == c.target {
			return nil
		}
	}

	return fmt.Errorf("%w: rustup doesn't have the target %s installed", ErrMissingTarget, c.target)
}

// ParseVersion returns the first semver-looking token in a --version output,
// or an empty string when there is none
func ParseVersion(output string) string {
	return versionPattern.FindString(output)
}

func canonical(version string) string {
	if version == "" {
		return ""
	}
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	return semver.Canonical(version)
}

func errorDetail(err error) string {
	var cmdErr *shell.CommandError
	if errors.As(err, &cmdErr) {
		if stderr := strings.TrimSpace(cmdErr.Stderr); stderr != "" {
			return stderr
		}
	}
	return err.Error()
}
