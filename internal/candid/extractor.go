package candid

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jakoblorz/candid-gen/internal/cargo"
	"github.com/jakoblorz/candid-gen/internal/filesystem"
	"github.com/jakoblorz/candid-gen/internal/manifest"
	"github.com/jakoblorz/candid-gen/internal/project"
	"github.com/jakoblorz/candid-gen/internal/shell"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	ErrArtifactMissing  = errors.New("canister wasm file does not exist")
	ErrExtractionFailed = errors.New("candid extraction failed")
)

const tempAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Extractor generates candid files from built canister wasm
type Extractor struct {
	fs      filesystem.FileSystem
	runner  shell.Runner
	command string
	layout  cargo.Layout
	ignore  *project.IgnoreChecker
	logger  *log.Logger
}

// NewExtractor creates a new Extractor. command is the candid-extractor
// invocation prefix.
func NewExtractor(fs filesystem.FileSystem, runner shell.Runner, command string, layout cargo.Layout, logger *log.Logger) *Extractor {
	if command == "" {
		command = "candid-extractor"
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Extractor{
		fs:      fs,
		runner:  runner,
		command: command,
		layout:  layout,
		logger:  logger,
	}
}

// WithIgnoreChecker enables a warning for candid files excluded by .gitignore
func (e *Extractor) WithIgnoreChecker(ignore *project.IgnoreChecker) *Extractor {
	e.ignore = ignore
	return e
}

// CommandLine returns the extractor command for the canister's artifact
func (e *Extractor) CommandLine(c *manifest.Canister) (string, error) {
	return shell.Line(e.command, e.layout.Artifact(c))
}

// Extract runs candid-extractor on the canister's release wasm and writes
// the interface to its candid path, returning that path.
//
// Output is written to a temporary sibling first so a failed run leaves an
// existing candid file untouched.
func (e *Extractor) Extract(ctx context.Context, c *manifest.Canister) (string, error) {
	artifact := e.layout.Artifact(c)
	if !e.fs.IsFile(artifact) {
		return "", fmt.Errorf("%w: %s", ErrArtifactMissing, artifact)
	}

	dest, err := ResolvePath(e.fs, e.layout.Root, c)
	if err != nil {
		return "", err
	}

	line, err := e.CommandLine(c)
	if err != nil {
		return "", fmt.Errorf("%w: canister '%s': %v", ErrExtractionFailed, c.Name, err)
	}

	suffix, err := gonanoid.Generate(tempAlphabet, 8)
	if err != nil {
		return "", fmt.Errorf("failed to generate temp file name: %w", err)
	}
	tmp := dest + "." + suffix + ".tmp"

	out, err := e.fs.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create %s: %v", ErrExtractionFailed, tmp, err)
	}

	e.logger.Debug("extracting candid", "canister", c.Name, "command", line)

	_, runErr := e.runner.Run(ctx, shell.Command{Dir: e.layout.Root, Line: line, Stdout: out})
	closeErr := out.Close()

	if runErr != nil || closeErr != nil {
		_ = e.fs.Remove(tmp)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if runErr != nil {
			return "", fmt.Errorf("%w: failed to extract candid for the canister '%s': %s", ErrExtractionFailed, c.Name, detail(runErr))
		}
		return "", fmt.Errorf("%w: failed to write %s: %v", ErrExtractionFailed, tmp, closeErr)
	}

	if err := e.fs.Rename(tmp, dest); err != nil {
		_ = e.fs.Remove(tmp)
		return "", fmt.Errorf("%w: failed to move candid file into place: %v", ErrExtractionFailed, err)
	}

	if e.ignore.Ignored(dest) {
		rel, relErr := filepath.Rel(e.layout.Root, dest)
		if relErr != nil {
			rel = dest
		}
		e.logger.Warn("candid file is ignored by .gitignore", "canister", c.Name, "path", filepath.ToSlash(rel))
	}

	e.logger.Infof("canister '%s' candid file was successfully generated", c.Name)
	return dest, nil
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
