package generate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/jakoblorz/candid-gen/internal/manifest"
)

// Builder compiles a canister to wasm
type Builder interface {
	CommandLine(c *manifest.Canister) (string, error)
	Build(ctx context.Context, c *manifest.Canister) error
}

// Extractor writes a canister's candid file from its built wasm
type Extractor interface {
	CommandLine(c *manifest.Canister) (string, error)
	Extract(ctx context.Context, c *manifest.Canister) (string, error)
}

// Generator builds and extracts candid files for a set of canisters
type Generator struct {
	root      string
	builder   Builder
	extractor Extractor
	logger    *log.Logger

	// Progress, when set, is called before each canister is processed and
	// after its result is known.
	Progress Progress
}

// Progress receives per-canister updates while a Generator runs
type Progress interface {
	Started(index, total int, name string)
	Finished(result Result)
}

// NewGenerator creates a new Generator for the project at root
func NewGenerator(root string, builder Builder, extractor Extractor, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.Default()
	}
	return &Generator{
		root:      root,
		builder:   builder,
		extractor: extractor,
		logger:    logger,
	}
}

// Run processes the registry in name order. A failing canister is recorded
// and the loop moves on; a cancelled context marks the remaining canisters
// as skipped.
func (g *Generator) Run(ctx context.Context, registry manifest.Registry) *Report {
	names := registry.Names()
	report := &Report{Results: make([]Result, 0, len(names))}

	for i, name := range names {
		c, _ := registry.Get(name)

		if err := ctx.Err(); err != nil {
			report.add(Result{Canister: name, Status: StatusSkipped, Err: err})
			continue
		}

		if g.Progress != nil {
			g.Progress.Started(i+1, len(names), name)
		}

		result := g.process(ctx, c)
		report.add(result)

		if result.Err != nil {
			g.logger.Debug("canister failed", "canister", name, "status", result.Status, "err", result.Err)
		}
		if g.Progress != nil {
			g.Progress.Finished(result)
		}
	}

	return report
}

func (g *Generator) process(ctx context.Context, c *manifest.Canister) Result {
	if err := g.builder.Build(ctx, c); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{Canister: c.Name, Status: StatusSkipped, Err: err}
		}
		return Result{Canister: c.Name, Status: StatusBuildFailed, Err: err}
	}

	path, err := g.extractor.Extract(ctx, c)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{Canister: c.Name, Status: StatusSkipped, Err: err}
		}
		return Result{Canister: c.Name, Status: StatusExtractFailed, Err: err}
	}

	return Result{Canister: c.Name, Status: StatusGenerated, Path: path}
}

// Step is the work planned for one canister
type Step struct {
	Canister string
	Build    string
	Extract  string
	Output   string
}

// Plan returns the commands Run would execute, without running them or
// touching the filesystem
func (g *Generator) Plan(registry manifest.Registry) ([]Step, error) {
	names := registry.Names()
	steps := make([]Step, 0, len(names))

	for _, name := range names {
		c, _ := registry.Get(name)

		build, err := g.builder.CommandLine(c)
		if err != nil {
			return nil, fmt.Errorf("failed to plan build for '%s': %w", name, err)
		}
		extract, err := g.extractor.CommandLine(c)
		if err != nil {
			return nil, fmt.Errorf("failed to plan extraction for '%s': %w", name, err)
		}

		steps = append(steps, Step{
			Canister: name,
			Build:    build,
			Extract:  extract,
			Output:   filepath.Join(g.root, filepath.FromSlash(c.Candid)),
		})
	}

	return steps, nil
}
