package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/jakoblorz/candid-gen/internal/candid"
	"github.com/jakoblorz/candid-gen/internal/cargo"
	"github.com/jakoblorz/candid-gen/internal/config"
	"github.com/jakoblorz/candid-gen/internal/filesystem"
	"github.com/jakoblorz/candid-gen/internal/generate"
	"github.com/jakoblorz/candid-gen/internal/manifest"
	"github.com/jakoblorz/candid-gen/internal/project"
	"github.com/jakoblorz/candid-gen/internal/shell"
	"github.com/jakoblorz/candid-gen/internal/toolchain"
	"github.com/jakoblorz/candid-gen/internal/tui"
	"github.com/jakoblorz/candid-gen/internal/tui/picker"
	"github.com/spf13/cobra"
)

// Version is set via -ldflags
var Version = "dev"

var errAborted = errors.New("selection aborted")

// CanisterPicker lets the user choose canisters interactively
type CanisterPicker interface {
	Pick(choices []picker.Choice) ([]string, error)
}

// RunnerFactory creates the shell runner for a resolved configuration
type RunnerFactory func(cfg *config.Config, stderr io.Writer) shell.Runner

// RootCommand generates candid files for the rust canisters of a project
type RootCommand struct {
	fs        filesystem.FileSystem
	newRunner RunnerFactory
	picker    CanisterPicker

	configFile  string
	list        bool
	dryRun      bool
	interactive bool
}

// NewRootCommand creates the root command
func NewRootCommand(fs filesystem.FileSystem, newRunner RunnerFactory, canisterPicker CanisterPicker) *cobra.Command {
	rc := &RootCommand{
		fs:        fs,
		newRunner: newRunner,
		picker:    canisterPicker,
	}

	cmd := &cobra.Command{
		Use:   "candid-gen [canister...]",
		Short: "Generate candid files for rust canisters",
		Long: `Generate Candid interface files for the rust canisters of an Internet Computer project.

Each selected canister is built for the wasm32-unknown-unknown target and
candid-extractor writes its interface to the "candid" path from dfx.json.
Without arguments every rust canister is processed. "." selects the
canister whose cargo package contains the current directory.`,
		Example: `  candid-gen
  candid-gen backend frontend_api
  candid-gen .
  candid-gen --dry-run
  candid-gen --interactive`,
		SilenceUsage: true,
		RunE:         rc.Run,
	}

	cmd.Flags().StringVar(&rc.configFile, "config", "", "TOML config file")
	cmd.Flags().BoolVarP(&rc.interactive, "interactive", "i", false, "choose canisters from a list")
	cmd.Flags().BoolVar(&rc.list, "list", false, "list the selected canisters and their candid files")
	cmd.Flags().BoolVar(&rc.dryRun, "dry-run", false, "print the commands that would run")
	cmd.Flags().BoolP("verbose", "v", false, "enable debug logging")
	cmd.Flags().String("target", toolchain.DefaultTarget, "rust target to build canisters for")

	return cmd
}

// Run executes the root command
func (c *RootCommand) Run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	cfg, err := config.Load(config.LoadOptions{ConfigFile: c.configFile, Flags: cmd.Flags()})
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
	runner := c.newRunner(cfg, cmd.ErrOrStderr())

	if !c.list {
		report, err := toolchain.NewChecker(runner, tools(cfg), cfg.Target, logger).
			RequireExtractorVersion(cfg.MinExtractorVersion).
			Check(ctx)
		if err != nil {
			return err
		}
		logger.Debug("toolchain ready", "cargo", report.Version("cargo"), "candid-extractor", report.Version("candid-extractor"))
	}

	wd, err := c.fs.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	root, err := project.Locate(c.fs, wd, cfg.Home)
	if err != nil {
		return err
	}
	logger.Debug("found project root", "root", root)

	m, err := manifest.Load(c.fs, root)
	if err != nil {
		return err
	}
	for _, skipped := range m.Skipped {
		logger.Debug("skipping canister", "canister", skipped.Name, "reason", skipped.Reason)
	}

	names, err := c.selection(args, m.Canisters, root, wd, logger)
	if errors.Is(err, errAborted) {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}
	if err != nil {
		return err
	}

	selected, missing := m.Canisters.Filter(names)
	for _, name := range missing {
		logger.Warnf("not able to generate the candid file for the canister: %s. Verify if it is a 'rust' canister type, or if the name is correct.", name)
	}

	printer := tui.NewPrinter(out, root)
	if len(selected) == 0 {
		printer.Empty()
		return nil
	}

	generator := c.generator(cfg, runner, root, logger)

	if c.list || c.dryRun {
		steps, err := generator.Plan(selected)
		if err != nil {
			return err
		}
		if c.list {
			printer.List(steps)
		} else {
			printer.Plan(steps)
		}
		return nil
	}

	generator.Progress = printer
	report := generator.Run(ctx, selected)
	printer.Summary(report)

	return report.Err()
}

// selection turns positional arguments into canister names. nil selects
// every canister.
func (c *RootCommand) selection(args []string, registry manifest.Registry, root, wd string, logger *log.Logger) ([]string, error) {
	if len(args) == 0 {
		if !c.interactive {
			return nil, nil
		}
		return c.pick(registry)
	}

	names := make([]string, 0, len(args))
	for _, arg := range args {
		if arg != project.CurrentSelector {
			names = append(names, arg)
			continue
		}

		pkg, err := project.CurrentPackage(c.fs, root, wd)
		if err != nil {
			return nil, fmt.Errorf("cannot resolve %q: %w", project.CurrentSelector, err)
		}

		canister, ok := registry.ByPackage(pkg)
		if !ok {
			// Reported as missing by the filter.
			names = append(names, pkg)
			continue
		}
		logger.Debug("resolved current canister", "package", pkg, "canister", canister.Name)
		names = append(names, canister.Name)
	}

	return names, nil
}

func (c *RootCommand) pick(registry manifest.Registry) ([]string, error) {
	if c.picker == nil {
		return nil, errors.New("interactive selection is not available")
	}

	choices := make([]picker.Choice, 0, len(registry))
	for _, name := range registry.Names() {
		canister, _ := registry.Get(name)
		choices = append(choices, picker.Choice{Name: name, Candid: canister.Candid})
	}

	selected, err := c.picker.Pick(choices)
	if err != nil {
		return nil, err
	}
	if selected == nil {
		return nil, errAborted
	}
	return selected, nil
}

func (c *RootCommand) generator(cfg *config.Config, runner shell.Runner, root string, logger *log.Logger) *generate.Generator {
	layout := cargo.Layout{Root: root, TargetDir: cfg.TargetDir, Target: cfg.Target}

	ignore, err := project.LoadIgnore(c.fs, root)
	if err != nil {
		logger.Warn("cannot read .gitignore", "err", err)
	}

	builder := cargo.NewBuilder(runner, cfg.Cargo, layout, logger)
	extractor := candid.NewExtractor(c.fs, runner, cfg.Extractor, layout, logger).WithIgnoreChecker(ignore)

	return generate.NewGenerator(root, builder, extractor, logger)
}

func tools(cfg *config.Config) toolchain.Tools {
	return toolchain.Tools{
		Rustup:    cfg.Rustup,
		Cargo:     cfg.Cargo,
		Extractor: cfg.Extractor,
	}
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: "candid-gen",
		Level:  level,
	})
}

// NewInterpRunner is the RunnerFactory used outside of tests
func NewInterpRunner(cfg *config.Config, stderr io.Writer) shell.Runner {
	runner := shell.NewInterpRunner()
	runner.Timeout = cfg.Timeout
	if cfg.Verbose {
		runner.Stderr = stderr
	}
	return runner
}

// Execute runs the root command
func Execute() error {
	fs := filesystem.NewOSFileSystem()
	rootCmd := NewRootCommand(fs, NewInterpRunner, picker.New())

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}

	return nil
}
