package tui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jakoblorz/candid-gen/internal/generate"
)

// Printer writes user-facing progress for a generation run
type Printer struct {
	w    io.Writer
	root string
}

// NewPrinter creates a Printer that shows paths relative to root
func NewPrinter(w io.Writer, root string) *Printer {
	return &Printer{w: w, root: root}
}

func (p *Printer) Started(index, total int, name string) {
	if index > 1 {
		fmt.Fprintln(p.w)
	}
	fmt.Fprintf(p.w, "📦 %s %s\n", SubtleStyle.Render(fmt.Sprintf("[%d/%d]", index, total)), HeaderStyle.Render(name))
}

func (p *Printer) Finished(result generate.Result) {
	if result.OK() {
		fmt.Fprintf(p.w, "%s %s\n", SuccessStyle.Render("✓ Generated"), p.rel(result.Path))
		return
	}
	fmt.Fprintf(p.w, "%s %v\n", ErrorStyle.Render(fmt.Sprintf("❌ %s:", capitalize(result.Status.String()))), result.Err)
}

// Summary prints the closing line of a run
func (p *Printer) Summary(report *generate.Report) {
	failed := report.Failed()
	if len(failed) > 0 {
		fmt.Fprintf(p.w, "\n%s %s\n",
			WarningStyle.Render(fmt.Sprintf("⚠️  %d of %d canister(s) failed:", len(failed), len(report.Results))),
			strings.Join(failed, ", "))
		return
	}
	fmt.Fprintf(p.w, "\n%s\n", SuccessStyle.Render(fmt.Sprintf("✓ Generated %d candid file(s)", len(report.Results))))
}

// Warning prints a highlighted warning line
func (p *Printer) Warning(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", WarningStyle.Render("⚠️ "), msg)
}

// Empty reports that nothing was selected
func (p *Printer) Empty() {
	fmt.Fprintln(p.w, SubtleStyle.Render("No rust canisters selected"))
}

// Plan prints the commands of a dry run
func (p *Printer) Plan(steps []generate.Step) {
	fmt.Fprintln(p.w, TitleStyle.Render(fmt.Sprintf("Would generate %d candid file(s):", len(steps))))
	for _, step := range steps {
		fmt.Fprintf(p.w, "\n%s\n", HeaderStyle.Render(step.Canister))
		fmt.Fprintf(p.w, "  $ %s\n", CommandStyle.Render(step.Build))
		fmt.Fprintf(p.w, "  $ %s > %s\n", CommandStyle.Render(step.Extract), p.rel(step.Output))
	}
}

// List prints canister names with their candid files
func (p *Printer) List(steps []generate.Step) {
	width := 0
	for _, step := range steps {
		if len(step.Canister) > width {
			width = len(step.Canister)
		}
	}
	for _, step := range steps {
		fmt.Fprintf(p.w, "%-*s  %s\n", width, step.Canister, SubtleStyle.Render(p.rel(step.Output)))
	}
}

func (p *Printer) rel(path string) string {
	if p.root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(p.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
