package picker

import (
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	huh "github.com/charmbracelet/huh"
	"github.com/jakoblorz/candid-gen/internal/tui"
)

// ErrNothingToPick is returned when there are no canisters to offer
var ErrNothingToPick = errors.New("no rust canisters to choose from")

// Choice is a canister offered for selection
type Choice struct {
	Name   string
	Candid string
}

// Picker asks the user which canisters to generate candid files for
type Picker struct {
	theme      *huh.Theme
	accessible bool
	input      io.Reader
	output     io.Writer
}

// New creates a Picker using the tool's huh theme
func New() *Picker {
	return &Picker{theme: tui.NewHuhTheme()}
}

// WithAccessible switches to huh's line-based prompts reading from in and
// writing to out, for terminals without full-screen support
func (p *Picker) WithAccessible(in io.Reader, out io.Writer) *Picker {
	p.accessible = true
	p.input = in
	p.output = out
	return p
}

// Pick shows a multi-select of the choices and returns the chosen names.
// A nil slice with a nil error means the user aborted.
func (p *Picker) Pick(choices []Choice) ([]string, error) {
	if len(choices) == 0 {
		return nil, ErrNothingToPick
	}

	selected := make([]string, 0, len(choices))
	field := newCanisterMultiSelect(&selected).Options(Options(choices)...)

	form := huh.NewForm(
		huh.NewGroup(field).
			Title("Canister Selection").
			Description("Select canisters to generate candid files for."),
	).
		WithTheme(p.theme).
		WithShowHelp(true).
		WithKeyMap(KeyMap())

	if p.accessible {
		form = form.WithAccessible(true).WithInput(p.input).WithOutput(p.output)
	} else {
		form = form.WithProgramOptions(tea.WithAltScreen())
	}

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil, nil
		}
		return nil, fmt.Errorf("canister selection failed: %w", err)
	}

	return selected, nil
}

// Options converts choices to huh options labelled with their candid path
func Options(choices []Choice) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(choices))
	for _, c := range choices {
		label := c.Name
		if c.Candid != "" {
			label = fmt.Sprintf("%s (%s)", c.Name, c.Candid)
		}
		opts = append(opts, huh.NewOption(label, c.Name))
	}
	return opts
}

// KeyMap returns the picker key bindings: space toggles, enter submits
func KeyMap() *huh.KeyMap {
	keyMap := huh.NewDefaultKeyMap()
	keyMap.MultiSelect.Filter.SetEnabled(false)
	keyMap.MultiSelect.Toggle.SetKeys(" ")
	keyMap.MultiSelect.Toggle.SetHelp("space", "toggle selection")
	keyMap.MultiSelect.Submit.SetKeys("enter")
	keyMap.MultiSelect.Submit.SetHelp("enter", "generate")
	return keyMap
}
