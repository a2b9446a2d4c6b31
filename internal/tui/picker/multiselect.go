package picker

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	huh "github.com/charmbracelet/huh"
)

// canisterMultiSelect selects the hovered canister when enter is pressed
// with nothing toggled, so a single canister can be picked with one key.
type canisterMultiSelect struct {
	*huh.MultiSelect[string]
	keymap *huh.KeyMap
}

func newCanisterMultiSelect(selected *[]string) *canisterMultiSelect {
	return &canisterMultiSelect{
		MultiSelect: huh.NewMultiSelect[string]().Value(selected),
	}
}

func (c *canisterMultiSelect) Options(options ...huh.Option[string]) *canisterMultiSelect {
	c.MultiSelect.Options(options...)
	return c
}

func (c *canisterMultiSelect) WithKeyMap(k *huh.KeyMap) huh.Field {
	c.keymap = k
	c.MultiSelect.WithKeyMap(k)
	return c
}

func (c *canisterMultiSelect) KeyBinds() []key.Binding {
	binds := c.MultiSelect.KeyBinds()
	if c.keymap == nil || c.selectedCount() > 0 {
		return binds
	}

	submitKeys := c.keymap.MultiSelect.Submit.Keys()
	for i := range binds {
		if !sameKeys(binds[i].Keys(), submitKeys) {
			continue
		}
		helpKey := binds[i].Help().Key
		if helpKey == "" {
			helpKey = "enter"
		}
		binds[i].SetHelp(helpKey, "select and generate")
		break
	}

	return binds
}

func (c *canisterMultiSelect) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if c.keymap != nil {
		if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, c.keymap.MultiSelect.Submit) && c.selectedCount() == 0 {
			if _, hovered := c.MultiSelect.Hovered(); hovered {
				toggle, ok := keyMsgForBinding(c.keymap.MultiSelect.Toggle)
				if !ok {
					toggle = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
				}
				model, cmd := c.MultiSelect.Update(toggle)
				c.MultiSelect = model.(*huh.MultiSelect[string])
				cmds = append(cmds, cmd)
			}
		}
	}

	model, cmd := c.MultiSelect.Update(msg)
	c.MultiSelect = model.(*huh.MultiSelect[string])
	cmds = append(cmds, cmd)
	return c, tea.Batch(cmds...)
}

func (c *canisterMultiSelect) selectedCount() int {
	value, ok := c.MultiSelect.GetValue().([]string)
	if !ok {
		return 0
	}
	return len(value)
}

func keyMsgForBinding(binding key.Binding) (tea.KeyMsg, bool) {
	for _, label := range binding.Keys() {
		if msg, ok := keyMsgFromLabel(label); ok {
			return msg, true
		}
	}
	return tea.KeyMsg{}, false
}

func keyMsgFromLabel(label string) (tea.KeyMsg, bool) {
	switch label {
	case " ", "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, true
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}, true
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}, true
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}, true
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}, true
	}

	runes := []rune(label)
	if len(runes) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: runes}, true
	}
	return tea.KeyMsg{}, false
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
