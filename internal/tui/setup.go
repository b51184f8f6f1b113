package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultTrials is the scored trial count used when the prompt is blank or
// not a positive integer.
const DefaultTrials = 10

const (
	fieldName = iota
	fieldDevice
	fieldTrials
)

// ParseTrials parses the trial-count prompt. Anything that is not a positive
// integer yields DefaultTrials.
func ParseTrials(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return DefaultTrials
	}
	return n
}

type setupForm struct {
	inputs []textinput.Model
	index  int
	errMsg string
}

func newSetupForm(name, device string, trials int) setupForm {
	f := setupForm{
		inputs: []textinput.Model{
			newPromptInput("Enter your name: ", "participant"),
			newPromptInput("Enter the device: ", "mouse"),
			newPromptInput("Enter the number of trials: ", strconv.Itoa(DefaultTrials)),
		},
	}
	f.inputs[fieldName].SetValue(name)
	f.inputs[fieldDevice].SetValue(device)
	if trials > 0 {
		f.inputs[fieldTrials].SetValue(strconv.Itoa(trials))
	}
	f.inputs[fieldTrials].CharLimit = 6
	f.focus(0)
	return f
}

func newPromptInput(prompt, placeholder string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.Placeholder = placeholder
	input.CharLimit = 64
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (f *setupForm) focus(index int) tea.Cmd {
	count := len(f.inputs)
	if index < 0 {
		index = count - 1
	}
	if index >= count {
		index = 0
	}
	f.index = index
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == index {
			cmd = f.inputs[i].Focus()
			continue
		}
		f.inputs[i].Blur()
	}
	return cmd
}

// submit validates the form. It returns false and sets errMsg when a required
// field is empty.
func (f *setupForm) submit() (name, device string, trials int, ok bool) {
	name = strings.TrimSpace(f.inputs[fieldName].Value())
	device = strings.TrimSpace(f.inputs[fieldDevice].Value())
	switch {
	case name == "":
		f.errMsg = "name must not be empty"
		return "", "", 0, false
	case device == "":
		f.errMsg = "device must not be empty"
		return "", "", 0, false
	}
	f.errMsg = ""
	return name, device, ParseTrials(f.inputs[fieldTrials].Value()), true
}

func (f *setupForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.index], cmd = f.inputs[f.index].Update(msg)
	return cmd
}

func (f *setupForm) view() string {
	lines := []string{titleStyle.Render("Fitts' Law experiment"), ""}
	for _, input := range f.inputs {
		lines = append(lines, input.View())
	}
	lines = append(lines, "", helpStyle.Render("tab/shift+tab: next field  enter: start  esc: quit"))
	if f.errMsg != "" {
		lines = append(lines, errorStyle.Render(f.errMsg))
	}
	return strings.Join(lines, "\n")
}
