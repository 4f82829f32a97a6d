package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hochfrequenz/stem-splitter/internal/domain"
	"github.com/hochfrequenz/stem-splitter/internal/splitter"
)

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = progressWidth(msg.Width)
		if m.pickerMode != pickerClosed {
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			return m, cmd
		}
		return m, nil

	case runEventMsg:
		return m.handleRunEvent(msg.event)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		// Dialogs are modal: only dismissal is handled while one is shown
		if m.dialog != nil {
			switch msg.String() {
			case "enter", "esc", " ", "q":
				m.dialog = nil
			}
			return m, nil
		}
		if m.pickerMode != pickerClosed {
			return m.updatePicker(msg)
		}
		return m.handleKey(msg)
	}

	if m.pickerMode != pickerClosed {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}

	return m.updateFocusedInput(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		return m.setFocus((m.focus + 1) % fieldCount)
	case "shift+tab", "up":
		return m.setFocus((m.focus + fieldCount - 1) % fieldCount)
	case "ctrl+o":
		return m.openPicker(pickerFile)
	case "ctrl+d":
		return m.openPicker(pickerDir)
	case "ctrl+s":
		m.configChanged = true
		return m, nil
	}

	switch m.focus {
	case FieldFile:
		if msg.String() == "enter" {
			if strings.TrimSpace(m.fileInput.Value()) == "" {
				return m.openPicker(pickerFile)
			}
			return m.setFocus(FieldOutput)
		}
	case FieldOutput:
		if msg.String() == "enter" {
			if strings.TrimSpace(m.outputInput.Value()) == "" {
				return m.openPicker(pickerDir)
			}
			return m.setFocus(FieldStem)
		}
	case FieldStem:
		switch msg.String() {
		case "left", "h":
			m.stemIndex = (m.stemIndex + len(m.stems) - 1) % len(m.stems)
		case "right", "l", " ":
			m.stemIndex = (m.stemIndex + 1) % len(m.stems)
		case "enter":
			return m.setFocus(FieldStart)
		case "q":
			return m, tea.Quit
		}
		return m, nil
	case FieldStart:
		switch msg.String() {
		case "enter", " ":
			return m.startRun()
		case "q":
			return m, tea.Quit
		}
		return m, nil
	}

	return m.updateFocusedInput(msg)
}

func (m Model) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case FieldFile:
		m.fileInput, cmd = m.fileInput.Update(msg)
	case FieldOutput:
		m.outputInput, cmd = m.outputInput.Update(msg)
	}
	return m, cmd
}

func (m Model) setFocus(f Field) (tea.Model, tea.Cmd) {
	m.focus = f
	m.fileInput.Blur()
	m.outputInput.Blur()

	var cmd tea.Cmd
	switch f {
	case FieldFile:
		cmd = m.fileInput.Focus()
	case FieldOutput:
		cmd = m.outputInput.Focus()
	}
	return m, cmd
}

func (m Model) openPicker(mode pickerMode) (tea.Model, tea.Cmd) {
	fp := filepicker.New()
	fp.AutoHeight = false
	fp.Height = pickerHeight(m.height)

	switch mode {
	case pickerFile:
		fp.AllowedTypes = domain.AudioExtensions
		fp.FileAllowed = true
		fp.DirAllowed = false
		fp.CurrentDirectory = startDir(m.fileInput.Value())
	case pickerDir:
		fp.FileAllowed = false
		fp.DirAllowed = true
		fp.CurrentDirectory = startDir(m.outputInput.Value())
	}

	m.picker = fp
	m.pickerMode = mode
	return m, m.picker.Init()
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.pickerMode = pickerClosed
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		return m.applyPick(path)
	}
	return m, cmd
}

// applyPick stores a picked path. Picking an input file also points the
// output folder at the file's directory.
func (m Model) applyPick(path string) (tea.Model, tea.Cmd) {
	mode := m.pickerMode
	m.pickerMode = pickerClosed

	switch mode {
	case pickerFile:
		m.fileInput.SetValue(path)
		m.outputInput.SetValue(domain.DefaultOutputDir(path))
		return m.setFocus(FieldStem)
	case pickerDir:
		m.outputInput.SetValue(path)
		return m.setFocus(FieldStem)
	}
	return m, nil
}

// startRun is the Idle->Running transition. The start control is disabled
// while running, so a second press is ignored.
func (m Model) startRun() (tea.Model, tea.Cmd) {
	if m.Running() {
		return m, nil
	}

	req, err := domain.NewRunRequest(m.fileInput.Value(), m.outputInput.Value(), m.SelectedStem())
	if err != nil {
		m.dialog = &Dialog{Title: "Error", Body: splitter.FailureMessage(err), IsError: true}
		return m, nil
	}

	events, err := m.starter.Start(m.ctx, req)
	if err != nil {
		m.dialog = &Dialog{Title: "Error", Body: splitter.FailureMessage(err), IsError: true}
		return m, nil
	}

	m.status = domain.RunRunning
	m.percent = 0
	m.events = events
	return m, waitForEvent(events)
}

func (m Model) handleRunEvent(ev splitter.Event) (tea.Model, tea.Cmd) {
	switch ev := ev.(type) {
	case splitter.ProgressEvent:
		m.percent = clampPercent(ev.Percent)
		return m, waitForEvent(m.events)

	case splitter.DoneEvent:
		m.status = domain.RunIdle
		m.events = nil
		if ev.Err != nil {
			m.dialog = &Dialog{Title: "Error", Body: splitter.FailureMessage(ev.Err), IsError: true}
			return m, nil
		}
		m.dialog = &Dialog{Title: "Done", Body: successBody(ev.Result)}
		return m, nil
	}
	return m, nil
}

func successBody(res domain.RunResult) string {
	lines := []string{splitter.SuccessMessage(res)}
	if files := splitter.DescribeFiles(res.Files); len(files) > 0 {
		lines = append(lines, "", strings.Join(files, "\n"))
	}
	if warnings := splitter.MoveWarnings(res); len(warnings) > 0 {
		lines = append(lines, "", strings.Join(warnings, "\n"))
	}
	return strings.Join(lines, "\n")
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func progressWidth(width int) int {
	w := width - 16
	if w > 60 {
		w = 60
	}
	if w < 10 {
		w = 10
	}
	return w
}

func pickerHeight(height int) int {
	h := height - 8
	if h < 5 {
		h = 5
	}
	return h
}
