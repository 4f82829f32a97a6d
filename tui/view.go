package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Width(34).
			Align(lipgloss.Right).
			Foreground(lipgloss.Color("244"))

	focusedLabelStyle = labelStyle.
				Foreground(lipgloss.Color("205")).
				Bold(true)

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Background(lipgloss.Color("250")).
			Foreground(lipgloss.Color("0"))

	focusedButtonStyle = buttonStyle.
				Background(lipgloss.Color("205")).
				Bold(true)

	disabledButtonStyle = buttonStyle.
				Background(lipgloss.Color("238")).
				Foreground(lipgloss.Color("244"))

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("42")).
			Padding(1, 2)

	errorDialogStyle = dialogStyle.
				BorderForeground(lipgloss.Color("196"))

	dialogTitleStyle = lipgloss.NewStyle().Bold(true)

	dimmedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255"))
)

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(headerStyle.Width(m.width).Render(" Stem Splitter "))
	b.WriteString("\n\n")

	if m.dialog != nil {
		b.WriteString(m.renderDialog())
		b.WriteString("\n")
		return b.String()
	}

	if m.pickerMode != pickerClosed {
		b.WriteString(m.renderPicker())
		return b.String()
	}

	b.WriteString(m.renderForm())
	b.WriteString("\n")
	b.WriteString(statusBarStyle.Width(m.width).Render(m.statusBar()))
	return b.String()
}

func (m Model) renderForm() string {
	var b strings.Builder

	b.WriteString(m.row(FieldFile, "Audio File:", m.fileInput.View()))
	b.WriteString(m.row(FieldOutput, "Output Folder:", m.outputInput.View()))
	b.WriteString(m.row(FieldStem, "Choose an instrument to separate:", m.renderStems()))
	b.WriteString("\n")

	bar := m.progress.ViewAs(float64(m.percent) / 100)
	b.WriteString(fmt.Sprintf("  %s %3d%%\n\n", bar, m.percent))

	label := "Start splitting"
	style := buttonStyle
	switch {
	case m.Running():
		label = "Splitting..."
		style = disabledButtonStyle
	case m.focus == FieldStart:
		style = focusedButtonStyle
	}
	b.WriteString("  " + style.Render(label) + "\n")

	return b.String()
}

func (m Model) row(f Field, label, value string) string {
	style := labelStyle
	if m.focus == f {
		style = focusedLabelStyle
	}
	return style.Render(label) + " " + value + "\n"
}

func (m Model) renderStems() string {
	current := m.stems[m.stemIndex]
	if m.focus == FieldStem {
		return fmt.Sprintf("‹ %s ›", focusedLabelStyle.UnsetWidth().UnsetAlign().Render(current))
	}
	return current
}

func (m Model) renderPicker() string {
	title := "Select Audio File"
	if m.pickerMode == pickerDir {
		title = "Select Output Directory"
	}

	var b strings.Builder
	b.WriteString(dialogTitleStyle.Render(title))
	b.WriteString("  ")
	b.WriteString(dimmedStyle.Render(m.picker.CurrentDirectory))
	b.WriteString("\n\n")
	b.WriteString(m.picker.View())
	b.WriteString("\n")
	b.WriteString(statusBarStyle.Width(m.width).Render(" [↑/↓]move [→]open [←]back [enter]select [esc]cancel "))
	return b.String()
}

func (m Model) renderDialog() string {
	style := dialogStyle
	if m.dialog.IsError {
		style = errorDialogStyle
	}

	content := dialogTitleStyle.Render(m.dialog.Title) + "\n\n" +
		m.dialog.Body + "\n\n" +
		dimmedStyle.Render("[enter] OK")

	box := style.Render(content)
	return lipgloss.Place(m.width, lipgloss.Height(box)+2, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) statusBar() string {
	if m.Running() {
		return " Splitting... the separation cannot be interrupted  [ctrl+c]quit "
	}

	switch m.focus {
	case FieldFile, FieldOutput:
		return " [tab]next [enter/ctrl+o/ctrl+d]browse [ctrl+s]save defaults [ctrl+c]quit "
	case FieldStem:
		return " [←/→]choose [tab]next [ctrl+s]save defaults [q]uit "
	default:
		return " [enter]start [tab]next [ctrl+s]save defaults [q]uit "
	}
}
