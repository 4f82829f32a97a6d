package tui

import (
	"context"
	"os"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hochfrequenz/stem-splitter/internal/domain"
	"github.com/hochfrequenz/stem-splitter/internal/splitter"
)

// Field identifies the focused form control
type Field int

const (
	FieldFile Field = iota
	FieldOutput
	FieldStem
	FieldStart
	fieldCount
)

// pickerMode says what the open picker is choosing
type pickerMode int

const (
	pickerClosed pickerMode = iota
	pickerFile
	pickerDir
)

// Starter launches a separation and streams its events
type Starter interface {
	Start(ctx context.Context, req domain.RunRequest) (<-chan splitter.Event, error)
}

// Dialog is a modal message box
type Dialog struct {
	Title   string
	Body    string
	IsError bool
}

// Model is the TUI application model
type Model struct {
	ctx     context.Context
	starter Starter

	// Form
	fileInput   textinput.Model
	outputInput textinput.Model
	stems       []string
	stemIndex   int
	focus       Field

	// Pickers
	picker     filepicker.Model
	pickerMode pickerMode

	// Run state, owned by the UI goroutine
	status   domain.RunStatus
	percent  int
	events   <-chan splitter.Event
	progress progress.Model

	dialog *Dialog

	configChanged bool

	// UI state
	width  int
	height int
}

// ModelConfig holds initial data for the TUI model
type ModelConfig struct {
	Context   context.Context
	Starter   Starter
	InputPath string
	OutputDir string
	StemLabel string
}

// NewModel creates a new TUI model
func NewModel(cfg ModelConfig) Model {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	fileInput := textinput.New()
	fileInput.Placeholder = "path to .wav, .mp3 or .flac (enter to browse)"
	fileInput.Prompt = ""
	fileInput.CharLimit = 4096
	fileInput.SetValue(cfg.InputPath)
	fileInput.Focus()

	outputInput := textinput.New()
	outputInput.Placeholder = "output folder (enter to browse)"
	outputInput.Prompt = ""
	outputInput.CharLimit = 4096
	outputInput.SetValue(cfg.OutputDir)
	if cfg.OutputDir == "" {
		outputInput.SetValue(domain.DefaultOutputDir(cfg.InputPath))
	}

	stems := domain.StemLabels()
	stemIndex := 0
	for i, label := range stems {
		if label == cfg.StemLabel {
			stemIndex = i
		}
	}

	return Model{
		ctx:         ctx,
		starter:     cfg.Starter,
		fileInput:   fileInput,
		outputInput: outputInput,
		stems:       stems,
		stemIndex:   stemIndex,
		focus:       FieldFile,
		picker:      filepicker.New(),
		status:      domain.RunIdle,
		progress:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// ConfigChanged reports whether the user asked to keep the current form values as defaults
func (m Model) ConfigChanged() bool {
	return m.configChanged
}

// SelectedStem returns the label currently chosen in the dropdown
func (m Model) SelectedStem() string {
	return m.stems[m.stemIndex]
}

// OutputDir returns the output folder entered in the form
func (m Model) OutputDir() string {
	return m.outputInput.Value()
}

// Running reports whether a separation is in progress
func (m Model) Running() bool {
	return m.status == domain.RunRunning
}

// runEventMsg wraps an event posted by the worker
type runEventMsg struct {
	event splitter.Event
}

// waitForEvent reads the next worker event; the UI re-issues it after each one
func waitForEvent(events <-chan splitter.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return runEventMsg{event: ev}
	}
}

func startDir(path string) string {
	if path != "" {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path
		}
		if dir := domain.DefaultOutputDir(path); dir != "" {
			if info, err := os.Stat(dir); err == nil && info.IsDir() {
				return dir
			}
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}
