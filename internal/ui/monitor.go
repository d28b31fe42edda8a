package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/jivepulse/internal/tempo"
)

// Spinner frames for the warm-up phase
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// MonitorModel is the Bubbletea model for live microphone monitoring.
// The host feeds it MonitorTickMsg updates; pressing any stop key quits the
// program, after which the host finalizes the session and prints the
// summary.
type MonitorModel struct {
	ReferenceBPM  float64 // 0 when no reference is set
	RecordingPath string  // "" when not recording to disk
	WarmupSecs    float64 // buffered audio needed for the first estimate

	Elapsed  time.Duration
	BPM      float64
	Buffered float64
	Points   []tempo.Point

	spinnerIndex int

	Width  int
	Height int
}

// NewMonitorModel creates the live monitoring UI model
func NewMonitorModel(referenceBPM float64, recordingPath string, warmupSecs float64) MonitorModel {
	return MonitorModel{
		ReferenceBPM:  referenceBPM,
		RecordingPath: recordingPath,
		WarmupSecs:    warmupSecs,
	}
}

// Init initializes the model
func (m MonitorModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc", "enter", " ":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case MonitorTickMsg:
		m.Elapsed = msg.Elapsed
		m.BPM = msg.BPM
		m.Buffered = msg.Buffered
		m.Points = msg.Points
		m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
	}

	return m, nil
}

// View renders the UI
func (m MonitorModel) View() string {
	return renderMonitorView(m)
}
