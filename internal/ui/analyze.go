// Package ui provides the Bubbletea terminal user interface for jivepulse
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/jivepulse/internal/tempo"
)

// FileStatus represents the analysis state of a single file
type FileStatus int

const (
	StatusQueued FileStatus = iota
	StatusAnalyzing
	StatusComplete
	StatusError
)

// FileProgress tracks analysis progress for a single audio file
type FileProgress struct {
	InputPath string
	Status    FileStatus

	// Segment progress
	Done  int
	Total int

	StartTime   time.Time
	ElapsedTime time.Duration

	// Results
	BPM        float64
	Stats      tempo.SeriesStats
	ReportPath string
	Error      error
}

// AnalyzeModel is the Bubbletea model for the file analysis queue
type AnalyzeModel struct {
	Files          []FileProgress
	CurrentIndex   int
	TotalFiles     int
	CompletedFiles int
	FailedFiles    int

	StartTime time.Time
	Done      bool

	Width  int
	Height int
}

// NewAnalyzeModel creates the analysis UI model for the given input files
func NewAnalyzeModel(inputFiles []string) AnalyzeModel {
	files := make([]FileProgress, len(inputFiles))
	for i, path := range inputFiles {
		files[i] = FileProgress{
			InputPath: path,
			Status:    StatusQueued,
		}
	}

	return AnalyzeModel{
		Files:        files,
		CurrentIndex: -1, // no file analyzing yet
		TotalFiles:   len(inputFiles),
		StartTime:    time.Now(),
	}
}

// Init initializes the model
func (m AnalyzeModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m AnalyzeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case FileStartMsg:
		m.CurrentIndex = msg.FileIndex
		m.Files[m.CurrentIndex].Status = StatusAnalyzing
		m.Files[m.CurrentIndex].StartTime = time.Now()

	case ProgressMsg:
		if msg.FileIndex >= 0 && msg.FileIndex < len(m.Files) {
			f := &m.Files[msg.FileIndex]
			f.Done = msg.Done
			f.Total = msg.Total
			f.ElapsedTime = time.Since(f.StartTime)
		}

	case FileCompleteMsg:
		if msg.FileIndex >= 0 && msg.FileIndex < len(m.Files) {
			f := &m.Files[msg.FileIndex]
			f.BPM = msg.BPM
			f.Stats = msg.Stats
			f.ReportPath = msg.ReportPath
			f.Error = msg.Error
			f.ElapsedTime = time.Since(f.StartTime)

			if msg.Error != nil {
				f.Status = StatusError
				m.FailedFiles++
			} else {
				f.Status = StatusComplete
				m.CompletedFiles++
			}
		}

	case AllCompleteMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI
func (m AnalyzeModel) View() string {
	if m.Done {
		return renderAnalyzeSummary(m)
	}
	return renderAnalyzeView(m)
}
