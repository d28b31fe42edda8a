package ui

import (
	"time"

	"github.com/linuxmatters/jivepulse/internal/tempo"
)

// FileStartMsg indicates analysis of a new file has started
type FileStartMsg struct {
	FileIndex int
	FileName  string
}

// ProgressMsg reports segment progress for the file being analyzed
type ProgressMsg struct {
	FileIndex int
	Done      int // segments analyzed so far
	Total     int // total segments
}

// FileCompleteMsg indicates a file has finished analysis
type FileCompleteMsg struct {
	FileIndex  int
	BPM        float64
	Stats      tempo.SeriesStats
	ReportPath string
	Error      error
}

// AllCompleteMsg indicates every queued file has been analyzed
type AllCompleteMsg struct{}

// MonitorTickMsg carries the live monitoring state on each refresh
type MonitorTickMsg struct {
	Elapsed  time.Duration
	BPM      float64
	Buffered float64 // seconds of audio in the rolling buffer
	Points   []tempo.Point
}
