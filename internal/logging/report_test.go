package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/linuxmatters/jivepulse/internal/tempo"
)

func TestGenerateReport(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "track.mp3")

	series := tempo.NewSeries()
	series.Append(0, 118)
	series.Append(5, 122)
	series.Append(10, 0) // quiet segment

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reportPath, err := GenerateReport(ReportData{
		InputPath:    inputPath,
		StartTime:    start,
		EndTime:      start.Add(2 * time.Second),
		SampleRate:   44100,
		Channels:     2,
		DurationSecs: 15.0,
		SegmentSecs:  5.0,
		OverallBPM:   120,
		Series:       series,
	})
	if err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	if want := filepath.Join(dir, "track-tempo.txt"); reportPath != want {
		t.Errorf("report path = %q, want %q", reportPath, want)
	}

	content, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	report := string(content)

	for _, fragment := range []string{
		"JIVEPULSE TEMPO ANALYSIS",
		"track.mp3",
		"44100 Hz",
		"120.0 BPM",
		"Segments analyzed",
		"Medium (Pop, Rock, EDM)",
	} {
		if !strings.Contains(report, fragment) {
			t.Errorf("report missing %q:\n%s", fragment, report)
		}
	}
}

func TestGenerateReportNoTempo(t *testing.T) {
	dir := t.TempDir()

	series := tempo.NewSeries()
	series.Append(0, 0)

	reportPath, err := GenerateReport(ReportData{
		InputPath:    filepath.Join(dir, "silence.wav"),
		StartTime:    time.Now(),
		EndTime:      time.Now(),
		SampleRate:   44100,
		DurationSecs: 5.0,
		SegmentSecs:  5.0,
		OverallBPM:   0,
		Series:       series,
	})
	if err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	content, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if !strings.Contains(string(content), "not detected") {
		t.Errorf("report should state the tempo was not detected:\n%s", content)
	}
}

func TestReportFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"song.mp3", "song-tempo.txt"},
		{"/music/set.flac", "/music/set-tempo.txt"},
		{"noext", "noext-tempo.txt"},
	}
	for _, tt := range tests {
		if got := reportFileName(tt.in); got != tt.want {
			t.Errorf("reportFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMetricTableAlignment(t *testing.T) {
	table := &MetricTable{}
	table.Add("Duration", "s", "%.1f", 15.0)
	table.Add("Sample rate", "Hz", "%d", 44100)

	out := table.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out)
	}

	// Values are right-aligned to the same column.
	if idx0, idx1 := strings.Index(lines[0], "15.0"), strings.Index(lines[1], "44100"); idx0+4 != idx1+5 {
		t.Errorf("value columns misaligned:\n%s", out)
	}

	if empty := (&MetricTable{}).String(); empty != "" {
		t.Errorf("empty table renders %q, want empty string", empty)
	}
}
