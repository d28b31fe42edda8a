package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/jivepulse/internal/tempo"
)

// ReportData carries everything needed to generate a file analysis report.
type ReportData struct {
	InputPath      string
	StartTime      time.Time
	EndTime        time.Time
	SampleRate     int
	Channels       int
	DurationSecs   float64
	SegmentSecs    float64
	OverallBPM     float64
	Series         *tempo.Series
}

// GenerateReport writes a plain-text tempo analysis report next to the
// input file, named "<input>-tempo.txt". Returns the report path.
func GenerateReport(data ReportData) (string, error) {
	reportPath := reportFileName(data.InputPath)

	var b strings.Builder
	b.WriteString("JIVEPULSE TEMPO ANALYSIS\n")
	b.WriteString("========================\n\n")

	fmt.Fprintf(&b, "Input:    %s\n", data.InputPath)
	fmt.Fprintf(&b, "Analyzed: %s (took %s)\n\n",
		data.EndTime.Format(time.RFC1123), data.EndTime.Sub(data.StartTime).Round(time.Millisecond))

	source := &MetricTable{}
	source.Add("Duration", "s", "%.1f", data.DurationSecs)
	source.Add("Sample rate", "Hz", "%d", data.SampleRate)
	if data.Channels > 0 {
		source.Add("Source channels", "", "%d", data.Channels)
	}
	source.Add("Segment length", "s", "%.1f", data.SegmentSecs)
	b.WriteString("SOURCE\n")
	b.WriteString(source.String())
	b.WriteString("\n")

	b.WriteString("TEMPO\n")
	b.WriteString(tempoSection(data.OverallBPM, data.Series))

	if err := os.WriteFile(reportPath, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return reportPath, nil
}

// tempoSection renders the overall estimate, its category and the series
// statistics shared by file and microphone reports.
func tempoSection(overall float64, series *tempo.Series) string {
	var b strings.Builder

	table := &MetricTable{}
	if overall > 0 {
		table.Add("Overall tempo", "BPM", "%.1f", overall)
	} else {
		table.Rows = append(table.Rows, MetricRow{Label: "Overall tempo", Value: "not detected"})
	}

	if series != nil {
		st := series.Stats()
		table.Add("Segments analyzed", "", "%d", st.Count)
		table.Add("Segments with tempo", "", "%d", st.Valid)
		if st.Valid > 0 {
			table.Add("Min", "BPM", "%.1f", st.Min)
			table.Add("Max", "BPM", "%.1f", st.Max)
			table.Add("Mean", "BPM", "%.1f", st.Mean)
			table.Add("Median", "BPM", "%.1f", st.Median)
			table.Add("Std deviation", "BPM", "%.2f", st.StdDev)
		}
	}
	b.WriteString(table.String())

	if overall > 0 {
		fmt.Fprintf(&b, "\n  Style: %s\n", tempo.Category(overall))
	}
	return b.String()
}

// reportFileName derives the report path from the input path.
func reportFileName(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + "-tempo.txt"
}
