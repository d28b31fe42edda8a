package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/jivepulse/internal/tempo"
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// renderAnalyzeView renders the main analysis queue view
func renderAnalyzeView(m AnalyzeModel) string {
	var b strings.Builder

	b.WriteString(renderHeader(m.TotalFiles))
	b.WriteString("\n\n")

	for i, file := range m.Files {
		b.WriteString(renderFileEntry(file, i == m.CurrentIndex))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderOverallProgress(m))

	return b.String()
}

// renderHeader renders the application header
func renderHeader(totalFiles int) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#D75F00")).
		Render("Jivepulse 🥁 - Tempo Analyzer")

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Italic(true).
		Render(fmt.Sprintf("Analyzing %d file(s)", totalFiles))

	return title + "\n" + subtitle
}

// renderFileEntry renders a single file entry in the queue
func renderFileEntry(file FileProgress, active bool) string {
	fileName := filepath.Base(file.InputPath)

	switch file.Status {
	case StatusComplete:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Render("✓")
		if file.BPM <= 0 {
			return fmt.Sprintf(" %s %s\n   No tempo detected", icon, fileName)
		}
		return fmt.Sprintf(" %s %s\n   %.1f BPM | %s | %d/%d segments with tempo",
			icon, fileName, file.BPM, tempo.Category(file.BPM),
			file.Stats.Valid, file.Stats.Count)

	case StatusAnalyzing:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#D75F00")).Render("♪")
		return fmt.Sprintf(" %s %s\n%s", icon, fileName, renderFileDetails(file))

	case StatusError:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000")).Render("✗")
		return fmt.Sprintf(" %s %s\n   Error: %v", icon, fileName, file.Error)

	default:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("○")
		return fmt.Sprintf(" %s %s\n   Queued...", icon, fileName)
	}
}

// renderFileDetails renders detailed progress for the active file
func renderFileDetails(file FileProgress) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#D75F00")).
		Padding(0, 1).
		Width(60)

	var content strings.Builder

	progress := 0.0
	if file.Total > 0 {
		progress = float64(file.Done) / float64(file.Total)
	}
	content.WriteString(fmt.Sprintf("Segment %d/%d\n", file.Done, file.Total))
	content.WriteString(renderProgressBar(progress, 40))
	content.WriteString("\n")

	elapsed := file.ElapsedTime.Seconds()
	var remaining float64
	if progress > 0 {
		remaining = (elapsed / progress) - elapsed
	}
	content.WriteString(fmt.Sprintf("⏱  Elapsed: %.1fs | Remaining: ~%.1fs", elapsed, remaining))

	return box.Render(content.String())
}

// renderProgressBar renders a progress bar
func renderProgressBar(progress float64, width int) string {
	filled := int(progress * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %d%%", bar, int(progress*100))
}

// renderOverallProgress renders the overall progress footer
func renderOverallProgress(m AnalyzeModel) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#888888")).
		Padding(0, 1).
		Width(60)

	var content string
	if m.CurrentIndex >= 0 && m.CurrentIndex < len(m.Files) {
		content = fmt.Sprintf("Analyzing file %d of %d (%d complete)",
			m.CurrentIndex+1, m.TotalFiles, m.CompletedFiles)
	} else {
		content = fmt.Sprintf("Overall Progress: %d/%d complete", m.CompletedFiles, m.TotalFiles)
	}

	return box.Render(content)
}

// renderAnalyzeSummary renders the final completion summary
func renderAnalyzeSummary(m AnalyzeModel) string {
	var b strings.Builder

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00AA00")).
		Render("✨ Analysis Complete!")
	b.WriteString(header)
	b.WriteString("\n\n")

	for _, file := range m.Files {
		if file.Status != StatusComplete {
			continue
		}
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Render("✓")
		fileName := filepath.Base(file.InputPath)
		if file.BPM <= 0 {
			fmt.Fprintf(&b, " %s %s: no tempo detected\n", icon, fileName)
			continue
		}
		fmt.Fprintf(&b, " %s %s: %.1f BPM (%s)\n", icon, fileName, file.BPM, tempo.Category(file.BPM))
		if file.ReportPath != "" {
			fmt.Fprintf(&b, "   Report: %s\n", file.ReportPath)
		}
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", 60))
	b.WriteString("\n")
	if m.FailedFiles > 0 {
		fmt.Fprintf(&b, "%d of %d file(s) failed\n", m.FailedFiles, m.TotalFiles)
	} else {
		fmt.Fprintf(&b, "All %d file(s) analyzed ✓\n", m.TotalFiles)
	}

	return b.String()
}

// renderMonitorView renders the live monitoring view
func renderMonitorView(m MonitorModel) string {
	var b strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#D75F00")).
		Render("Jivepulse 🥁 - Live Tempo Monitor")
	b.WriteString(title)
	b.WriteString("\n\n")

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#D75F00")).
		Padding(0, 1).
		Width(60)

	var content strings.Builder
	if m.BPM > 0 {
		bpm := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%.1f BPM", m.BPM))
		fmt.Fprintf(&content, "Current tempo: %s\n", bpm)
		fmt.Fprintf(&content, "Style: %s\n", tempo.Category(m.BPM))
	} else if m.Buffered < m.WarmupSecs {
		spinner := spinnerFrames[m.spinnerIndex]
		fmt.Fprintf(&content, "%s Listening... (%.1fs of %.1fs buffered)\n",
			spinner, m.Buffered, m.WarmupSecs)
	} else {
		fmt.Fprintf(&content, "No tempo detected yet - keep playing\n")
	}

	if m.ReferenceBPM > 0 {
		fmt.Fprintf(&content, "Reference: %.1f BPM\n", m.ReferenceBPM)
	}
	fmt.Fprintf(&content, "Elapsed: %s", m.Elapsed.Round(100*time.Millisecond))

	b.WriteString(box.Render(content.String()))
	b.WriteString("\n")

	if spark := renderSparkline(m.Points, 50); spark != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("Tempo history"))
		b.WriteString("\n ")
		b.WriteString(spark)
		b.WriteString("\n")
	}

	if m.RecordingPath != "" {
		rec := lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000")).Render("● REC")
		fmt.Fprintf(&b, "\n%s %s\n", rec, m.RecordingPath)
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).
		Render("Press q or enter to stop"))

	return b.String()
}

// renderSparkline draws the positive BPM readings of the series as a
// fixed-height bar strip, most recent on the right. Returns "" until two
// readings exist.
func renderSparkline(points []tempo.Point, width int) string {
	var values []float64
	for _, p := range points {
		if p.BPM > 0 {
			values = append(values, p.BPM)
		}
	}
	if len(values) < 2 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	var b strings.Builder
	for _, v := range values {
		level := 0
		if hi > lo {
			level = int((v - lo) / (hi - lo) * float64(len(sparkLevels)-1))
		}
		b.WriteRune(sparkLevels[level])
	}
	return b.String()
}
