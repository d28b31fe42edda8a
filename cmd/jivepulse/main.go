package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/linuxmatters/jivepulse/internal/audio"
	"github.com/linuxmatters/jivepulse/internal/cli"
	"github.com/linuxmatters/jivepulse/internal/logging"
	"github.com/linuxmatters/jivepulse/internal/stream"
	"github.com/linuxmatters/jivepulse/internal/tempo"
	"github.com/linuxmatters/jivepulse/internal/ui"
)

var (
	version = "0.0.1"
)

// VersionFlag prints the version and exits before command dispatch.
type VersionFlag bool

func (v VersionFlag) BeforeApply(app *kong.Kong) error {
	cli.PrintVersion(version)
	app.Exit(0)
	return nil
}

// CLI defines the command-line interface
type CLI struct {
	Version VersionFlag `short:"v" help:"Show version information"`

	Analyze AnalyzeCmd `cmd:"" help:"Estimate the tempo of audio files"`
	Monitor MonitorCmd `cmd:"" help:"Live tempo monitoring from the microphone"`
	Batch   BatchCmd   `cmd:"" help:"Analyze every audio file under a directory"`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("jivepulse"),
		kong.Description("Musical tempo analyzer and live BPM monitor"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if err := ctx.Run(); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// AnalyzeCmd estimates the tempo of one or more audio files with a TUI
// progress view.
type AnalyzeCmd struct {
	Files   []string `arg:"" name:"files" help:"Audio files to analyze" type:"existingfile"`
	Segment float64  `short:"s" default:"5" help:"Analysis segment length in seconds"`
	Logs    bool     `help:"Write a text report next to each input file"`
	CSV     bool     `help:"Export the tempo time series as CSV next to each input file"`
}

func (c *AnalyzeCmd) Run() error {
	analyzer, err := tempo.NewAnalyzer(tempo.DefaultConfig())
	if err != nil {
		return err
	}

	model := ui.NewAnalyzeModel(c.Files)
	p := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		for i, inputPath := range c.Files {
			fileStart := time.Now()
			p.Send(ui.FileStartMsg{FileIndex: i, FileName: inputPath})

			samples, meta, err := audio.DecodeFile(inputPath, audio.DefaultSampleRate)
			if err != nil {
				p.Send(ui.FileCompleteMsg{FileIndex: i, Error: err})
				continue
			}

			series, overall := analyzer.AnalyzeSegments(samples, audio.DefaultSampleRate, c.Segment,
				func(done, total int) {
					p.Send(ui.ProgressMsg{FileIndex: i, Done: done, Total: total})
				})

			var reportPath string
			if c.Logs {
				reportPath, err = logging.GenerateReport(logging.ReportData{
					InputPath:    inputPath,
					StartTime:    fileStart,
					EndTime:      time.Now(),
					SampleRate:   audio.DefaultSampleRate,
					Channels:     meta.Channels,
					DurationSecs: meta.Duration,
					SegmentSecs:  c.Segment,
					OverallBPM:   overall,
					Series:       series,
				})
				if err != nil {
					p.Send(ui.FileCompleteMsg{FileIndex: i, Error: err})
					continue
				}
			}
			if c.CSV {
				if err := logging.ExportSeriesCSV(csvFileName(inputPath), series); err != nil {
					p.Send(ui.FileCompleteMsg{FileIndex: i, Error: err})
					continue
				}
			}

			p.Send(ui.FileCompleteMsg{
				FileIndex:  i,
				BPM:        overall,
				Stats:      series.Stats(),
				ReportPath: reportPath,
			})
		}
		p.Send(ui.AllCompleteMsg{})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("ui error: %w", err)
	}
	return nil
}

// MonitorCmd runs live tempo monitoring against the default (or named)
// capture device until a key is pressed or the duration elapses.
type MonitorCmd struct {
	Duration  time.Duration `short:"d" default:"0" help:"Stop automatically after this long (0 = run until key press)"`
	Device    string        `help:"Capture device name (platform specific)"`
	Rate      int           `default:"44100" help:"Capture sample rate in Hz"`
	Interval  time.Duration `short:"i" default:"3s" help:"Chart sampling interval (1s-10s)"`
	Record    string        `type:"path" help:"Record the session to a WAV file"`
	Reference float64       `short:"r" help:"Reference BPM to compare the performance against"`
	CSV       string        `type:"path" help:"Export the tempo time series as CSV on stop"`
}

func (c *MonitorCmd) Run() error {
	cfg := stream.DefaultConfig(c.Rate)
	cfg.SampleInterval = c.Interval
	engine, err := stream.NewEngine(cfg)
	if err != nil {
		return err
	}

	var recorder *audio.WAVWriter
	if c.Record != "" {
		recorder, err = audio.NewWAVWriter(c.Record, c.Rate)
		if err != nil {
			return err
		}
	}

	capture, err := audio.StartCapture(
		audio.CaptureConfig{SampleRate: c.Rate, Device: c.Device},
		func(chunk []float64) {
			engine.OnChunk(chunk)
			if recorder != nil {
				recorder.WriteSamples(chunk)
			}
		})
	if err != nil {
		if recorder != nil {
			recorder.Close()
		}
		return err
	}

	start := time.Now()
	engine.Start(c.Rate, start)

	model := ui.NewMonitorModel(c.Reference, c.Record, stream.DefaultColdStartSeconds)
	p := tea.NewProgram(model, tea.WithAltScreen())

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				engine.Poll(now)
				p.Send(ui.MonitorTickMsg{
					Elapsed:  now.Sub(start),
					BPM:      engine.Current(),
					Buffered: engine.Buffered(),
					Points:   engine.Series().Points(),
				})
			}
		}
	}()

	if c.Duration > 0 {
		time.AfterFunc(c.Duration, p.Quit)
	}

	_, uiErr := p.Run()
	close(done)

	capture.Stop()
	final := engine.Stop()
	series := engine.Series()
	if recorder != nil {
		if err := recorder.Close(); err != nil {
			cli.PrintError(err.Error())
		}
	}
	if uiErr != nil {
		return fmt.Errorf("ui error: %w", uiErr)
	}

	printSessionSummary(final, series, c.Reference, c.Record)

	if c.CSV != "" {
		if err := logging.ExportSeriesCSV(c.CSV, series); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", cli.KeyStyle.Render("Series CSV:"), cli.ValueStyle.Render(c.CSV))
	}
	return nil
}

// printSessionSummary prints the post-session analysis to stdout, after the
// TUI has released the terminal.
func printSessionSummary(final float64, series *tempo.Series, referenceBPM float64, recordingPath string) {
	fmt.Println(cli.TitleStyle.Render("Session Summary"))

	table := &logging.MetricTable{}
	if final > 0 {
		table.Add("Final tempo", "BPM", "%.1f", final)
	} else {
		table.Rows = append(table.Rows, logging.MetricRow{Label: "Final tempo", Value: "not detected"})
	}

	st := series.Stats()
	if st.Valid > 0 {
		table.Add("Readings", "", "%d", st.Valid)
		table.Add("Min", "BPM", "%.1f", st.Min)
		table.Add("Max", "BPM", "%.1f", st.Max)
		table.Add("Median", "BPM", "%.1f", st.Median)
		if score := logging.StabilityScore(series); score > 0 {
			table.Add("Stability", "/ 100", "%.0f", score)
		}
	}
	fmt.Print(table.String())

	if final > 0 {
		fmt.Printf("\n  Style: %s\n", tempo.Category(final))
	}
	if recordingPath != "" {
		fmt.Printf("\n%s %s\n", cli.KeyStyle.Render("Recording:"), cli.ValueStyle.Render(recordingPath))
	}

	if referenceBPM > 0 && final > 0 {
		comparison, err := logging.Compare(referenceBPM, final, series)
		if err != nil {
			cli.PrintError(err.Error())
			return
		}
		fmt.Println()
		fmt.Print(comparison.Render())
	}
}

// BatchCmd analyzes a directory tree of audio files on a worker pool with
// console progress, for library-scale tagging runs.
type BatchCmd struct {
	Dir     string  `arg:"" name:"dir" help:"Directory to scan for audio files" type:"existingdir"`
	Workers int     `short:"w" default:"0" help:"Worker count (0 = auto)"`
	Segment float64 `short:"s" default:"5" help:"Analysis segment length in seconds"`
	Logs    bool    `help:"Write a text report next to each audio file"`
}

// batchResult is one file's outcome.
type batchResult struct {
	path string
	bpm  float64
	err  error
}

func (c *BatchCmd) Run() error {
	files, err := collectAudioFiles(c.Dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no audio files under %s", c.Dir)
	}

	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() - 1
		if workers < 2 {
			workers = 2
		}
	}

	progress := mpb.New(mpb.WithWidth(64))
	bar := progress.AddBar(int64(len(files)),
		mpb.PrependDecorators(
			decor.Name("Analyzing: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.EwmaETA(decor.ET_STYLE_GO, 60),
		),
	)

	jobs := make(chan string, len(files))
	results := make(chan batchResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Analyzers reuse FFT scratch buffers, one per worker.
			analyzer, err := tempo.NewAnalyzer(tempo.DefaultConfig())
			if err != nil {
				for path := range jobs {
					results <- batchResult{path: path, err: err}
				}
				return
			}
			for path := range jobs {
				results <- c.analyzeOne(analyzer, path)
			}
		}()
	}

	for _, f := range files {
		jobs <- f
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var outcomes []batchResult
	for r := range results {
		outcomes = append(outcomes, r)
		bar.Increment()
	}
	progress.Wait()

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].path < outcomes[j].path })

	failed := 0
	for _, r := range outcomes {
		rel, err := filepath.Rel(c.Dir, r.path)
		if err != nil {
			rel = r.path
		}
		switch {
		case r.err != nil:
			failed++
			fmt.Printf("  %s %s: %v\n", cli.ErrorStyle.Render("✗"), rel, r.err)
		case r.bpm <= 0:
			fmt.Printf("  %s %s\n", cli.KeyStyle.Render("no tempo"), rel)
		default:
			fmt.Printf("  %s  %s\n", cli.ValueStyle.Render(fmt.Sprintf("%6.1f BPM", r.bpm)), rel)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(outcomes))
	}
	return nil
}

// analyzeOne decodes and analyzes a single file, optionally writing its
// report.
func (c *BatchCmd) analyzeOne(analyzer *tempo.Analyzer, path string) batchResult {
	start := time.Now()
	samples, meta, err := audio.DecodeFile(path, audio.DefaultSampleRate)
	if err != nil {
		return batchResult{path: path, err: err}
	}

	series, overall := analyzer.AnalyzeSegments(samples, audio.DefaultSampleRate, c.Segment, nil)

	if c.Logs {
		_, err := logging.GenerateReport(logging.ReportData{
			InputPath:    path,
			StartTime:    start,
			EndTime:      time.Now(),
			SampleRate:   audio.DefaultSampleRate,
			Channels:     meta.Channels,
			DurationSecs: meta.Duration,
			SegmentSecs:  c.Segment,
			OverallBPM:   overall,
			Series:       series,
		})
		if err != nil {
			return batchResult{path: path, err: err}
		}
	}

	return batchResult{path: path, bpm: overall}
}

// audioExtensions lists the container formats handed to ffmpeg for decode.
var audioExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".flac": true, ".ogg": true,
	".m4a": true, ".aac": true, ".opus": true, ".wma": true,
}

func collectAudioFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if audioExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return files, nil
}

// csvFileName derives the series CSV path from the input path.
func csvFileName(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + "-tempo.csv"
}
