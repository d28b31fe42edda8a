package stream

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/linuxmatters/jivepulse/internal/tempo"
)

// Engine fuses repeated batch analyses of a rolling audio buffer into a
// stable live BPM estimate and a tempo time series.
//
// A capture source feeds samples through OnChunk while the host calls Poll
// on its chosen cadence (Run provides a ticker-driven host). The rolling
// buffer and consensus history are the only state shared between the two
// activities and are guarded by the engine mutex; the analysis itself runs
// on snapshots outside the lock.
type Engine struct {
	cfg      Config
	analyzer *tempo.Analyzer

	mu     sync.Mutex
	state  *sessionState
	frozen *tempo.Series
}

// sessionState is the mutable state of one monitoring session. It is
// created by Start, mutated only under the engine mutex, and discarded by
// Stop. Comparing pointers lets an in-flight Poll detect that its session
// ended mid-analysis and discard the result.
type sessionState struct {
	sampleRate   int
	buffer       []float64
	maxBuffer    int
	history      []float64
	current      float64
	startedAt    time.Time
	lastSampleAt time.Time
	series       *tempo.Series
}

// NewEngine creates a streaming engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	analyzer, err := tempo.NewAnalyzer(cfg.Tempo)
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, analyzer: analyzer}, nil
}

// Start begins a monitoring session at the given sample rate (the
// configured default when rate <= 0). Any previous session's frozen series
// is left untouched; the new session records into a fresh series seeded
// with an initial no-estimate point for immediate charting.
func (e *Engine) Start(sampleRate int, now time.Time) {
	if sampleRate <= 0 {
		sampleRate = e.cfg.SampleRate
	}

	series := tempo.NewSeries()
	series.Append(0, 0)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = &sessionState{
		sampleRate:   sampleRate,
		maxBuffer:    int(e.cfg.BufferSeconds * float64(sampleRate)),
		startedAt:    now,
		lastSampleAt: now,
		series:       series,
	}
}

// Running reports whether a monitoring session is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state != nil
}

// OnChunk appends captured samples to the rolling buffer, dropping the
// oldest samples once the buffer exceeds its cap. Safe to call from the
// capture goroutine; it never blocks on analysis. Chunks arriving while no
// session is active are discarded.
func (e *Engine) OnChunk(chunk []float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.state
	if st == nil {
		return
	}
	st.buffer = append(st.buffer, chunk...)
	if len(st.buffer) > st.maxBuffer {
		excess := len(st.buffer) - st.maxBuffer
		st.buffer = append(st.buffer[:0], st.buffer[excess:]...)
	}
}

// Poll runs one update cycle: pick the phase from the buffered duration,
// analyze a snapshot of the buffer tail, fold the result into the smoothed
// estimate, and record a series point when the reporting interval elapsed.
// Host-driven; call it on a fixed cadence (see Run).
func (e *Engine) Poll(now time.Time) {
	e.mu.Lock()
	st := e.state
	if st == nil {
		e.mu.Unlock()
		return
	}
	sr := st.sampleRate
	coldSamples := int(e.cfg.ColdStartSeconds * float64(sr))
	stableSamples := int(e.cfg.StableSeconds * float64(sr))

	var window []float64
	stable := false
	switch {
	case len(st.buffer) >= stableSamples:
		window = snapshotTail(st.buffer, stableSamples)
		stable = true
	case len(st.buffer) >= coldSamples:
		window = snapshotTail(st.buffer, coldSamples)
	}
	e.mu.Unlock()

	if window != nil {
		normalizePeak(window)
		if stable {
			e.stableUpdate(st, window, sr)
		} else {
			e.coldStartUpdate(st, window, sr)
		}
	}

	e.recordSample(st, now)
}

// coldStartUpdate adopts a single-window estimate directly, without
// smoothing. Exists purely to give the host an immediate reading.
func (e *Engine) coldStartUpdate(st *sessionState, window []float64, sampleRate int) {
	bpm := e.analyzer.AnalyzeSegment(window, sampleRate)
	if bpm <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != st {
		return // session ended mid-analysis, discard
	}
	st.current = bpm
}

// stableUpdate runs the batch pipeline on overlapping sub-windows anchored
// at the buffer tail, takes the median of the surviving estimates as the
// cycle consensus, and folds it through the history smoothing chain.
func (e *Engine) stableUpdate(st *sessionState, window []float64, sampleRate int) {
	segment := int(e.cfg.SegmentSeconds * float64(sampleRate))
	hop := int(float64(segment) * (1 - e.cfg.SegmentOverlap))

	var estimates []float64
	for i := 0; i < e.cfg.LiveSegments; i++ {
		start := max(0, len(window)-segment-i*hop)
		end := min(start+segment, len(window))
		if bpm := e.analyzer.AnalyzeSegment(window[start:end], sampleRate); bpm > 0 {
			estimates = append(estimates, bpm)
		}
	}
	if len(estimates) == 0 {
		return // keep the previous smoothed value
	}
	consensus, err := stats.Median(estimates)
	if err != nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != st {
		return // session ended mid-analysis, discard
	}

	st.history = append(st.history, consensus)
	if len(st.history) > e.cfg.HistorySize {
		st.history = append(st.history[:0], st.history[len(st.history)-e.cfg.HistorySize:]...)
	}

	if len(st.history) >= 3 {
		filtered := medianFilter3(st.history)
		ema := filtered[0]
		for _, v := range filtered[1:] {
			ema = e.cfg.SmoothingAlpha*v + (1-e.cfg.SmoothingAlpha)*ema
		}
		st.current = ema
	} else if med, err := stats.Median(st.history); err == nil {
		st.current = med
	}
}

// recordSample appends (elapsed, current BPM) to the series when the
// reporting interval has elapsed. Runs on every poll regardless of phase so
// no-estimate gaps stay visible in the series.
func (e *Engine) recordSample(st *sessionState, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != st {
		return
	}
	if now.Sub(st.lastSampleAt) < e.cfg.SampleInterval {
		return
	}
	st.series.Append(now.Sub(st.startedAt).Seconds(), st.current)
	st.lastSampleAt = now
}

// Buffered reports how many seconds of audio the rolling buffer holds.
func (e *Engine) Buffered() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return 0
	}
	return float64(len(e.state.buffer)) / float64(e.state.sampleRate)
}

// Current returns the live smoothed BPM estimate, 0 when none exists yet.
func (e *Engine) Current() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return 0
	}
	return e.state.current
}

// Series returns a snapshot of the tempo series: the active session's
// series while running, otherwise the frozen series of the last completed
// session. Never nil.
func (e *Engine) Series() *tempo.Series {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != nil {
		return e.state.series.Clone()
	}
	if e.frozen != nil {
		return e.frozen.Clone()
	}
	return tempo.NewSeries()
}

// Stop ends the session, freezes its series, and runs the authoritative
// full-buffer analysis: up to FinalMaxSegments overlapping segments with
// min/max trimming before the median. Safe to call at any point between
// polling cycles; in-flight polls finish against the dead session and are
// discarded. Returns the final BPM estimate (0 when none).
func (e *Engine) Stop() float64 {
	e.mu.Lock()
	st := e.state
	e.state = nil
	if st != nil {
		e.frozen = st.series
	}
	e.mu.Unlock()

	if st == nil || len(st.buffer) == 0 {
		return 0
	}
	return e.finalAnalysis(st.buffer, st.sampleRate)
}

// finalAnalysis is the post-hoc estimate over the whole retained buffer,
// distinct from the live incremental one.
func (e *Engine) finalAnalysis(buffer []float64, sampleRate int) float64 {
	segment := int(e.cfg.SegmentSeconds * float64(sampleRate))
	hop := int(float64(segment) * (1 - e.cfg.SegmentOverlap))

	var estimates []float64
	if len(buffer) >= segment && hop > 0 {
		n := (len(buffer)-segment)/hop + 1
		n = min(n, e.cfg.FinalMaxSegments)
		for i := 0; i < n; i++ {
			start := min(i*hop, len(buffer)-segment)
			if bpm := e.analyzer.AnalyzeSegment(buffer[start:start+segment], sampleRate); bpm > 0 {
				estimates = append(estimates, bpm)
			}
		}
	}
	if len(estimates) == 0 {
		if bpm := e.analyzer.AnalyzeSegment(buffer, sampleRate); bpm > 0 {
			estimates = append(estimates, bpm)
		}
	}
	if len(estimates) == 0 {
		return 0
	}

	if len(estimates) > 3 {
		// Trim the extremes before taking the median.
		sort.Float64s(estimates)
		estimates = estimates[1 : len(estimates)-1]
	}
	final, err := stats.Median(estimates)
	if err != nil {
		return 0
	}
	return final
}

// Run polls the engine on the configured cadence until the context is
// cancelled. A convenience host; callers wanting their own scheduling use
// Poll directly.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			e.Poll(now)
		}
	}
}

// snapshotTail copies the last n samples of the buffer.
func snapshotTail(buffer []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, buffer[len(buffer)-n:])
	return out
}

// normalizePeak divides samples by their peak absolute amplitude in place.
// No-op on silence.
func normalizePeak(samples []float64) {
	var peak float64
	for _, s := range samples {
		if abs := math.Abs(s); abs > peak {
			peak = abs
		}
	}
	if peak <= 0 {
		return
	}
	for i := range samples {
		samples[i] /= peak
	}
}

// medianFilter3 applies a 3-point median filter: endpoints pass through,
// interior points become the median of themselves and their neighbours.
func medianFilter3(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	for i := 1; i < len(values)-1; i++ {
		out[i] = median3(values[i-1], values[i], values[i+1])
	}
	return out
}

func median3(a, b, c float64) float64 {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b = c
	}
	if a > b {
		b = a
	}
	return b
}
