package tempo

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Analyzer runs the batch tempo estimation pipeline: onset extraction,
// adaptive-threshold beat picking, interval-to-BPM candidate generation and
// robust aggregation.
//
// An Analyzer is a pure computation over its input slice. It is not safe for
// concurrent use because it reuses FFT scratch buffers; create one per
// goroutine instead of sharing.
type Analyzer struct {
	cfg    Config
	fft    *fourier.FFT
	window []float64
	coeffs []complex128
}

// NewAnalyzer creates an Analyzer with the given configuration.
// Configuration errors are the only fatal error class; every analysis call
// on a valid Analyzer reports insufficient data as a zero estimate.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Analyzer{cfg: cfg}
	a.fft, a.window, a.coeffs = newFFTPlan(cfg.FrameSize)
	return a, nil
}

// Config returns the analyzer's configuration.
func (a *Analyzer) Config() Config { return a.cfg }

// AnalyzeSegment estimates the tempo of a mono PCM segment in BPM.
// Samples are expected in [-1, 1]; the input slice is only borrowed and
// never retained or modified. Returns 0 when no tempo can be established
// (silence, too few samples, too few beats).
func (a *Analyzer) AnalyzeSegment(samples []float64, sampleRate int) float64 {
	if len(samples) == 0 || sampleRate <= 0 {
		return 0
	}

	normalized := normalizedCopy(samples)
	if normalized == nil {
		return 0 // silent buffer
	}

	curve := a.extractOnsetCurve(normalized)
	onset := a.combined(curve)

	beats := a.detectBeats(onset, sampleRate)
	if len(beats) == 0 {
		return 0
	}

	return a.aggregate(a.tempoCandidates(beats))
}

// AnalyzeSegments analyzes an entire recording as consecutive
// non-overlapping segments of segmentSeconds each, producing a time series
// of (segment start, BPM) points and an overall estimate. The overall value
// is the mean of the segments that produced a positive estimate, 0 when
// none did. The optional progress callback is invoked after each segment.
func (a *Analyzer) AnalyzeSegments(samples []float64, sampleRate int, segmentSeconds float64, progress func(done, total int)) (*Series, float64) {
	series := NewSeries()
	if len(samples) == 0 || sampleRate <= 0 || segmentSeconds <= 0 {
		return series, 0
	}

	segmentSamples := int(segmentSeconds * float64(sampleRate))
	if segmentSamples <= 0 || segmentSamples > len(samples) {
		segmentSamples = len(samples)
	}

	total := (len(samples)-segmentSamples)/segmentSamples + 1
	for i := 0; i < total; i++ {
		start := i * segmentSamples
		end := start + segmentSamples
		if end > len(samples) {
			end = len(samples)
			start = max(0, end-segmentSamples)
		}

		bpm := a.AnalyzeSegment(samples[start:end], sampleRate)
		series.Append(float64(start)/float64(sampleRate), bpm)

		if progress != nil {
			progress(i+1, total)
		}
	}

	return series, series.Stats().Mean
}

// normalizedCopy returns a peak-normalized copy of samples, or nil when the
// buffer is silent (peak 0).
func normalizedCopy(samples []float64) []float64 {
	var peak float64
	for _, s := range samples {
		if abs := math.Abs(s); abs > peak {
			peak = abs
		}
	}
	if peak <= 0 {
		return nil
	}
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s / peak
	}
	return out
}
