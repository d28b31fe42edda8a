package tempo

import "testing"

// ClickTrackOptions configures the synthetic click track to generate
type ClickTrackOptions struct {
	DurationSecs float64 // Total duration in seconds
	SampleRate   int     // Sample rate (default: 44100)
	BPM          float64 // Click rate in beats per minute
	ClickMillis  float64 // Duration of each click burst (default: 10ms)
	ClickLevel   float64 // Click amplitude, linear (default: 0.9)
	NoiseLevel   float64 // Background noise amplitude, linear (0 = no noise)
}

// generateClickTrack creates synthetic mono PCM with short noise bursts at a
// fixed beat interval. Clicks are broadband so they register on both the
// energy and flux curves.
func generateClickTrack(t *testing.T, opts ClickTrackOptions) []float64 {
	t.Helper()

	// Set defaults
	if opts.SampleRate == 0 {
		opts.SampleRate = 44100
	}
	if opts.DurationSecs == 0 {
		opts.DurationSecs = 10.0
	}
	if opts.ClickMillis == 0 {
		opts.ClickMillis = 10.0
	}
	if opts.ClickLevel == 0 {
		opts.ClickLevel = 0.9
	}
	if opts.BPM <= 0 {
		t.Fatalf("click track requires a positive BPM, got %v", opts.BPM)
	}

	totalSamples := int(opts.DurationSecs * float64(opts.SampleRate))
	samples := make([]float64, totalSamples)

	// Simple LCG random number generator for deterministic noise
	// (avoids importing math/rand and seeding complexity)
	rngState := uint32(12345)
	nextRandom := func() float64 {
		// LCG parameters from Numerical Recipes
		rngState = rngState*1664525 + 1013904223
		return (float64(rngState)/float64(0xFFFFFFFF))*2.0 - 1.0
	}

	beatInterval := 60.0 / opts.BPM
	beatSamples := int(beatInterval * float64(opts.SampleRate))
	clickSamples := int(opts.ClickMillis / 1000.0 * float64(opts.SampleRate))

	for i := 0; i < totalSamples; i++ {
		var sample float64
		if beatSamples > 0 && i%beatSamples < clickSamples {
			// Decaying noise burst shaped like a percussive hit
			pos := float64(i%beatSamples) / float64(clickSamples)
			sample = opts.ClickLevel * (1.0 - pos) * nextRandom()
		}
		if opts.NoiseLevel > 0 {
			sample += opts.NoiseLevel * nextRandom()
		}
		if sample > 1.0 {
			sample = 1.0
		} else if sample < -1.0 {
			sample = -1.0
		}
		samples[i] = sample
	}

	return samples
}
