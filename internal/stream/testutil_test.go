package stream

import "testing"

// generateClicks produces mono PCM with decaying noise bursts at a fixed
// beat rate, the same shape a drum machine would feed the capture path.
func generateClicks(t *testing.T, bpm, durationSecs float64, sampleRate int) []float64 {
	t.Helper()

	if bpm <= 0 {
		t.Fatalf("click generation requires a positive BPM, got %v", bpm)
	}

	totalSamples := int(durationSecs * float64(sampleRate))
	samples := make([]float64, totalSamples)

	// Deterministic LCG noise, seeded once per track
	rngState := uint32(97531)
	nextRandom := func() float64 {
		rngState = rngState*1664525 + 1013904223
		return (float64(rngState)/float64(0xFFFFFFFF))*2.0 - 1.0
	}

	beatSamples := int(60.0 / bpm * float64(sampleRate))
	clickSamples := sampleRate / 100 // 10ms burst

	for i := 0; i < totalSamples; i++ {
		if beatSamples > 0 && i%beatSamples < clickSamples {
			pos := float64(i%beatSamples) / float64(clickSamples)
			samples[i] = 0.9 * (1.0 - pos) * nextRandom()
		}
	}
	return samples
}
