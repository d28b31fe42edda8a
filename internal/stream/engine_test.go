package stream

import (
	"math"
	"testing"
	"time"
)

const testSampleRate = 44100

func testEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := DefaultConfig(testSampleRate)
	cfg.SampleInterval = MinSampleInterval // densest series for assertions
	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine
}

// feedAndPoll streams a prepared track into the engine in chunkSecs slices,
// polling after each chunk with a matching wall clock. Returns the Current()
// reading after every poll.
func feedAndPoll(e *Engine, track []float64, chunkSecs float64, start time.Time) []float64 {
	chunk := int(chunkSecs * float64(testSampleRate))
	var readings []float64
	now := start
	for off := 0; off < len(track); off += chunk {
		end := min(off+chunk, len(track))
		e.OnChunk(track[off:end])
		now = now.Add(time.Duration(chunkSecs * float64(time.Second)))
		e.Poll(now)
		readings = append(readings, e.Current())
	}
	return readings
}

func TestEngineLifecycle(t *testing.T) {
	engine := testEngine(t)

	// Everything is a no-op before Start.
	if engine.Running() {
		t.Error("engine reports running before Start")
	}
	engine.OnChunk(make([]float64, 1024))
	engine.Poll(time.Now())
	if got := engine.Current(); got != 0 {
		t.Errorf("Current before Start = %v, want 0", got)
	}
	if got := engine.Stop(); got != 0 {
		t.Errorf("Stop before Start = %v, want 0", got)
	}
	if s := engine.Series(); s == nil || s.Len() != 0 {
		t.Errorf("Series before any session = %v, want empty", s)
	}

	engine.Start(testSampleRate, time.Now())
	if !engine.Running() {
		t.Error("engine not running after Start")
	}
	if s := engine.Series(); s.Len() != 1 {
		t.Errorf("fresh session series has %d points, want 1 seed point", s.Len())
	}
}

func TestEngineColdStartEstimate(t *testing.T) {
	engine := testEngine(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine.Start(testSampleRate, start)

	// 3 seconds of clicks: past the cold-start threshold, below stable.
	track := generateClicks(t, 120, 3.0, testSampleRate)
	engine.OnChunk(track)
	engine.Poll(start.Add(3 * time.Second))

	got := engine.Current()
	if math.Abs(got-120) > 5 {
		t.Errorf("cold-start estimate = %.2f BPM, want 120 +/- 5", got)
	}
}

func TestEngineConvergence(t *testing.T) {
	engine := testEngine(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine.Start(testSampleRate, start)

	track := generateClicks(t, 120, 10.0, testSampleRate)
	readings := feedAndPoll(engine, track, 0.5, start)

	last5 := readings[len(readings)-5:]
	var mean float64
	for _, v := range last5 {
		mean += v
	}
	mean /= float64(len(last5))

	var variance float64
	for _, v := range last5 {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(last5))

	if variance >= 2 {
		t.Errorf("estimate has not converged: last 5 readings %v, variance %.3f", last5, variance)
	}
	if math.Abs(mean-120) > 3 {
		t.Errorf("converged estimate = %.2f BPM, want 120 +/- 3", mean)
	}
}

func TestEngineSeriesSampling(t *testing.T) {
	engine := testEngine(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine.Start(testSampleRate, start)

	// Ten polls at the 500ms cadence with a 1s sample interval: points land
	// at 1s, 2s, ... 5s on top of the seed point.
	for i := 1; i <= 10; i++ {
		engine.Poll(start.Add(time.Duration(i) * 500 * time.Millisecond))
	}

	series := engine.Series()
	if series.Len() != 6 {
		t.Fatalf("series has %d points, want 6 (seed + 5 samples)", series.Len())
	}
	points := series.Points()
	if points[0].Elapsed != 0 {
		t.Errorf("seed point at %.2fs, want 0", points[0].Elapsed)
	}
	for i := 1; i < len(points); i++ {
		want := float64(i)
		if math.Abs(points[i].Elapsed-want) > 0.01 {
			t.Errorf("point %d at %.2fs, want %.2fs", i, points[i].Elapsed, want)
		}
	}
}

func TestEngineStop(t *testing.T) {
	engine := testEngine(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine.Start(testSampleRate, start)

	track := generateClicks(t, 120, 10.0, testSampleRate)
	feedAndPoll(engine, track, 0.5, start)

	final := engine.Stop()
	if math.Abs(final-120) > 3 {
		t.Errorf("final analysis = %.2f BPM, want 120 +/- 3", final)
	}
	if engine.Running() {
		t.Error("engine still running after Stop")
	}
	if got := engine.Current(); got != 0 {
		t.Errorf("Current after Stop = %v, want 0", got)
	}
}

func TestEngineStopFreezesSeries(t *testing.T) {
	engine := testEngine(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine.Start(testSampleRate, start)

	track := generateClicks(t, 120, 8.0, testSampleRate)
	feedAndPoll(engine, track, 0.5, start)
	engine.Stop()

	frozen := engine.Series()
	if frozen.Len() == 0 {
		t.Fatal("frozen series is empty after a recorded session")
	}
	frozenLen := frozen.Len()

	// A new session records into a fresh series without touching the
	// previous recording.
	engine.Start(testSampleRate, start.Add(time.Minute))
	if got := engine.Series().Len(); got != 1 {
		t.Errorf("new session series has %d points, want 1", got)
	}
	engine.Poll(start.Add(time.Minute + 2*time.Second))
	if frozen.Len() != frozenLen {
		t.Errorf("frozen snapshot grew from %d to %d points", frozenLen, frozen.Len())
	}
}

func TestEngineBufferBounded(t *testing.T) {
	engine := testEngine(t)
	engine.Start(testSampleRate, time.Now())

	// 15 seconds into a 10 second buffer.
	chunk := make([]float64, testSampleRate/2)
	for i := 0; i < 30; i++ {
		engine.OnChunk(chunk)
	}

	engine.mu.Lock()
	got := len(engine.state.buffer)
	want := engine.state.maxBuffer
	engine.mu.Unlock()
	if got != want {
		t.Errorf("buffer holds %d samples, want capped at %d", got, want)
	}
	if secs := engine.Buffered(); math.Abs(secs-DefaultBufferSeconds) > 0.01 {
		t.Errorf("Buffered = %.2fs, want %.1fs", secs, DefaultBufferSeconds)
	}
}

func TestEngineSilenceKeepsZeroEstimate(t *testing.T) {
	engine := testEngine(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine.Start(testSampleRate, start)

	engine.OnChunk(make([]float64, 8*testSampleRate))
	engine.Poll(start.Add(8 * time.Second))

	if got := engine.Current(); got != 0 {
		t.Errorf("Current over silence = %v, want 0", got)
	}
	// The series still records the no-estimate gap.
	series := engine.Series()
	if last := series.Last(); last.BPM != 0 {
		t.Errorf("series last BPM = %v, want 0", last.BPM)
	}
}

func TestMedianFilter3(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []float64
	}{
		{
			name:   "spike is suppressed",
			values: []float64{120, 200, 121},
			want:   []float64{120, 121, 121},
		},
		{
			name:   "endpoints pass through",
			values: []float64{100, 110, 120, 130},
			want:   []float64{100, 110, 120, 130},
		},
		{
			name:   "short input unchanged",
			values: []float64{100, 200},
			want:   []float64{100, 200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := medianFilter3(tt.values)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestMedian3(t *testing.T) {
	perms := [][3]float64{
		{1, 2, 3}, {1, 3, 2}, {2, 1, 3}, {2, 3, 1}, {3, 1, 2}, {3, 2, 1},
	}
	for _, p := range perms {
		if got := median3(p[0], p[1], p[2]); got != 2 {
			t.Errorf("median3(%v, %v, %v) = %v, want 2", p[0], p[1], p[2], got)
		}
	}
}
