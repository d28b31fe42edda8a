package logging

import (
	"math"
	"strings"
	"testing"

	"github.com/linuxmatters/jivepulse/internal/tempo"
)

func TestCompareVerdicts(t *testing.T) {
	tests := []struct {
		name      string
		reference float64
		performed float64
		verdict   string
	}{
		{
			name:      "spot on",
			reference: 120,
			performed: 120.5, // 0.4% off
			verdict:   "Perfect Match",
		},
		{
			name:      "slightly off",
			reference: 120,
			performed: 124, // 3.3% off
			verdict:   "Very Good Match",
		},
		{
			name:      "noticeably off",
			reference: 120,
			performed: 129, // 7.5% off
			verdict:   "Good Match",
		},
		{
			name:      "clearly off",
			reference: 120,
			performed: 104, // 13.3% off
			verdict:   "Fair Match",
		},
		{
			name:      "way off",
			reference: 120,
			performed: 90, // 25% off
			verdict:   "Not Well Matched",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Compare(tt.reference, tt.performed, nil)
			if err != nil {
				t.Fatalf("Compare failed: %v", err)
			}
			if c.Verdict != tt.verdict {
				t.Errorf("verdict = %q, want %q", c.Verdict, tt.verdict)
			}
		})
	}
}

func TestCompareFeedbackDirection(t *testing.T) {
	slow, err := Compare(120, 100, nil)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !strings.Contains(slow.Feedback, "speed up") {
		t.Errorf("playing too slow should suggest speeding up, got %q", slow.Feedback)
	}

	fast, err := Compare(120, 140, nil)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !strings.Contains(fast.Feedback, "slow down") {
		t.Errorf("playing too fast should suggest slowing down, got %q", fast.Feedback)
	}
}

func TestCompareRejectsMissingTempo(t *testing.T) {
	if _, err := Compare(0, 120, nil); err == nil {
		t.Error("Compare accepted a zero reference tempo")
	}
	if _, err := Compare(120, 0, nil); err == nil {
		t.Error("Compare accepted a zero performed tempo")
	}
}

func TestCompareConsistency(t *testing.T) {
	series := tempo.NewSeries()
	series.Append(0, 0)   // seed, excluded
	series.Append(3, 120) // within 2%
	series.Append(6, 125) // ~4.2%, within 5%
	series.Append(9, 131) // ~9.2%, within 10%
	series.Append(12, 150) // outside all tiers

	c, err := Compare(120, 121, series)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	want := [3]float64{25, 50, 75}
	for i := range want {
		if math.Abs(c.Consistency[i]-want[i]) > 0.01 {
			t.Errorf("Consistency[%d] = %.1f%%, want %.0f%%", i, c.Consistency[i], want[i])
		}
	}
}

func TestComparisonRender(t *testing.T) {
	c, err := Compare(120, 118, nil)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	out := c.Render()
	for _, fragment := range []string{"TEMPO COMPARISON", "Reference", "120.0 BPM", "Performed", "118.0 BPM", c.Verdict} {
		if !strings.Contains(out, fragment) {
			t.Errorf("render output missing %q:\n%s", fragment, out)
		}
	}
}

func TestStabilityScore(t *testing.T) {
	steady := tempo.NewSeries()
	for i := 0; i < 5; i++ {
		steady.Append(float64(i*3), 120)
	}
	if got := StabilityScore(steady); got != 100 {
		t.Errorf("zero-spread score = %v, want 100", got)
	}

	wandering := tempo.NewSeries()
	for i, bpm := range []float64{80, 120, 160, 90, 150} {
		wandering.Append(float64(i*3), bpm)
	}
	if got := StabilityScore(wandering); got >= 100 {
		t.Errorf("wandering tempo score = %v, want < 100", got)
	}

	if got := StabilityScore(nil); got != 0 {
		t.Errorf("nil series score = %v, want 0", got)
	}

	single := tempo.NewSeries()
	single.Append(0, 120)
	if got := StabilityScore(single); got != 0 {
		t.Errorf("single reading score = %v, want 0", got)
	}
}
