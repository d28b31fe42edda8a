package logging

import (
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/linuxmatters/jivepulse/internal/tempo"
)

// Match verdict thresholds in percent difference from the reference tempo.
const (
	matchPerfect  = 2.0
	matchVeryGood = 5.0
	matchGood     = 10.0
	matchFair     = 15.0
)

// Comparison evaluates a recorded performance against a reference tempo.
type Comparison struct {
	ReferenceBPM float64
	PerformedBPM float64 // final estimate of the recorded session
	DiffBPM      float64
	DiffPercent  float64
	Verdict      string
	Feedback     string

	// Consistency is the share of recorded readings within 2/5/10 percent
	// of the reference, in that order. Zero-valued when no readings exist.
	Consistency [3]float64
}

// Compare builds a comparison between a reference tempo and a recorded
// session's series plus final estimate. Returns an error when either tempo
// is missing.
func Compare(referenceBPM, performedBPM float64, recorded *tempo.Series) (*Comparison, error) {
	if referenceBPM <= 0 {
		return nil, fmt.Errorf("no reference tempo to compare against")
	}
	if performedBPM <= 0 {
		return nil, fmt.Errorf("no tempo detected in the recording")
	}

	c := &Comparison{
		ReferenceBPM: referenceBPM,
		PerformedBPM: performedBPM,
	}
	c.DiffBPM = absFloat(referenceBPM - performedBPM)
	c.DiffPercent = c.DiffBPM / referenceBPM * 100
	c.Verdict, c.Feedback = verdict(c.DiffPercent, performedBPM < referenceBPM)

	if recorded != nil {
		var readings []float64
		for _, p := range recorded.Points() {
			if p.BPM > 0 {
				readings = append(readings, p.BPM)
			}
		}
		if len(readings) > 0 {
			for i, tolerance := range []float64{matchPerfect, matchVeryGood, matchGood} {
				within := 0
				for _, bpm := range readings {
					if absFloat(bpm-referenceBPM)/referenceBPM*100 <= tolerance {
						within++
					}
				}
				c.Consistency[i] = float64(within) / float64(len(readings)) * 100
			}
		}
	}
	return c, nil
}

// verdict maps a percent difference to a similarity tier and feedback line.
func verdict(diffPercent float64, tooSlow bool) (string, string) {
	direction := "slow down"
	if tooSlow {
		direction = "speed up"
	}
	switch {
	case diffPercent < matchPerfect:
		return "Perfect Match", "Excellent timing! You're perfectly in sync."
	case diffPercent < matchVeryGood:
		return "Very Good Match", "Great job! Your timing is very close."
	case diffPercent < matchGood:
		return "Good Match", "Good timing. Slight adjustments could make it perfect."
	case diffPercent < matchFair:
		return "Fair Match", fmt.Sprintf("Decent timing. Try to %s to match better.", direction)
	default:
		return "Not Well Matched", fmt.Sprintf("Significant timing difference. Try to %s considerably.", direction)
	}
}

// Render produces the textual comparison report.
func (c *Comparison) Render() string {
	var b strings.Builder
	b.WriteString("TEMPO COMPARISON\n")

	table := &MetricTable{}
	table.Add("Reference", "BPM", "%.1f", c.ReferenceBPM)
	table.Add("Performed", "BPM", "%.1f", c.PerformedBPM)
	table.Add("Difference", "BPM", "%.1f", c.DiffBPM)
	table.Add("Difference", "%", "%.1f", c.DiffPercent)
	if c.Consistency[0] > 0 || c.Consistency[1] > 0 || c.Consistency[2] > 0 {
		table.Add("Within 2%", "%", "%.0f", c.Consistency[0])
		table.Add("Within 5%", "%", "%.0f", c.Consistency[1])
		table.Add("Within 10%", "%", "%.0f", c.Consistency[2])
	}
	b.WriteString(table.String())

	fmt.Fprintf(&b, "\n  %s: %s\n", c.Verdict, c.Feedback)
	return b.String()
}

// StabilityScore rates rhythm steadiness from the spread of recorded
// readings: 100 is rock solid, lower means the tempo wandered.
func StabilityScore(recorded *tempo.Series) float64 {
	if recorded == nil {
		return 0
	}
	var readings []float64
	for _, p := range recorded.Points() {
		if p.BPM > 0 {
			readings = append(readings, p.BPM)
		}
	}
	if len(readings) < 2 {
		return 0
	}
	sd, err := stats.StandardDeviation(readings)
	if err != nil {
		return 0
	}
	score := 100 - sd*10
	if score < 0 {
		score = 0
	}
	return score
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
