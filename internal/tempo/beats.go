package tempo

import "math"

// detectBeats picks beat timestamps (seconds) from a combined onset curve.
//
// Each interior frame is compared against an adaptive threshold formed from
// the trailing window's local mean plus ThresholdK local standard deviations.
// A frame is a peak when it exceeds both neighbours and the threshold.
// Accepted peaks closer than MinBeatGap to the previously accepted beat are
// dropped, keeping the first of any cluster.
func (a *Analyzer) detectBeats(onset []float64, sampleRate int) []float64 {
	if len(onset) < 3 {
		return nil
	}

	hopSeconds := float64(a.cfg.HopSize) / float64(sampleRate)

	var beats []float64
	for i := 1; i < len(onset)-1; i++ {
		if onset[i] <= onset[i-1] || onset[i] <= onset[i+1] {
			continue
		}

		start := max(0, i-a.cfg.ThresholdWindow)
		mean, std := meanStd(onset[start : i+1])
		threshold := mean + a.cfg.ThresholdK*std
		if onset[i] <= threshold {
			continue
		}

		t := float64(i) * hopSeconds
		if len(beats) > 0 && t-beats[len(beats)-1] < a.cfg.MinBeatGap {
			continue
		}
		beats = append(beats, t)
	}
	return beats
}

// meanStd computes the mean and population standard deviation of a window.
// Hand-rolled rather than going through a stats library: this runs once per
// frame inside the detection loop.
func meanStd(window []float64) (mean, std float64) {
	n := float64(len(window))
	if n == 0 {
		return 0, 0
	}
	for _, v := range window {
		mean += v
	}
	mean /= n

	var sq float64
	for _, v := range window {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / n)
}
