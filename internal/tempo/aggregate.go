package tempo

import (
	"sort"

	"github.com/montanaflynn/stats"
)

const (
	// clusterGapRatio is the relative gap that separates harmonic clusters.
	// Candidates from subdivision ratios sit an octave apart (2x), genuine
	// jitter around one tempo stays within a few percent.
	clusterGapRatio = 1.25

	// Preferred tactus range used to break ties between equally supported
	// harmonic clusters. Most perceived pulses fall in 90-180 BPM.
	tactusMin = 90.0
	tactusMax = 180.0
)

// aggregate reduces a list of BPM candidates to a single estimate.
//
// Three stages: an IQR fence rejects spurious high/low candidates, harmonic
// cluster selection resolves the subdivision ambiguity the candidate
// generator deliberately introduces (a 0.5 s interval contributes both 60
// and 120), then a trailing moving average smooths the winning cluster.
// When the fence rejects everything the median of the unfiltered candidates
// is used, and when too few candidates survive for the moving average the
// plain mean is returned. Returns 0 for empty input.
func (a *Analyzer) aggregate(candidates []float64) float64 {
	if len(candidates) == 0 {
		return 0
	}

	filtered := filterOutliersIQR(candidates)
	if len(filtered) == 0 {
		med, err := stats.Median(candidates)
		if err != nil {
			return 0
		}
		return med
	}

	filtered = dominantCluster(filtered)

	if len(filtered) >= a.cfg.SmoothingWindow {
		smoothed := movingAverage(filtered, a.cfg.SmoothingWindow)
		mean, err := stats.Mean(smoothed)
		if err != nil {
			return 0
		}
		return mean
	}

	mean, err := stats.Mean(filtered)
	if err != nil {
		return 0
	}
	return mean
}

// filterOutliersIQR keeps values inside [Q1-1.5*IQR, Q3+1.5*IQR].
// Percentiles rather than Quartile here: Quartile's split-halves quartiles
// widen the fence enough on small odd-length inputs to let gross outliers
// through.
func filterOutliersIQR(values []float64) []float64 {
	q1, err := stats.Percentile(values, 25)
	if err != nil {
		return nil
	}
	q3, err := stats.Percentile(values, 75)
	if err != nil {
		return nil
	}
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	filtered := make([]float64, 0, len(values))
	for _, v := range values {
		if v >= lower && v <= upper {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// dominantCluster picks the harmonic cluster with the most support and
// returns its members in their original order. Values are clustered by
// sorting and splitting wherever consecutive values are more than
// clusterGapRatio apart. Ties on support go to the cluster whose median
// falls in the preferred tactus range, then to the faster cluster (equal
// support between a tempo and its half means the faster value is the
// measured pulse and the slower its half-time shadow).
func dominantCluster(values []float64) []float64 {
	if len(values) < 2 {
		return values
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	type cluster struct {
		lo, hi float64
		count  int
	}
	clusters := []cluster{{lo: sorted[0], hi: sorted[0], count: 1}}
	for _, v := range sorted[1:] {
		last := &clusters[len(clusters)-1]
		if v > last.hi*clusterGapRatio {
			clusters = append(clusters, cluster{lo: v, hi: v, count: 1})
		} else {
			last.hi = v
			last.count++
		}
	}
	if len(clusters) == 1 {
		return values
	}

	best := clusters[0]
	for _, c := range clusters[1:] {
		if c.count > best.count {
			best = c
			continue
		}
		if c.count < best.count {
			continue
		}
		bestCenter := (best.lo + best.hi) / 2
		center := (c.lo + c.hi) / 2
		bestInRange := bestCenter >= tactusMin && bestCenter <= tactusMax
		inRange := center >= tactusMin && center <= tactusMax
		if inRange && !bestInRange {
			best = c
		} else if inRange == bestInRange && center > bestCenter {
			best = c
		}
	}

	kept := make([]float64, 0, best.count)
	for _, v := range values {
		if v >= best.lo && v <= best.hi {
			kept = append(kept, v)
		}
	}
	return kept
}

// movingAverage computes overlapping trailing window means, sliding by one.
// The caller guarantees len(values) >= window.
func movingAverage(values []float64, window int) []float64 {
	out := make([]float64, 0, len(values)-window+1)
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out = append(out, sum/float64(window))
		}
	}
	return out
}
