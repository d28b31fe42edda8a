package tempo

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Point is one (elapsed seconds, BPM) sample in a tempo time series.
// A BPM value <= 0 means "no estimate available at this time"; such points
// are kept for charting continuity but excluded from statistics.
type Point struct {
	Elapsed float64
	BPM     float64
}

// Series is an append-only, insertion-ordered tempo time series.
// It is not safe for concurrent use; the streaming engine serializes access.
type Series struct {
	points []Point
}

// SeriesStats summarizes the positive BPM values of a series.
type SeriesStats struct {
	Count  int // total points, including no-estimate markers
	Valid  int // points with a positive BPM
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	StdDev float64
}

// NewSeries creates an empty series.
func NewSeries() *Series {
	return &Series{}
}

// Append adds a point. Elapsed times are expected to be non-decreasing;
// out-of-order points are clamped to the last recorded time so the series
// stays monotonic for charting.
func (s *Series) Append(elapsed, bpm float64) {
	if n := len(s.points); n > 0 && elapsed < s.points[n-1].Elapsed {
		elapsed = s.points[n-1].Elapsed
	}
	s.points = append(s.points, Point{Elapsed: elapsed, BPM: bpm})
}

// Len returns the number of points.
func (s *Series) Len() int { return len(s.points) }

// Points returns a copy of all points in insertion order.
func (s *Series) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Last returns the most recent point, or a zero Point when empty.
func (s *Series) Last() Point {
	if len(s.points) == 0 {
		return Point{}
	}
	return s.points[len(s.points)-1]
}

// Clone returns an independent copy of the series. The streaming engine
// uses this to freeze a finished recording before starting a new one.
func (s *Series) Clone() *Series {
	return &Series{points: s.Points()}
}

// Stats computes summary statistics over the positive BPM values.
// No-estimate points count toward Count but not toward any statistic.
func (s *Series) Stats() SeriesStats {
	st := SeriesStats{Count: len(s.points)}

	valid := make([]float64, 0, len(s.points))
	for _, p := range s.points {
		if p.BPM > 0 {
			valid = append(valid, p.BPM)
		}
	}
	st.Valid = len(valid)
	if st.Valid == 0 {
		return st
	}

	st.Min, _ = stats.Min(valid)
	st.Max, _ = stats.Max(valid)
	st.Mean, _ = stats.Mean(valid)
	st.Median, _ = stats.Median(valid)
	if st.Valid > 1 {
		sd, err := stats.StandardDeviation(valid)
		if err == nil && !math.IsNaN(sd) {
			st.StdDev = sd
		}
	}
	return st
}
