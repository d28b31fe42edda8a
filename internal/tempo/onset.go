package tempo

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// onsetCurve holds the per-frame energy and spectral flux sequences.
// Frame i covers samples [i*hop, i*hop+frame). Flux is one element shorter
// than energy because the first frame has no predecessor spectrum.
type onsetCurve struct {
	energy []float64
	flux   []float64
}

// frameCount returns how many full frames fit in n samples.
func (c Config) frameCount(n int) int {
	if n < c.FrameSize {
		return 0
	}
	return (n-c.FrameSize)/c.HopSize + 1
}

// extractOnsetCurve computes the RMS energy and spectral flux per frame.
// Returns an empty curve when the buffer is shorter than one frame; the rest
// of the pipeline propagates that as "no beats".
func (a *Analyzer) extractOnsetCurve(samples []float64) onsetCurve {
	frames := a.cfg.frameCount(len(samples))
	if frames == 0 {
		return onsetCurve{}
	}

	curve := onsetCurve{
		energy: make([]float64, 0, frames),
		flux:   make([]float64, 0, frames-1),
	}

	frameSize := a.cfg.FrameSize
	bins := frameSize/2 + 1
	buf := make([]float64, frameSize)
	prevMag := make([]float64, bins)
	mag := make([]float64, bins)
	havePrev := false

	for start := 0; start+frameSize <= len(samples); start += a.cfg.HopSize {
		frame := samples[start : start+frameSize]

		// RMS energy envelope.
		var sum float64
		for _, s := range frame {
			sum += s * s
		}
		curve.energy = append(curve.energy, math.Sqrt(sum/float64(frameSize)))

		// Hann-windowed magnitude spectrum.
		for k, s := range frame {
			buf[k] = s * a.window[k]
		}
		coeffs := a.fft.Coefficients(a.coeffs, buf)
		for k, cv := range coeffs {
			mag[k] = math.Hypot(real(cv), imag(cv))
		}

		// Spectral flux: sum of squared positive magnitude increases.
		if havePrev {
			var fv float64
			for k := range mag {
				if d := mag[k] - prevMag[k]; d > 0 {
					fv += d * d
				}
			}
			curve.flux = append(curve.flux, fv)
		}
		prevMag, mag = mag, prevMag
		havePrev = true
	}

	normalizeToPeak(curve.flux)
	return curve
}

// combined blends energy and flux into a single onset strength curve over
// their overlapping index range.
func (a *Analyzer) combined(curve onsetCurve) []float64 {
	n := min(len(curve.energy), len(curve.flux))
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = a.cfg.EnergyWeight*curve.energy[i] + a.cfg.FluxWeight*curve.flux[i]
	}
	return out
}

// normalizeToPeak scales values by their maximum in place. No-op when the
// maximum is zero or the slice is empty.
func normalizeToPeak(values []float64) {
	var peak float64
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}
	if peak <= 0 {
		return
	}
	for i := range values {
		values[i] /= peak
	}
}

// newFFTPlan builds the reusable FFT plan and Hann window for a frame size.
func newFFTPlan(frameSize int) (*fourier.FFT, []float64, []complex128) {
	window := make([]float64, frameSize)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(frameSize-1)))
	}
	return fourier.NewFFT(frameSize), window, make([]complex128, frameSize/2+1)
}
