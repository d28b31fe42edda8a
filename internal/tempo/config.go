// Package tempo implements beat detection and BPM estimation for mono PCM audio.
package tempo

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Default analysis parameters.
// Frame and hop sizes follow the common 2048/512 STFT layout; the remaining
// values were tuned empirically against click tracks and recorded music.
const (
	// DefaultFrameSize is the analysis frame length in samples.
	DefaultFrameSize = 2048

	// DefaultHopSize is the step between consecutive frames in samples.
	DefaultHopSize = 512

	// DefaultEnergyWeight and DefaultFluxWeight blend the RMS energy and
	// spectral flux curves into the combined onset strength.
	DefaultEnergyWeight = 0.7
	DefaultFluxWeight   = 0.3

	// DefaultThresholdWindow is the trailing window (in frames) for the
	// adaptive peak threshold. Roughly 0.35s at 44.1kHz with a 512 hop.
	DefaultThresholdWindow = 30

	// DefaultThresholdK scales the local standard deviation added to the
	// local mean when forming the adaptive threshold.
	DefaultThresholdK = 1.3

	// DefaultMinBeatGap is the refractory interval in seconds. Candidate
	// beats closer than this to the previously accepted beat are merged.
	DefaultMinBeatGap = 0.05

	// DefaultMinBPM and DefaultMaxBPM bound accepted tempo candidates.
	DefaultMinBPM = 40.0
	DefaultMaxBPM = 220.0

	// DefaultSmoothingWindow is the moving-average window applied to
	// IQR-filtered candidates when enough of them survive.
	DefaultSmoothingWindow = 3
)

// subdivisionRatios enumerates the harmonic ratios tried per beat interval.
// Raw inter-beat intervals conflate quarter/eighth/half-note pulses; walking
// the ratios lets the outlier filter converge on the dominant pulse.
var subdivisionRatios = []float64{0.5, 1.0, 2.0}

// Config holds the tunable parameters for a tempo Analyzer.
// The zero value is not usable; start from DefaultConfig.
type Config struct {
	// FrameSize is the analysis frame length in samples.
	FrameSize int `validate:"gte=64"`

	// HopSize is the step between frames. Must be smaller than FrameSize.
	HopSize int `validate:"gt=0,ltfield=FrameSize"`

	// EnergyWeight and FluxWeight blend the onset curves. They are not
	// required to sum to one but both must be non-negative.
	EnergyWeight float64 `validate:"gte=0"`
	FluxWeight   float64 `validate:"gte=0"`

	// ThresholdWindow is the trailing window length (frames) used for the
	// adaptive peak threshold.
	ThresholdWindow int `validate:"gt=0"`

	// ThresholdK scales the local standard deviation in the threshold.
	ThresholdK float64 `validate:"gt=0"`

	// MinBeatGap is the beat refractory interval in seconds.
	MinBeatGap float64 `validate:"gt=0"`

	// MinBPM and MaxBPM bound accepted tempo candidates.
	MinBPM float64 `validate:"gt=0"`
	MaxBPM float64 `validate:"gt=0,gtfield=MinBPM"`

	// SmoothingWindow is the moving-average window for filtered candidates.
	SmoothingWindow int `validate:"gte=2"`
}

// DefaultConfig returns the standard analyzer configuration.
func DefaultConfig() Config {
	return Config{
		FrameSize:       DefaultFrameSize,
		HopSize:         DefaultHopSize,
		EnergyWeight:    DefaultEnergyWeight,
		FluxWeight:      DefaultFluxWeight,
		ThresholdWindow: DefaultThresholdWindow,
		ThresholdK:      DefaultThresholdK,
		MinBeatGap:      DefaultMinBeatGap,
		MinBPM:          DefaultMinBPM,
		MaxBPM:          DefaultMaxBPM,
		SmoothingWindow: DefaultSmoothingWindow,
	}
}

// validate is the shared validator instance for config checking.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for correctness. Misconfiguration is the
// only fatal error class in this package: all later analysis calls report
// degenerate input as a zero estimate instead.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid tempo config: %w", err)
	}
	return nil
}
