// Package stream maintains a live tempo estimate over a continuously
// arriving audio stream by running the batch pipeline on overlapping
// windows of a rolling buffer and fusing the results over time.
package stream

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/linuxmatters/jivepulse/internal/tempo"
)

// Streaming defaults. The phase thresholds and segment counts were tuned
// empirically; they are exposed as configuration rather than derived.
const (
	// DefaultBufferSeconds bounds the rolling sample buffer.
	DefaultBufferSeconds = 10.0

	// DefaultColdStartSeconds is the minimum buffered audio for the quick
	// single-window estimate that gives an immediate, if noisy, reading.
	DefaultColdStartSeconds = 2.0

	// DefaultStableSeconds is the buffered audio required for the
	// multi-window consensus estimate.
	DefaultStableSeconds = 7.0

	// DefaultSegmentSeconds is the analysis sub-window length and
	// DefaultSegmentOverlap the overlap fraction between sub-windows.
	DefaultSegmentSeconds = 5.0
	DefaultSegmentOverlap = 0.5

	// DefaultLiveSegments is how many overlapping sub-windows feed each
	// stable-phase consensus.
	DefaultLiveSegments = 3

	// DefaultFinalMaxSegments caps the post-recording analysis segments.
	DefaultFinalMaxSegments = 5

	// DefaultHistorySize bounds the consensus history ring.
	DefaultHistorySize = 20

	// DefaultSmoothingAlpha is the exponential moving average factor
	// applied over the median-filtered history.
	DefaultSmoothingAlpha = 0.3

	// DefaultPollInterval is the internal estimate-refresh cadence.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultSampleInterval is the series reporting cadence. It governs
	// chart density independently of the poll cadence and is user
	// selectable between MinSampleInterval and MaxSampleInterval.
	DefaultSampleInterval = 3 * time.Second
	MinSampleInterval     = 1 * time.Second
	MaxSampleInterval     = 10 * time.Second
)

// Config holds the tunable parameters for a streaming Engine.
type Config struct {
	// SampleRate is the default stream sample rate, used when Start is
	// called with a non-positive rate.
	SampleRate int `validate:"gt=0"`

	// BufferSeconds bounds the rolling buffer to the most recent audio.
	BufferSeconds float64 `validate:"gt=0"`

	// ColdStartSeconds and StableSeconds are the phase thresholds.
	ColdStartSeconds float64 `validate:"gt=0"`
	StableSeconds    float64 `validate:"gt=0,gtfield=ColdStartSeconds"`

	// SegmentSeconds and SegmentOverlap shape the analysis sub-windows.
	SegmentSeconds float64 `validate:"gt=0"`
	SegmentOverlap float64 `validate:"gte=0,lt=1"`

	// LiveSegments is the sub-window count per stable-phase update.
	LiveSegments int `validate:"gt=0"`

	// FinalMaxSegments caps the segments of the final full-buffer pass.
	FinalMaxSegments int `validate:"gt=0"`

	// HistorySize bounds the consensus history.
	HistorySize int `validate:"gt=0"`

	// SmoothingAlpha is the EMA factor over the filtered history.
	SmoothingAlpha float64 `validate:"gt=0,lte=1"`

	// PollInterval is the cadence used by Run. Poll itself is cadence
	// agnostic; the host owns scheduling.
	PollInterval time.Duration `validate:"gt=0"`

	// SampleInterval is the series reporting cadence (1-10s).
	SampleInterval time.Duration

	// Tempo configures the underlying batch pipeline.
	Tempo tempo.Config
}

// DefaultConfig returns the standard streaming configuration for a rate.
func DefaultConfig(sampleRate int) Config {
	return Config{
		SampleRate:       sampleRate,
		BufferSeconds:    DefaultBufferSeconds,
		ColdStartSeconds: DefaultColdStartSeconds,
		StableSeconds:    DefaultStableSeconds,
		SegmentSeconds:   DefaultSegmentSeconds,
		SegmentOverlap:   DefaultSegmentOverlap,
		LiveSegments:     DefaultLiveSegments,
		FinalMaxSegments: DefaultFinalMaxSegments,
		HistorySize:      DefaultHistorySize,
		SmoothingAlpha:   DefaultSmoothingAlpha,
		PollInterval:     DefaultPollInterval,
		SampleInterval:   DefaultSampleInterval,
		Tempo:            tempo.DefaultConfig(),
	}
}

// validate is the shared validator instance for config checking.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for correctness.
func (c Config) Validate() error {
	if err := validate.StructExcept(c, "Tempo"); err != nil {
		return fmt.Errorf("invalid stream config: %w", err)
	}
	if c.SampleInterval < MinSampleInterval || c.SampleInterval > MaxSampleInterval {
		return fmt.Errorf("invalid stream config: sample interval %s outside [%s, %s]",
			c.SampleInterval, MinSampleInterval, MaxSampleInterval)
	}
	if c.SegmentSeconds > c.StableSeconds {
		return fmt.Errorf("invalid stream config: segment length %.1fs exceeds stable window %.1fs",
			c.SegmentSeconds, c.StableSeconds)
	}
	if c.StableSeconds > c.BufferSeconds {
		return fmt.Errorf("invalid stream config: stable window %.1fs exceeds buffer %.1fs",
			c.StableSeconds, c.BufferSeconds)
	}
	return c.Tempo.Validate()
}
