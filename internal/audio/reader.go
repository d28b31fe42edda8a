// Package audio provides the audio I/O collaborators for the tempo engine:
// file decoding, microphone capture and WAV recording. Decoding and capture
// shell out to ffmpeg so any installed codec works without CGo.
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultSampleRate is the rate all analysis audio is resampled to.
const DefaultSampleRate = 44100

// decodeTimeout bounds a single ffmpeg decode invocation.
const decodeTimeout = 5 * time.Minute

// Metadata describes a decoded audio file.
type Metadata struct {
	Duration   float64 // seconds
	SampleRate int
	Channels   int
}

// DecodeFile decodes an audio file to mono float64 PCM in [-1, 1] at the
// given sample rate (DefaultSampleRate when rate <= 0). Channels are downmixed
// and the stream resampled by ffmpeg.
func DecodeFile(path string, sampleRate int) ([]float64, *Metadata, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("stat input file: %w", err)
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	ctx, cancel := context.WithTimeout(context.Background(), decodeTimeout)
	defer cancel()

	channels, _ := probeChannels(path)

	args := []string{
		"-hide_banner", "-v", "error",
		"-i", path,
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-f", "f32le",
		"pipe:1",
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var out bytes.Buffer
	var errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, nil, fmt.Errorf("ffmpeg decode %s: %w: %s", path, err, strings.TrimSpace(errBuf.String()))
	}

	raw := out.Bytes()
	if len(raw)%4 != 0 {
		return nil, nil, fmt.Errorf("ffmpeg decode %s: truncated f32le stream", path)
	}
	samples := make([]float64, len(raw)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		samples[i] = float64(math.Float32frombits(bits))
	}

	meta := &Metadata{
		Duration:   float64(len(samples)) / float64(sampleRate),
		SampleRate: sampleRate,
		Channels:   channels,
	}
	return samples, meta, nil
}

// probeChannels reads the source channel count via ffprobe. Best effort:
// returns 0 when ffprobe is unavailable or the file has no audio stream.
func probeChannels(path string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-hide_banner", "-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=channels",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	channels, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: parse channels: %w", path, err)
	}
	return channels, nil
}
