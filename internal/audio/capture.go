package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
)

// DefaultChunkSize is the capture delivery size in samples (~23ms at 44.1kHz).
const DefaultChunkSize = 1024

// ErrCaptureUnsupported is returned when no capture backend exists for the
// current platform.
var ErrCaptureUnsupported = errors.New("audio capture not supported on this platform")

// CaptureConfig configures microphone capture.
type CaptureConfig struct {
	SampleRate int    // samples per second (DefaultSampleRate when 0)
	ChunkSize  int    // samples per delivered chunk (DefaultChunkSize when 0)
	Device     string // platform device identifier (backend default when empty)
}

// Capture streams mono PCM from the default recording backend (arecord on
// Linux, ffmpeg elsewhere) and delivers float64 chunks in [-1, 1] to a
// callback from its own reader goroutine.
type Capture struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser

	wg       sync.WaitGroup
	stopOnce sync.Once
	err      error
}

// StartCapture launches the capture process. Each arriving chunk is passed
// to onChunk; the callback must not block for long or capture will fall
// behind the hardware buffer.
func StartCapture(cfg CaptureConfig, onChunk func([]float64)) (*Capture, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}

	name, args, err := captureCommand(cfg)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(name, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("capture stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start capture %s: %w", name, err)
	}

	c := &Capture{cmd: cmd, stdout: stdout}
	c.wg.Add(1)
	go c.readLoop(cfg.ChunkSize, onChunk)
	return c, nil
}

// readLoop converts s16le from the capture process into float64 chunks.
func (c *Capture) readLoop(chunkSize int, onChunk func([]float64)) {
	defer c.wg.Done()

	raw := make([]byte, chunkSize*2)
	for {
		if _, err := io.ReadFull(c.stdout, raw); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.ErrClosedPipe) {
				c.err = err
			}
			return
		}
		chunk := make([]float64, chunkSize)
		for i := range chunk {
			chunk[i] = float64(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768.0
		}
		onChunk(chunk)
	}
}

// Stop terminates the capture process and waits for the reader goroutine.
// Returns any read error observed before stopping.
func (c *Capture) Stop() error {
	c.stopOnce.Do(func() {
		if c.cmd.Process != nil {
			_ = c.cmd.Process.Kill()
		}
		_ = c.stdout.Close()
		c.wg.Wait()
		_ = c.cmd.Wait()
	})
	return c.err
}

// captureCommand returns the platform capture command producing raw s16le
// mono PCM on stdout.
func captureCommand(cfg CaptureConfig) (string, []string, error) {
	rate := strconv.Itoa(cfg.SampleRate)
	switch runtime.GOOS {
	case "linux":
		device := cfg.Device
		if device == "" {
			device = "default"
		}
		return "arecord", []string{
			"-D", device,
			"-f", "S16_LE",
			"-r", rate,
			"-c", "1",
			"-t", "raw",
			"-q",
			"-",
		}, nil
	case "darwin":
		device := cfg.Device
		if device == "" {
			device = ":0"
		}
		return "ffmpeg", []string{
			"-hide_banner", "-v", "error",
			"-f", "avfoundation",
			"-i", device,
			"-ac", "1",
			"-ar", rate,
			"-f", "s16le",
			"pipe:1",
		}, nil
	case "windows":
		if cfg.Device == "" {
			return "", nil, fmt.Errorf("%w: a DirectShow device name is required", ErrCaptureUnsupported)
		}
		return "ffmpeg", []string{
			"-hide_banner", "-v", "error",
			"-f", "dshow",
			"-i", "audio=" + cfg.Device,
			"-ac", "1",
			"-ar", rate,
			"-f", "s16le",
			"pipe:1",
		}, nil
	default:
		return "", nil, ErrCaptureUnsupported
	}
}
