package audio

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
)

// WAVWriter streams 16-bit mono PCM to a WAV file chunk by chunk, for
// recording a live capture session alongside analysis. The header is
// written with placeholder sizes and patched on Close. Safe for use from
// the capture goroutine while another goroutine closes it.
type WAVWriter struct {
	mu         sync.Mutex
	f          *os.File
	sampleRate int
	dataBytes  uint32
	closed     bool
}

// NewWAVWriter creates path and writes the provisional WAV header.
func NewWAVWriter(path string, sampleRate int) (*WAVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav file: %w", err)
	}
	w := &WAVWriter{f: f, sampleRate: sampleRate}
	if err := w.writeHeader(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	return w, nil
}

// WriteSamples appends float64 samples in [-1, 1] as 16-bit PCM.
// Writes after Close are ignored.
func (w *WAVWriter) WriteSamples(samples []float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}

	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(s*32767)))
	}
	if _, err := w.f.Write(buf); err != nil {
		return fmt.Errorf("write wav samples: %w", err)
	}
	w.dataBytes += uint32(len(buf))
	return nil
}

// Close patches the RIFF and data chunk sizes and closes the file.
func (w *WAVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	var sizes [4]byte
	binary.LittleEndian.PutUint32(sizes[:], 36+w.dataBytes)
	if _, err := w.f.WriteAt(sizes[:], 4); err != nil {
		w.f.Close()
		return fmt.Errorf("patch wav riff size: %w", err)
	}
	binary.LittleEndian.PutUint32(sizes[:], w.dataBytes)
	if _, err := w.f.WriteAt(sizes[:], 40); err != nil {
		w.f.Close()
		return fmt.Errorf("patch wav data size: %w", err)
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("close wav file: %w", err)
	}
	return nil
}

// writeHeader emits the 44-byte canonical PCM WAV header with zero sizes.
func (w *WAVWriter) writeHeader() error {
	const (
		numChannels   = 1
		bitsPerSample = 16
	)
	byteRate := w.sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8

	header := make([]byte, 0, 44)
	header = append(header, "RIFF"...)
	header = binary.LittleEndian.AppendUint32(header, 0) // patched on Close
	header = append(header, "WAVE"...)
	header = append(header, "fmt "...)
	header = binary.LittleEndian.AppendUint32(header, 16)
	header = binary.LittleEndian.AppendUint16(header, 1) // PCM
	header = binary.LittleEndian.AppendUint16(header, numChannels)
	header = binary.LittleEndian.AppendUint32(header, uint32(w.sampleRate))
	header = binary.LittleEndian.AppendUint32(header, uint32(byteRate))
	header = binary.LittleEndian.AppendUint16(header, uint16(blockAlign))
	header = binary.LittleEndian.AppendUint16(header, bitsPerSample)
	header = append(header, "data"...)
	header = binary.LittleEndian.AppendUint32(header, 0) // patched on Close

	if _, err := w.f.Write(header); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}
	return nil
}
