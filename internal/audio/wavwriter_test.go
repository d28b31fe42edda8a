package audio

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestWAVWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.wav")

	w, err := NewWAVWriter(path, 44100)
	if err != nil {
		t.Fatalf("NewWAVWriter failed: %v", err)
	}

	// Two chunks, the way the capture callback delivers them.
	want := []float64{0, 0.5, -0.5, 1.0, -1.0, 0.25}
	if err := w.WriteSamples(want[:3]); err != nil {
		t.Fatalf("WriteSamples failed: %v", err)
	}
	if err := w.WriteSamples(want[3:]); err != nil {
		t.Fatalf("WriteSamples failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading wav: %v", err)
	}
	if len(data) != 44+len(want)*2 {
		t.Fatalf("file is %d bytes, want %d", len(data), 44+len(want)*2)
	}

	// Header fields, including the sizes patched on Close.
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE markers")
	}
	if got := binary.LittleEndian.Uint32(data[4:8]); got != uint32(36+len(want)*2) {
		t.Errorf("RIFF size = %d, want %d", got, 36+len(want)*2)
	}
	if got := binary.LittleEndian.Uint16(data[22:24]); got != 1 {
		t.Errorf("channels = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != 44100 {
		t.Errorf("sample rate = %d, want 44100", got)
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != uint32(len(want)*2) {
		t.Errorf("data size = %d, want %d", got, len(want)*2)
	}

	// Samples survive the 16-bit round trip within quantization error.
	for i, wv := range want {
		raw := int16(binary.LittleEndian.Uint16(data[44+i*2:]))
		got := float64(raw) / 32767.0
		if math.Abs(got-wv) > 1.0/32767.0 {
			t.Errorf("sample %d = %v, want %v", i, got, wv)
		}
	}
}

func TestWAVWriterClampsAndIgnoresAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clamp.wav")

	w, err := NewWAVWriter(path, 44100)
	if err != nil {
		t.Fatalf("NewWAVWriter failed: %v", err)
	}
	if err := w.WriteSamples([]float64{2.0, -2.0}); err != nil {
		t.Fatalf("WriteSamples failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Late capture chunks and double closes are no-ops.
	if err := w.WriteSamples([]float64{0.5}); err != nil {
		t.Errorf("WriteSamples after Close errored: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close errored: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading wav: %v", err)
	}
	if len(data) != 48 {
		t.Fatalf("file is %d bytes, want 48", len(data))
	}
	if got := int16(binary.LittleEndian.Uint16(data[44:])); got != 32767 {
		t.Errorf("over-range sample = %d, want 32767", got)
	}
	if got := int16(binary.LittleEndian.Uint16(data[46:])); got != -32767 {
		t.Errorf("under-range sample = %d, want -32767", got)
	}
}
