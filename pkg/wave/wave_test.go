package wave

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeWav writes a mono 16-bit PCM wav file with the given samples.
func writeWav(t *testing.T, rate int, samples []int16) string {
	t.Helper()
	var pcm bytes.Buffer
	for _, s := range samples {
		binary.Write(&pcm, binary.LittleEndian, s)
	}
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+pcm.Len()))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(rate))
	binary.Write(&buf, binary.LittleEndian, uint32(rate*2)) // byte rate
	binary.Write(&buf, binary.LittleEndian, uint16(2))      // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16))     // bits
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(pcm.Len()))
	buf.Write(pcm.Bytes())

	path := filepath.Join(t.TempDir(), "test.wav")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	return path
}

func TestNewWav(t *testing.T) {
	samples := make([]int16, 8000)
	for i := range samples {
		samples[i] = int16(i % 1000)
	}
	path := writeWav(t, 8000, samples)
	p, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := p.Duration(); got != time.Second {
		t.Fatalf("want 1s, got %v", got)
	}
}

func TestResampleKeepsEnvelope(t *testing.T) {
	// One second of samples alternating between a loud and a quiet value.
	samples := make([]int16, 8000)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 16384 // 0.5
		} else {
			samples[i] = -16384
		}
	}
	path := writeWav(t, 8000, samples)
	p, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	data := p.Resample(100 * time.Millisecond)
	// 10 windows, a min/max pair each.
	if len(data) != 20 {
		t.Fatalf("want 20 points, got %d", len(data))
	}
	for i := 0; i < len(data); i += 2 {
		if data[i] > -0.4 || data[i+1] < 0.4 {
			t.Fatalf("envelope lost at window %d: min=%v max=%v", i/2, data[i], data[i+1])
		}
	}
}

func TestNewRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.mp3")
	if err := os.WriteFile(path, []byte("not audio"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path); err == nil {
		t.Fatal("want error for undecodable file")
	}
}
