package player

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"
)

// wavFile builds a minimal RIFF/WAVE container with the given byte rate and
// data payload size.
func wavFile(byteRate, dataSize uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))     // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1))     // mono
	binary.Write(&buf, binary.LittleEndian, uint32(44100)) // sample rate
	binary.Write(&buf, binary.LittleEndian, byteRate)
	binary.Write(&buf, binary.LittleEndian, uint16(2))  // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16)) // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataSize)
	buf.Write(make([]byte, dataSize))
	return buf.Bytes()
}

func TestProbeDurationWav(t *testing.T) {
	tests := []struct {
		name     string
		byteRate uint32
		dataSize uint32
		want     time.Duration
	}{
		{"two seconds", 88200, 176400, 2 * time.Second},
		{"half second", 88200, 44100, 500 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ProbeDuration(wavFile(tt.byteRate, tt.dataSize))
			if err != nil {
				t.Fatalf("probe: %v", err)
			}
			if got != tt.want {
				t.Fatalf("want %v, got %v", tt.want, got)
			}
		})
	}
}

func TestProbeDurationBadWav(t *testing.T) {
	data := []byte("RIFF\x00\x00\x00\x00WAVE")
	if _, err := ProbeDuration(data); err == nil {
		t.Fatal("want error for wav without chunks")
	}
}

func TestProbeDurationGarbage(t *testing.T) {
	if _, err := ProbeDuration([]byte("not audio at all")); err == nil {
		t.Fatal("want error for undecodable data")
	}
}
