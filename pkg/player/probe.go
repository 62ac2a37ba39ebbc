package player

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// ProbeDuration inspects raw audio bytes and returns the stream duration.
// The service streams WAV by default; MP3 is handled for sources that went
// through the server-side codec.
func ProbeDuration(data []byte) (time.Duration, error) {
	if len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")) {
		return wavDuration(data)
	}
	return mp3Duration(data)
}

// wavDuration walks the RIFF chunks for the byte rate and data size.
func wavDuration(data []byte) (time.Duration, error) {
	var byteRate uint32
	var dataSize uint32
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		body := offset + 8
		switch id {
		case "fmt ":
			if body+12 > len(data) {
				return 0, errors.New("player: truncated wav fmt chunk")
			}
			byteRate = binary.LittleEndian.Uint32(data[body+8 : body+12])
		case "data":
			dataSize = size
		}
		offset = body + int(size)
		if size%2 == 1 {
			offset++
		}
	}
	if byteRate == 0 || dataSize == 0 {
		return 0, errors.New("player: couldn't read wav header")
	}
	seconds := float64(dataSize) / float64(byteRate)
	return time.Duration(seconds * float64(time.Second)), nil
}

// mp3Duration decodes the frame stream; go-mp3 always outputs 16-bit stereo
// at the source sample rate.
func mp3Duration(data []byte) (time.Duration, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("player: couldn't decode mp3: %w", err)
	}
	seconds := float64(decoder.Length()) / float64(4*decoder.SampleRate())
	return time.Duration(seconds * float64(time.Second)), nil
}
