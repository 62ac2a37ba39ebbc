package wave

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Preview renders a local waveform image of a source asset so the user can
// eyeball it before committing to a remix.
type Preview struct {
	mono     []float64
	rate     int
	duration time.Duration
}

// New decodes a local MP3 or WAV file into a preview.
func New(path string) (*Preview, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wave: couldn't read file: %w", err)
	}
	var mono []float64
	var rate int
	switch {
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")):
		mono, rate, err = decodeWav(data)
	case strings.HasSuffix(strings.ToLower(path), ".mp3"):
		mono, rate, err = decodeMp3(data)
	default:
		mono, rate, err = decodeMp3(data)
	}
	if err != nil {
		return nil, err
	}
	if rate == 0 || len(mono) == 0 {
		return nil, errors.New("wave: empty audio stream")
	}
	duration := time.Duration(float64(len(mono)) / float64(rate) * float64(time.Second))
	return &Preview{
		mono:     mono,
		rate:     rate,
		duration: duration,
	}, nil
}

func (p *Preview) Duration() time.Duration {
	return p.duration
}

// Resample reduces the stream to min/max pairs per window so the rendered
// line keeps the envelope shape.
func (p *Preview) Resample(windowSize time.Duration) []float64 {
	windowLength := int(float64(p.rate) * windowSize.Seconds())
	if windowLength <= 0 {
		windowLength = 1
	}
	var resampled []float64
	for i := 0; i < len(p.mono); i += windowLength {
		end := i + windowLength
		if end > len(p.mono) {
			end = len(p.mono)
		}
		window := p.mono[i:end]
		var min, max float64
		for _, v := range window {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		resampled = append(resampled, min, max)
	}
	return resampled
}

// PNG renders the waveform to PNG bytes.
func (p *Preview) PNG(title string) ([]byte, error) {
	window := 50 * time.Millisecond
	data := p.Resample(window)

	plt := plot.New()
	plt.Y.Min = -1
	plt.Y.Max = 1
	plt.Title.Text = fmt.Sprintf("%s %s", title, p.duration.Round(time.Second))
	plt.X.Label.Text = "time"

	pts := make(plotter.XYs, len(data))
	for i, d := range data {
		pts[i].X = float64(i) * window.Seconds() * 0.5
		pts[i].Y = d
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("wave: couldn't create line plotter: %w", err)
	}
	l.LineStyle.Width = vg.Points(1)
	plt.Add(l)

	w, err := plt.WriterTo(16*vg.Centimeter, 6*vg.Centimeter, "png")
	if err != nil {
		return nil, fmt.Errorf("wave: couldn't create plot: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("wave: couldn't write plot: %w", err)
	}
	return buf.Bytes(), nil
}

// WritePNG renders the waveform to a file.
func (p *Preview) WritePNG(path, title string) error {
	b, err := p.PNG(title)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("wave: couldn't write file: %w", err)
	}
	return nil
}

func decodeMp3(data []byte) ([]float64, int, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("wave: couldn't create decoder: %w", err)
	}
	var stereo [2][]float64
	buf := make([]byte, 2)
	var i int
	for {
		_, err := decoder.Read(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("wave: couldn't read sample: %w", err)
		}
		sample := int16(buf[0]) | int16(buf[1])<<8
		stereo[i%2] = append(stereo[i%2], float64(sample)/32768.0)
		i++
	}
	var mono []float64
	for i, left := range stereo[0] {
		if i >= len(stereo[1]) {
			break
		}
		mono = append(mono, (left+stereo[1][i])/2.0)
	}
	return mono, decoder.SampleRate(), nil
}

// decodeWav reads 16-bit PCM from the data chunk.
func decodeWav(data []byte) ([]float64, int, error) {
	if len(data) < 12 || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return nil, 0, errors.New("wave: not a wav file")
	}
	var rate int
	var channels int
	var bits int
	var pcm []byte
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+size > len(data) {
			size = len(data) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, errors.New("wave: truncated fmt chunk")
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			rate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			pcm = data[body : body+size]
		}
		offset = body + size
		if size%2 == 1 {
			offset++
		}
	}
	if rate == 0 || pcm == nil {
		return nil, 0, errors.New("wave: couldn't read wav header")
	}
	if bits != 16 {
		return nil, 0, fmt.Errorf("wave: unsupported bit depth %d", bits)
	}
	if channels == 0 {
		channels = 1
	}
	var mono []float64
	frame := 2 * channels
	for i := 0; i+frame <= len(pcm); i += frame {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sample := int16(pcm[i+2*ch]) | int16(pcm[i+2*ch+1])<<8
			sum += float64(sample) / 32768.0
		}
		mono = append(mono, sum/float64(channels))
	}
	return mono, rate, nil
}
