package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Event is an asynchronous notification from a media resource.
type Event interface {
	isEvent()
}

// Metadata reports the stream duration once it is known.
type Metadata struct {
	Duration time.Duration
}

// Progress reports the authoritative playback position.
type Progress struct {
	Position time.Duration
}

// EndOfStream reports a natural end of playback.
type EndOfStream struct{}

// SourceError reports a streaming or decoding failure. The controller drops
// back to Unloaded and does not retry.
type SourceError struct {
	Err error
}

func (Metadata) isEvent()    {}
func (Progress) isEvent()    {}
func (EndOfStream) isEvent() {}
func (SourceError) isEvent() {}

// Source is a streaming media resource. Open loads the resource and emits
// Metadata once its duration is known; afterwards the source emits Progress
// while playing and EndOfStream when it runs out.
type Source interface {
	Open(ctx context.Context, url string) error
	Play() error
	Pause() error
	Seek(position time.Duration) error
	Close() error
	Events() <-chan Event
}

const progressInterval = 200 * time.Millisecond

// StreamSource fetches the whole stream into memory, probes its duration from
// the container (WAV header or MP3 frames) and advances the position on a
// wall clock while playing.
type StreamSource struct {
	mu       sync.Mutex
	client   *http.Client
	events   chan Event
	duration time.Duration
	position time.Duration
	playing  bool
	closed   bool
	gen      int
}

func NewStreamSource(client *http.Client) *StreamSource {
	if client == nil {
		client = &http.Client{
			Timeout: 2 * time.Minute,
		}
	}
	return &StreamSource{
		client: client,
		events: make(chan Event, 64),
	}
}

func (s *StreamSource) Events() <-chan Event {
	return s.events
}

func (s *StreamSource) Open(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("player: couldn't create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("player: couldn't fetch stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("player: stream returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("player: couldn't read stream: %w", err)
	}
	duration, err := ProbeDuration(data)
	if err != nil {
		return fmt.Errorf("player: couldn't probe stream: %w", err)
	}
	s.mu.Lock()
	s.duration = duration
	s.mu.Unlock()
	s.emit(Metadata{Duration: duration})
	return nil
}

func (s *StreamSource) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("player: source is closed")
	}
	if s.playing {
		return nil
	}
	s.playing = true
	s.gen++
	go s.clock(s.gen)
	return nil
}

// clock advances the position in real time and reports progress until the
// stream ends, playback pauses, or a newer clock takes over.
func (s *StreamSource) clock(gen int) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	last := time.Now()
	for range ticker.C {
		s.mu.Lock()
		if s.closed || !s.playing || s.gen != gen {
			s.mu.Unlock()
			return
		}
		now := time.Now()
		s.position += now.Sub(last)
		last = now
		if s.position >= s.duration {
			s.position = 0
			s.playing = false
			s.mu.Unlock()
			s.emit(EndOfStream{})
			return
		}
		position := s.position
		s.mu.Unlock()
		s.emit(Progress{Position: position})
	}
}

func (s *StreamSource) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	return nil
}

func (s *StreamSource) Seek(position time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if position < 0 {
		position = 0
	}
	if position > s.duration {
		position = s.duration
	}
	s.position = position
	return nil
}

func (s *StreamSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.playing = false
	close(s.events)
	return nil
}

// emit delivers an event without ever blocking a paused consumer.
func (s *StreamSource) emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
	}
}
