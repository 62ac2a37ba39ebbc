package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/remixlab/mixctl/pkg/studio"
)

// ErrNoTrack is returned by playback commands while nothing is bound.
var ErrNoTrack = errors.New("player: no track bound")

// State is the playback lifecycle of the bound track.
type State int

const (
	Unloaded State = iota
	Ready
	Playing
	Paused
	Ended
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshot is a read-only projection of the playback state.
type Snapshot struct {
	State    State
	Position time.Duration
	Duration time.Duration
	Volume   float64
	Muted    bool
	Track    *studio.Track
	Err      error
}

// Streamer addresses and retrieves the persisted bytes of a track. It is
// implemented by the studio client.
type Streamer interface {
	StreamURL(filename string) string
	Download(ctx context.Context, filename string, w io.Writer) error
}

// Controller is the state machine for the single current track. It is the
// source of truth for playback: the underlying media resource reports
// metadata, progress and end-of-stream through events, user intent comes in
// through commands.
type Controller struct {
	mu         sync.Mutex
	streamer   Streamer
	newSource  func() Source
	track      *studio.Track
	source     Source
	state      State
	position   time.Duration
	duration   time.Duration
	volume     float64
	lastVolume float64
	muted      bool
	err        error
}

// New builds a controller. newSource produces a fresh media resource per
// bound track; pass nil to use the built-in clocked stream source.
func New(streamer Streamer, newSource func() Source) *Controller {
	if newSource == nil {
		newSource = func() Source { return NewStreamSource(nil) }
	}
	return &Controller{
		streamer:   streamer,
		newSource:  newSource,
		volume:     1,
		lastVolume: 1,
	}
}

// Snapshot returns the current playback state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	volume := c.volume
	if c.muted {
		volume = 0
	}
	return Snapshot{
		State:    c.state,
		Position: c.position,
		Duration: c.duration,
		Volume:   volume,
		Muted:    c.muted,
		Track:    c.track,
		Err:      c.err,
	}
}

// Bind replaces the bound track. Any in-flight playback is stopped first and
// the position and duration are reset; volume and mute survive. The state
// stays Unloaded until the new resource reports its metadata.
func (c *Controller) Bind(ctx context.Context, track *studio.Track) error {
	c.mu.Lock()
	if c.source != nil {
		_ = c.source.Close()
		c.source = nil
	}
	c.track = track
	c.state = Unloaded
	c.position = 0
	c.duration = 0
	c.err = nil
	if track == nil {
		c.mu.Unlock()
		return nil
	}
	src := c.newSource()
	c.source = src
	url := c.streamer.StreamURL(track.Filename)
	c.mu.Unlock()

	if err := src.Open(ctx, url); err != nil {
		c.mu.Lock()
		if c.source == src {
			c.err = err
			c.state = Unloaded
			c.source = nil
		}
		c.mu.Unlock()
		_ = src.Close()
		return err
	}
	go c.pump(src)
	return nil
}

// pump forwards source events into the state machine until the source is
// closed. Events from a source that has been replaced are dropped.
func (c *Controller) pump(src Source) {
	for ev := range src.Events() {
		c.HandleEvent(src, ev)
	}
}

// HandleEvent applies one media event. It is exported so alternative sources
// can drive the controller directly.
func (c *Controller) HandleEvent(src Source, ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if src != nil && src != c.source {
		return
	}
	switch e := ev.(type) {
	case Metadata:
		c.duration = e.Duration
		if c.state == Unloaded {
			c.state = Ready
		}
		if c.position > c.duration {
			c.position = c.duration
		}
	case Progress:
		if c.state == Unloaded {
			return
		}
		c.position = e.Position
		if c.duration > 0 && c.position > c.duration {
			c.position = c.duration
		}
	case EndOfStream:
		c.state = Ended
		c.position = 0
	case SourceError:
		c.err = e.Err
		c.state = Unloaded
		if c.source != nil {
			_ = c.source.Close()
			c.source = nil
		}
	}
}

// Play starts or resumes playback. It is a no-op while already playing, and
// replays from the start after a natural end.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case Playing:
		return nil
	case Unloaded:
		return ErrNoTrack
	case Ended:
		c.position = 0
		if err := c.source.Seek(0); err != nil {
			return err
		}
	}
	if err := c.source.Play(); err != nil {
		return err
	}
	c.state = Playing
	return nil
}

// Pause pauses playback. It is a no-op unless playing.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Playing {
		return nil
	}
	if err := c.source.Pause(); err != nil {
		return err
	}
	c.state = Paused
	return nil
}

// Seek moves the position, clamped to [0, duration]. Play/pause state is not
// affected.
func (c *Controller) Seek(target time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seekLocked(target)
}

func (c *Controller) seekLocked(target time.Duration) error {
	if c.state == Unloaded {
		return ErrNoTrack
	}
	if target < 0 {
		target = 0
	}
	if c.duration > 0 && target > c.duration {
		target = c.duration
	}
	if err := c.source.Seek(target); err != nil {
		return err
	}
	c.position = target
	if c.state == Ended {
		c.state = Paused
	}
	return nil
}

// Restart rewinds to the start and resumes: it always ends up Playing no
// matter the prior state.
func (c *Controller) Restart() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.seekLocked(0); err != nil {
		return err
	}
	if c.state != Playing {
		if err := c.source.Play(); err != nil {
			return err
		}
		c.state = Playing
	}
	return nil
}

// SetVolume sets the volume, clamped to [0, 1]. A zero volume mutes, a
// positive one unmutes.
func (c *Controller) SetVolume(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	c.volume = v
	if v == 0 {
		c.muted = true
		return
	}
	c.muted = false
	c.lastVolume = v
}

// ToggleMute flips mute without losing the prior level: unmuting restores the
// exact last non-zero volume.
func (c *Controller) ToggleMute() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.muted {
		c.muted = false
		c.volume = c.lastVolume
		return
	}
	if c.volume > 0 {
		c.lastVolume = c.volume
	}
	c.muted = true
}

// Download writes the bound track's persisted bytes to w. Playback state is
// not affected.
func (c *Controller) Download(ctx context.Context, w io.Writer) error {
	c.mu.Lock()
	track := c.track
	c.mu.Unlock()
	if track == nil {
		return ErrNoTrack
	}
	return c.streamer.Download(ctx, track.Filename, w)
}
