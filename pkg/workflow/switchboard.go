package workflow

import (
	"context"
	"log"
	"sync"

	"github.com/remixlab/mixctl/pkg/studio"
)

// Workflow tags the active control surface.
type Workflow string

const (
	Generate Workflow = "generate"
	Remix    Workflow = "remix"
)

// Binder receives the current track for playback. Binding stops whatever was
// playing before.
type Binder interface {
	Bind(ctx context.Context, track *studio.Track) error
}

// Switchboard owns which workflow is active and the single current track.
// Switching the active workflow never clears the current track or its
// playback.
type Switchboard struct {
	mu      sync.Mutex
	active  Workflow
	current *studio.Track
	binder  Binder
}

func NewSwitchboard(binder Binder) *Switchboard {
	return &Switchboard{
		active: Generate,
		binder: binder,
	}
}

// SetActive switches the active workflow tag.
func (s *Switchboard) SetActive(w Workflow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = w
}

// Active returns the active workflow tag.
func (s *Switchboard) Active() Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Current returns the latest successful track, or nil.
func (s *Switchboard) Current() *studio.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Publish replaces the current track and hands it to the player. It is the
// hook every successful generate or remix job goes through.
func (s *Switchboard) Publish(track *studio.Track) {
	s.mu.Lock()
	s.current = track
	binder := s.binder
	s.mu.Unlock()
	if binder == nil || track == nil {
		return
	}
	if err := binder.Bind(context.Background(), track); err != nil {
		log.Printf("workflow: couldn't bind track %s: %v\n", track.Filename, err)
	}
}
