package params

import (
	"fmt"

	"github.com/remixlab/mixctl/pkg/catalog"
	"github.com/remixlab/mixctl/pkg/studio"
)

// Range limits for the creative parameters. Values collected outside these
// ranges are clamped to the nearest bound at set time, so a built request
// never carries an out-of-range value.
const (
	MinDuration = 5
	MaxDuration = 30
	MinTempo    = 60
	MaxTempo    = 180

	MinTempoChange = 0.5
	MaxTempoChange = 2.0
	MinPitchShift  = -12
	MaxPitchShift  = 12
)

// HarmonyTypes are the accepted harmony layer intervals.
var HarmonyTypes = []string{"third", "fifth", "octave"}

// InvalidSelectionError reports a value outside the enumerated set for a
// field. The prior value of the field is always retained.
type InvalidSelectionError struct {
	Field string
	Value string
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("params: invalid %s selection: %q", e.Field, e.Value)
}

// GenerateParams is the current creative-parameter selection for the
// generation workflow.
type GenerateParams struct {
	catalog  *catalog.Catalog
	mood     string
	genre    string
	duration int
	tempo    int
}

func NewGenerate(c *catalog.Catalog) *GenerateParams {
	return &GenerateParams{
		catalog:  c,
		duration: 10,
		tempo:    120,
	}
}

func (p *GenerateParams) SetMood(mood string) error {
	if !p.catalog.HasMood(mood) {
		return &InvalidSelectionError{Field: "mood", Value: mood}
	}
	p.mood = mood
	return nil
}

func (p *GenerateParams) SetGenre(genre string) error {
	if !p.catalog.HasGenre(genre) {
		return &InvalidSelectionError{Field: "genre", Value: genre}
	}
	p.genre = genre
	return nil
}

// SetDuration clamps out-of-range values to the nearest bound. In-range
// values are stored exactly.
func (p *GenerateParams) SetDuration(seconds int) {
	p.duration = clampInt(seconds, MinDuration, MaxDuration)
}

func (p *GenerateParams) SetTempo(bpm int) {
	p.tempo = clampInt(bpm, MinTempo, MaxTempo)
}

func (p *GenerateParams) Mood() string { return p.mood }
func (p *GenerateParams) Genre() string { return p.genre }
func (p *GenerateParams) Duration() int { return p.duration }
func (p *GenerateParams) Tempo() int { return p.tempo }

// Request builds a fresh submission payload from the current state. The
// payload is never mutated after submission.
func (p *GenerateParams) Request() *studio.GenerateRequest {
	return &studio.GenerateRequest{
		Mood:     p.mood,
		Genre:    p.genre,
		Duration: p.duration,
		Tempo:    p.tempo,
	}
}

// RemixParams is the current creative-parameter selection for the remix
// workflow, including the selected source asset.
type RemixParams struct {
	catalog              *catalog.Catalog
	source               *studio.Upload
	mood                 string
	genre                string
	tempoChange          float64
	pitchShift           int
	addHarmony           bool
	harmonyType          string
	intelligentTransform bool
	sourceMood           string
}

func NewRemix(c *catalog.Catalog) *RemixParams {
	return &RemixParams{
		catalog:     c,
		tempoChange: 1.0,
		harmonyType: "third",
	}
}

// SetSource selects the audio asset to remix. A nil upload clears the
// selection.
func (p *RemixParams) SetSource(src *studio.Upload) {
	p.source = src
}

func (p *RemixParams) Source() *studio.Upload { return p.source }

func (p *RemixParams) SetMood(mood string) error {
	if !p.catalog.HasMood(mood) {
		return &InvalidSelectionError{Field: "mood", Value: mood}
	}
	p.mood = mood
	return nil
}

func (p *RemixParams) SetGenre(genre string) error {
	if !p.catalog.HasGenre(genre) {
		return &InvalidSelectionError{Field: "genre", Value: genre}
	}
	p.genre = genre
	return nil
}

func (p *RemixParams) SetTempoChange(ratio float64) {
	p.tempoChange = clampFloat(ratio, MinTempoChange, MaxTempoChange)
}

func (p *RemixParams) SetPitchShift(semitones int) {
	p.pitchShift = clampInt(semitones, MinPitchShift, MaxPitchShift)
}

func (p *RemixParams) SetAddHarmony(on bool) {
	p.addHarmony = on
}

// SetHarmonyType accepts only the known harmony intervals. The value is kept
// even while AddHarmony is off, it is transmitted but semantically inert.
func (p *RemixParams) SetHarmonyType(harmony string) error {
	for _, h := range HarmonyTypes {
		if h == harmony {
			p.harmonyType = harmony
			return nil
		}
	}
	return &InvalidSelectionError{Field: "harmony type", Value: harmony}
}

func (p *RemixParams) SetIntelligentTransform(on bool) {
	p.intelligentTransform = on
}

func (p *RemixParams) SetSourceMood(mood string) error {
	if !p.catalog.HasMood(mood) {
		return &InvalidSelectionError{Field: "source mood", Value: mood}
	}
	p.sourceMood = mood
	return nil
}

func (p *RemixParams) Mood() string { return p.mood }
func (p *RemixParams) Genre() string { return p.genre }
func (p *RemixParams) TempoChange() float64 { return p.tempoChange }
func (p *RemixParams) PitchShift() int { return p.pitchShift }
func (p *RemixParams) AddHarmony() bool { return p.addHarmony }
func (p *RemixParams) HarmonyType() string { return p.harmonyType }
func (p *RemixParams) IntelligentTransform() bool { return p.intelligentTransform }
func (p *RemixParams) SourceMood() string { return p.sourceMood }

// Request builds a fresh submission payload from the current state. The
// source may still be nil here, the orchestrator rejects submissions without
// one before any network traffic.
func (p *RemixParams) Request() *studio.RemixRequest {
	req := &studio.RemixRequest{
		Mood:                 p.mood,
		Genre:                p.genre,
		TempoChange:          p.tempoChange,
		PitchShift:           p.pitchShift,
		AddHarmony:           p.addHarmony,
		HarmonyType:          p.harmonyType,
		IntelligentTransform: p.intelligentTransform,
		SourceMood:           p.sourceMood,
	}
	if p.source != nil {
		req.Source = *p.source
	}
	return req
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
