package remix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/remixlab/mixctl/pkg/catalog"
	"github.com/remixlab/mixctl/pkg/history"
	"github.com/remixlab/mixctl/pkg/params"
	"github.com/remixlab/mixctl/pkg/player"
	"github.com/remixlab/mixctl/pkg/studio"
	"github.com/remixlab/mixctl/pkg/workflow"
)

type Config struct {
	Debug   bool
	BaseURL string
	Wait    time.Duration
	Timeout time.Duration
	DBType  string
	DBConn  string

	Input                string
	Mood                 string
	Genre                string
	TempoChange          float64
	PitchShift           int
	AddHarmony           bool
	HarmonyType          string
	IntelligentTransform bool
	SourceMood           string
	Analyze              bool
	Output               string
	Play                 bool
}

// Run submits one remix job for a local source asset, optionally running the
// analyze sub-workflow first to print suggestions.
func Run(ctx context.Context, cfg *Config) error {
	log.Println("remix: process started")
	defer log.Println("remix: process ended")

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	client := studio.New(&studio.Config{
		BaseURL: cfg.BaseURL,
		Wait:    cfg.Wait,
		Debug:   cfg.Debug,
	})
	store, err := history.New(cfg.DBType, cfg.DBConn, cfg.Debug)
	if err != nil {
		return fmt.Errorf("remix: couldn't create history store: %w", err)
	}
	if err := store.Start(ctx); err != nil {
		return fmt.Errorf("remix: couldn't start history store: %w", err)
	}

	cat := catalog.Fetch(ctx, client)

	p := params.NewRemix(cat)
	if cfg.Input != "" {
		src, err := studio.NewUploadFromFile(cfg.Input)
		if err != nil {
			return fmt.Errorf("remix: %w", err)
		}
		p.SetSource(src)
	}
	if err := p.SetMood(cfg.Mood); err != nil {
		return fmt.Errorf("remix: %w", err)
	}
	if err := p.SetGenre(cfg.Genre); err != nil {
		return fmt.Errorf("remix: %w", err)
	}
	p.SetTempoChange(cfg.TempoChange)
	p.SetPitchShift(cfg.PitchShift)
	p.SetAddHarmony(cfg.AddHarmony)
	if cfg.HarmonyType != "" {
		if err := p.SetHarmonyType(cfg.HarmonyType); err != nil {
			return fmt.Errorf("remix: %w", err)
		}
	}
	p.SetIntelligentTransform(cfg.IntelligentTransform)
	if cfg.SourceMood != "" {
		if err := p.SetSourceMood(cfg.SourceMood); err != nil {
			return fmt.Errorf("remix: %w", err)
		}
	}

	busy := &workflow.BusyFlag{}
	ctl := player.New(client, nil)
	board := workflow.NewSwitchboard(ctl)
	board.SetActive(workflow.Remix)
	orchestrator := workflow.NewOrchestrator(client, busy, board.Publish)

	// The analyze sub-workflow is optional and independent: its failure never
	// blocks the remix submission.
	if cfg.Analyze {
		analyzer := workflow.NewAnalyzer(client, busy)
		analyzer.SetSource(p.Source())
		analysis, err := analyzer.Analyze(ctx)
		if err != nil {
			log.Printf("remix: analysis failed: %v\n", err)
		} else if analysis != nil {
			log.Printf("remix: suggested moods: %v\n", analysis.SuggestedMoods)
			log.Printf("remix: suggested genres: %v\n", analysis.SuggestedGenres)
		}
	}

	req := p.Request()
	id := history.NewID()
	raw, _ := json.Marshal(map[string]any{
		"mood":                  req.Mood,
		"genre":                 req.Genre,
		"tempo_change":          req.TempoChange,
		"pitch_shift":           req.PitchShift,
		"add_harmony":           req.AddHarmony,
		"harmony_type":          req.HarmonyType,
		"intelligent_transform": req.IntelligentTransform,
		"source_mood":           req.SourceMood,
		"source":                req.Source.Name,
	})
	if err := store.Append(ctx, &history.Record{
		ID:       id,
		Workflow: string(workflow.Remix),
		Params:   string(raw),
		Status:   workflow.Loading.String(),
	}); err != nil {
		return fmt.Errorf("remix: %w", err)
	}

	track, err := orchestrator.SubmitRemix(ctx, req)
	if err != nil {
		_ = store.Finish(ctx, id, workflow.Failed.String(), "", studio.ErrorKind(err), err.Error())
		var depErr *studio.DependencyError
		if errors.As(err, &depErr) {
			log.Println(depErr.Remediation())
		}
		return fmt.Errorf("remix: %w", err)
	}
	if err := store.Finish(ctx, id, workflow.Succeeded.String(), track.Filename, "", ""); err != nil {
		return fmt.Errorf("remix: %w", err)
	}
	log.Printf("remix: track %s (mood %s, genre %s)\n", track.Filename, track.Mood, track.Genre)

	if cfg.Output != "" {
		if err := client.DownloadFile(ctx, track.Filename, cfg.Output); err != nil {
			return fmt.Errorf("remix: couldn't download track: %w", err)
		}
		log.Printf("remix: saved %s\n", cfg.Output)
	}
	if cfg.Play {
		if err := player.Watch(ctx, ctl); err != nil {
			return fmt.Errorf("remix: %w", err)
		}
	}
	return nil
}
