package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gocarina/gocsv"
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

	Mood     string
	Genre    string
	Duration int
	Tempo    int
	Input    string
	Output   string
	Play     bool
}

// row is one batch entry of the CSV input.
type row struct {
	Mood     string `csv:"mood"`
	Genre    string `csv:"genre"`
	Duration int    `csv:"duration"`
	Tempo    int    `csv:"tempo"`
}

// Run submits one or more generation jobs and plays or downloads the result.
func Run(ctx context.Context, cfg *Config) error {
	log.Println("generate: process started")
	defer log.Println("generate: process ended")

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
		return fmt.Errorf("generate: couldn't create history store: %w", err)
	}
	if err := store.Start(ctx); err != nil {
		return fmt.Errorf("generate: couldn't start history store: %w", err)
	}

	cat := catalog.Fetch(ctx, client)
	if len(cat.Moods()) == 0 {
		log.Println("generate: mood catalog is empty, selection is disabled")
	}

	ctl := player.New(client, nil)
	board := workflow.NewSwitchboard(ctl)
	orchestrator := workflow.NewOrchestrator(client, nil, board.Publish)

	var rows []*row
	if cfg.Input != "" {
		f, err := os.Open(cfg.Input)
		if err != nil {
			return fmt.Errorf("generate: couldn't open input: %w", err)
		}
		defer f.Close()
		if err := gocsv.UnmarshalFile(f, &rows); err != nil {
			return fmt.Errorf("generate: couldn't parse input: %w", err)
		}
	} else {
		rows = []*row{{Mood: cfg.Mood, Genre: cfg.Genre, Duration: cfg.Duration, Tempo: cfg.Tempo}}
	}

	for i, r := range rows {
		p := params.NewGenerate(cat)
		if err := p.SetMood(r.Mood); err != nil {
			return fmt.Errorf("generate: %w", err)
		}
		if err := p.SetGenre(r.Genre); err != nil {
			return fmt.Errorf("generate: %w", err)
		}
		if r.Duration != 0 {
			p.SetDuration(r.Duration)
		}
		if r.Tempo != 0 {
			p.SetTempo(r.Tempo)
		}
		req := p.Request()

		track, err := submit(ctx, orchestrator, store, req)
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}
		log.Printf("generate: track %s (mood %s, genre %s, tempo %d, %ds)\n",
			track.Filename, track.Mood, track.Genre, track.Tempo, track.Duration)

		if cfg.Output != "" {
			output := cfg.Output
			if len(rows) > 1 {
				output = fmt.Sprintf("%s.%d", cfg.Output, i+1)
			}
			if err := client.DownloadFile(ctx, track.Filename, output); err != nil {
				return fmt.Errorf("generate: couldn't download track: %w", err)
			}
			log.Printf("generate: saved %s\n", output)
		}
	}

	if cfg.Play {
		if err := player.Watch(ctx, ctl); err != nil {
			return fmt.Errorf("generate: %w", err)
		}
	}
	return nil
}

func submit(ctx context.Context, o *workflow.Orchestrator, store *history.Store, req *studio.GenerateRequest) (*studio.Track, error) {
	id := history.NewID()
	raw, _ := json.Marshal(req)
	if err := store.Append(ctx, &history.Record{
		ID:       id,
		Workflow: string(workflow.Generate),
		Params:   string(raw),
		Status:   workflow.Loading.String(),
	}); err != nil {
		return nil, err
	}
	track, err := o.SubmitGenerate(ctx, req)
	if err != nil {
		_ = store.Finish(ctx, id, workflow.Failed.String(), "", studio.ErrorKind(err), err.Error())
		return nil, err
	}
	if err := store.Finish(ctx, id, workflow.Succeeded.String(), track.Filename, "", ""); err != nil {
		return nil, err
	}
	return track, nil
}
