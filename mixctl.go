package mixctl

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/remixlab/mixctl/pkg/catalog"
	"github.com/remixlab/mixctl/pkg/params"
	"github.com/remixlab/mixctl/pkg/studio"
	"github.com/remixlab/mixctl/pkg/workflow"
)

type Config struct {
	BaseURL string
	Proxy   string
	Wait    time.Duration
	Debug   bool
}

func newClient(cfg *Config) (*studio.Client, error) {
	httpClient := &http.Client{
		Timeout: 2 * time.Minute,
	}
	if cfg.Proxy != "" {
		u, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		httpClient.Transport = &http.Transport{
			Proxy: http.ProxyURL(u),
		}
	}
	return studio.New(&studio.Config{
		BaseURL: cfg.BaseURL,
		Wait:    cfg.Wait,
		Debug:   cfg.Debug,
		Client:  httpClient,
	}), nil
}

// GenerateTrack generates a track for the given mood and genre and saves it
// to the output path.
func GenerateTrack(ctx context.Context, cfg *Config, mood, genre string, output string) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	cat := catalog.Fetch(ctx, client)
	p := params.NewGenerate(cat)
	if err := p.SetMood(mood); err != nil {
		return err
	}
	if err := p.SetGenre(genre); err != nil {
		return err
	}
	orch := workflow.NewOrchestrator(client, nil, nil)
	track, err := orch.SubmitGenerate(ctx, p.Request())
	if err != nil {
		return fmt.Errorf("couldn't generate track: %w", err)
	}
	log.Println("filename:", track.Filename)
	log.Println("mood:", track.Mood)
	log.Println("genre:", track.Genre)
	if output == "" {
		return nil
	}
	return client.DownloadFile(ctx, track.Filename, output)
}

// RemixTrack remixes a local audio file and saves the result to the output
// path.
func RemixTrack(ctx context.Context, cfg *Config, input, mood, genre string, output string) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	src, err := studio.NewUploadFromFile(input)
	if err != nil {
		return err
	}
	cat := catalog.Fetch(ctx, client)
	p := params.NewRemix(cat)
	p.SetSource(src)
	if err := p.SetMood(mood); err != nil {
		return err
	}
	if err := p.SetGenre(genre); err != nil {
		return err
	}
	orch := workflow.NewOrchestrator(client, nil, nil)
	track, err := orch.SubmitRemix(ctx, p.Request())
	if err != nil {
		var depErr *studio.DependencyError
		if errors.As(err, &depErr) {
			log.Println(depErr.Remediation())
		}
		return fmt.Errorf("couldn't remix track: %w", err)
	}
	log.Println("filename:", track.Filename)
	if output == "" {
		return nil
	}
	return client.DownloadFile(ctx, track.Filename, output)
}
