package analyze

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/remixlab/mixctl/pkg/studio"
	"github.com/remixlab/mixctl/pkg/wave"
	"github.com/remixlab/mixctl/pkg/workflow"
)

type Config struct {
	Debug   bool
	BaseURL string
	Wait    time.Duration
	Timeout time.Duration

	Input    string
	Waveform string
}

// Run uploads a source asset for analysis and prints the suggested
// transformations. With -waveform it also renders a local preview image.
func Run(ctx context.Context, cfg *Config) error {
	log.Println("analyze: process started")
	defer log.Println("analyze: process ended")

	if cfg.Input == "" {
		return fmt.Errorf("analyze: %w", workflow.ErrMissingSource)
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	if cfg.Waveform != "" {
		preview, err := wave.New(cfg.Input)
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}
		if err := preview.WritePNG(cfg.Waveform, cfg.Input); err != nil {
			return fmt.Errorf("analyze: %w", err)
		}
		log.Printf("analyze: waveform saved to %s\n", cfg.Waveform)
	}

	client := studio.New(&studio.Config{
		BaseURL: cfg.BaseURL,
		Wait:    cfg.Wait,
		Debug:   cfg.Debug,
	})
	src, err := studio.NewUploadFromFile(cfg.Input)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	analyzer := workflow.NewAnalyzer(client, nil)
	analyzer.SetSource(src)
	analysis, err := analyzer.Analyze(ctx)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	fmt.Printf("energy:        %.3f\n", analysis.Features.Energy)
	fmt.Printf("brightness:    %.3f\n", analysis.Features.Brightness)
	fmt.Printf("dynamic range: %.3f\n", analysis.Features.DynamicRange)
	fmt.Printf("duration:      %.1fs\n", analysis.Duration)
	fmt.Printf("suggested moods:  %v\n", analysis.SuggestedMoods)
	fmt.Printf("suggested genres: %v\n", analysis.SuggestedGenres)
	for _, s := range analysis.Suggestions {
		fmt.Printf("suggestion %q: %s %v\n", s.Name, s.Description, s.Params)
	}
	return nil
}
