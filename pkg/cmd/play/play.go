package play

import (
	"context"
	"fmt"
	"time"

	"github.com/remixlab/mixctl/pkg/player"
	"github.com/remixlab/mixctl/pkg/studio"
)

type Config struct {
	Debug   bool
	BaseURL string
	Timeout time.Duration

	Filename string
	Volume   float64
}

// Run streams a track and plays it through to the end.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.Filename == "" {
		return fmt.Errorf("play: filename is required")
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	client := studio.New(&studio.Config{
		BaseURL: cfg.BaseURL,
		Debug:   cfg.Debug,
	})
	ctl := player.New(client, nil)
	if cfg.Volume > 0 {
		ctl.SetVolume(cfg.Volume)
	}
	track := &studio.Track{Filename: cfg.Filename}
	if err := ctl.Bind(ctx, track); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	if err := player.Watch(ctx, ctl); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	return nil
}
