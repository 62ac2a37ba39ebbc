package download

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/remixlab/mixctl/pkg/studio"
)

type Config struct {
	Debug   bool
	BaseURL string
	Timeout time.Duration

	Filename string
	Output   string
}

// Run downloads a track's persisted bytes to a local file.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.Filename == "" {
		return fmt.Errorf("download: filename is required")
	}
	output := cfg.Output
	if output == "" {
		output = cfg.Filename
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
	if err := client.DownloadFile(ctx, cfg.Filename, output); err != nil {
		return fmt.Errorf("download: %w", err)
	}
	log.Printf("download: saved %s\n", output)
	return nil
}
