package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/remixlab/mixctl/pkg/catalog"
	"github.com/remixlab/mixctl/pkg/studio"
)

type Config struct {
	Debug   bool
	BaseURL string
	Timeout time.Duration
}

// Run prints the service's mood and genre catalogs.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	client := studio.New(&studio.Config{
		BaseURL: cfg.BaseURL,
		Debug:   cfg.Debug,
	})
	cat := catalog.Fetch(ctx, client)
	fmt.Printf("moods:  %s\n", format(cat.Moods()))
	fmt.Printf("genres: %s\n", format(cat.Genres()))
	return nil
}

func format(values []string) string {
	if len(values) == 0 {
		return "(none available)"
	}
	return strings.Join(values, ", ")
}
