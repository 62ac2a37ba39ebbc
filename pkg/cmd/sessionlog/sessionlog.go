package sessionlog

import (
	"context"
	"fmt"
	"time"

	"github.com/remixlab/mixctl/pkg/history"
)

type Config struct {
	Debug  bool
	DBType string
	DBConn string
}

// Run lists the recorded job submissions, newest first. With the default
// in-memory store this only shows records written by the same process, point
// db-type/db-conn at a file or server to share a log.
func Run(ctx context.Context, cfg *Config) error {
	store, err := history.New(cfg.DBType, cfg.DBConn, cfg.Debug)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if err := store.Start(ctx); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	records, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("no jobs recorded")
		return nil
	}
	for _, r := range records {
		line := fmt.Sprintf("%s %-8s %-9s", r.CreatedAt.Format(time.RFC3339), r.Workflow, r.Status)
		if r.Filename != "" {
			line += " " + r.Filename
		}
		if r.ErrMsg != "" {
			line += fmt.Sprintf(" [%s] %s", r.ErrKind, r.ErrMsg)
		}
		fmt.Println(line)
	}
	return nil
}
