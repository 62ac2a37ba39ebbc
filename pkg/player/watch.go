package player

import (
	"context"
	"errors"
	"log"
	"time"
)

// Watch plays the bound track from the start and blocks until it ends or the
// context is cancelled, logging progress along the way.
func Watch(ctx context.Context, c *Controller) error {
	// Wait for the stream metadata to land.
	deadline := time.Now().Add(10 * time.Second)
	for {
		snap := c.Snapshot()
		if snap.State != Unloaded {
			break
		}
		if snap.Err != nil {
			return snap.Err
		}
		if time.Now().After(deadline) {
			return errors.New("player: timed out waiting for stream metadata")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	if err := c.Restart(); err != nil {
		return err
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = c.Pause()
			return ctx.Err()
		case <-ticker.C:
			snap := c.Snapshot()
			if snap.Err != nil {
				return snap.Err
			}
			if snap.State == Ended {
				log.Println("player: playback finished")
				return nil
			}
			log.Printf("player: %s / %s\n", round(snap.Position), round(snap.Duration))
		}
	}
}

func round(d time.Duration) string {
	return d.Round(time.Second).String()
}
