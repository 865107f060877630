package sim

import (
	"context"
	"fmt"
	"time"
)

// HeadlessConfig controls the no-window runner.
type HeadlessConfig struct {
	Hz    int
	Ticks uint64 // Stop after N steps (0 = run until ctx is done)
}

// RunHeadless calls step Hz times per second without opening a window.
func RunHeadless(ctx context.Context, step func() error, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = TPS
	}

	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("sim: invalid headless hz: %d", cfg.Hz)
	}
	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if step != nil {
				if err := step(); err != nil {
					return err
				}
			}
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return nil
			}
		}
	}
}
