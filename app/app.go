package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/soocke/reticle-bot/debug"
)

// Run starts the hotkey listener and the optional stats logger, then runs
// the controller on the calling goroutine until ctx is done.
func Run(ctx context.Context, c *Container) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if c.Logger != nil {
		c.Logger.Info("reticle bot started",
			"window", c.Config.Window.Match,
			"toggle", c.Config.Keys.Toggle,
			"trigger", c.Config.Keys.Trigger,
			"enabled", c.Flag.Load(),
		)
	}

	var wg sync.WaitGroup
	if c.Hotkey != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer recoverLog(c.Logger, "hotkey goroutine panic")
			if err := c.Hotkey.Run(ctx); err != nil && c.Logger != nil {
				c.Logger.Error("hotkey listener stopped", "error", err)
			}
		}()
	}
	if c.Config.Debug.Enabled {
		debug.StartStatsLogger(ctx, time.Duration(c.Config.Debug.StatsIntervalMs)*time.Millisecond, c.Logger, debug.Sources{
			Capture: c.Source.Stats,
			Loop:    c.Controller.Stats,
			Session: c.Controller.Session().Values,
			State:   c.Controller.State,
		})
	}

	err := c.Controller.Run(ctx)
	cancel()
	wg.Wait()

	if c.Logger != nil {
		v := c.Controller.Session().Values()
		c.Logger.Info("reticle bot stopped",
			"enabled_total", v.Total,
			"puzzles", v.Puzzles,
			"triggers", v.Triggers,
		)
	}
	return err
}

func recoverLog(logger *slog.Logger, msg string) {
	if r := recover(); r != nil {
		if logger != nil {
			logger.Error(msg, "error", r)
		}
	}
}
