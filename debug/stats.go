package debug

// Periodic runtime and pipeline stats logger. Started only when debug is
// enabled. Emits goroutine count, heap/stack usage and process RSS next to
// capture and controller counters so a stalled loop or leak shows up in one
// line.

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/metrics"
	"time"

	"github.com/soocke/reticle-bot/domain/automation"
	"github.com/soocke/reticle-bot/domain/capture"
)

// Sources exposes the pipeline counters. Nil funcs are skipped.
type Sources struct {
	Capture func() capture.CaptureStats
	Loop    func() automation.Stats
	Session func() automation.SessionValues
	State   func() automation.State
}

// StartStatsLogger launches a ticker that logs stats until ctx is done.
func StartStatsLogger(ctx context.Context, interval time.Duration, logger *slog.Logger, src Sources) {
	if logger == nil {
		return
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		var rssErrLogged bool
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			attrs := runtimeAttrs()
			if rss, err := processRSS(); err == nil {
				attrs = append(attrs, slog.Uint64("rss", rss))
			} else if !rssErrLogged {
				logger.Warn("stats: rss query failed", slog.String("err", err.Error()))
				rssErrLogged = true
			}
			attrs = append(attrs, src.Attrs()...)
			logger.LogAttrs(ctx, slog.LevelInfo, "stats", attrs...)
		}
	}()
}

func runtimeAttrs() []slog.Attr {
	samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
	metrics.Read(samples)
	var goroutines uint64
	if samples[0].Value.Kind() == metrics.KindUint64 {
		goroutines = samples[0].Value.Uint64()
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return []slog.Attr{
		slog.Uint64("goroutines", goroutines),
		slog.Uint64("heap_alloc", ms.HeapAlloc),
		slog.Uint64("stack_inuse", ms.StackInuse),
		slog.Uint64("num_gc", uint64(ms.NumGC)),
	}
}

// Attrs renders the counters as grouped log attributes.
func (p Sources) Attrs() []slog.Attr {
	var out []slog.Attr
	if p.State != nil {
		out = append(out, slog.String("state", p.State().String()))
	}
	if p.Capture != nil {
		cs := p.Capture()
		out = append(out, slog.Group("capture",
			slog.Uint64("captures", cs.Captures),
			slog.Uint64("skipped", cs.Skipped),
			slog.Uint64("not_found", cs.NotFound),
			slog.Duration("avg", cs.AvgCapture),
		))
	}
	if p.Loop != nil {
		ls := p.Loop()
		out = append(out, slog.Group("loop",
			slog.Uint64("ticks", ls.Ticks),
			slog.Uint64("skipped_frames", ls.SkippedFrames),
			slog.Uint64("triggers", ls.Triggers),
			slog.Uint64("failed_triggers", ls.FailedTriggers),
			slog.Uint64("unfocused", ls.UnfocusedSkips),
			slog.Uint64("panics", ls.RecoveredPanics),
			slog.Duration("tick_mean", ls.Latency.Mean),
			slog.Duration("tick_p95", ls.Latency.P95),
			slog.Duration("tick_max", ls.Latency.Max),
		))
	}
	if p.Session != nil {
		sv := p.Session()
		out = append(out, slog.Group("session",
			slog.Duration("enabled", sv.Enabled),
			slog.Duration("total", sv.Total),
			slog.Int("puzzles", sv.Puzzles),
			slog.Int("triggers", sv.Triggers),
		))
	}
	return out
}
