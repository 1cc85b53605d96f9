package automation

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soocke/reticle-bot/domain/capture"
	"github.com/soocke/reticle-bot/domain/puzzle"
)

// captureWarnEvery throttles repeated capture failure warnings.
const captureWarnEvery = 100

// Deps are the collaborators of a Controller. Source, Preprocessor,
// Classifier, Keys and Flag are required; the rest are optional.
type Deps struct {
	Source       FrameSource
	Preprocessor EdgeDetector
	Classifier   PuzzleClassifier
	Keys         KeyPresser
	Flag         *atomic.Bool
	Focus        FocusChecker
	Dumper       FrameDumper
	Session      *Session
	Logger       *slog.Logger
}

// Options tune a Controller.
type Options struct {
	TriggerKey string
	Region     capture.Region // empty means the full window
	Intervals  Intervals
	Clock      func() time.Time
}

// Stats are loop counters readable from any goroutine.
type Stats struct {
	Ticks           uint64
	SkippedFrames   uint64
	Triggers        uint64
	FailedTriggers  uint64
	UnfocusedSkips  uint64
	RecoveredPanics uint64
	Latency         LatencySummary
}

// Controller is the top-level state machine. Tick and Run must be called
// from a single goroutine; State, Stats and the Session may be read from any.
type Controller struct {
	deps Deps
	opts Options
	now  func() time.Time

	mu        sync.RWMutex
	state     State
	listeners []StateListener

	captureFailures int
	latency         latencyRing

	ticks, skipped, triggers, failedTriggers, unfocused, panics atomic.Uint64
}

var errMissingDeps = errors.New("automation: source, preprocessor, classifier, keys and flag are required")

// NewController validates deps and returns a Controller in the Disabled state.
func NewController(deps Deps, opts Options) (*Controller, error) {
	if deps.Source == nil || deps.Preprocessor == nil || deps.Classifier == nil || deps.Keys == nil || deps.Flag == nil {
		return nil, errMissingDeps
	}
	def := DefaultIntervals()
	if opts.Intervals.Disabled <= 0 {
		opts.Intervals.Disabled = def.Disabled
	}
	if opts.Intervals.Enabled <= 0 {
		opts.Intervals.Enabled = def.Enabled
	}
	if opts.Intervals.Active <= 0 {
		opts.Intervals.Active = def.Active
	}
	if opts.Intervals.TriggerCooldown < 0 {
		opts.Intervals.TriggerCooldown = 0
	}
	if opts.TriggerKey == "" {
		opts.TriggerKey = "space"
	}
	if deps.Session == nil {
		deps.Session = NewSession()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Controller{deps: deps, opts: opts, now: now, state: DisabledState()}, nil
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// AddListener registers l for subsequent transitions.
func (c *Controller) AddListener(l StateListener) {
	if l == nil {
		return
	}
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
}

func (c *Controller) Session() *Session { return c.deps.Session }

func (c *Controller) Stats() Stats {
	return Stats{
		Ticks:           c.ticks.Load(),
		SkippedFrames:   c.skipped.Load(),
		Triggers:        c.triggers.Load(),
		FailedTriggers:  c.failedTriggers.Load(),
		UnfocusedSkips:  c.unfocused.Load(),
		RecoveredPanics: c.panics.Load(),
		Latency:         c.latency.summary(),
	}
}

// Run ticks until ctx is done, sleeping the duration each tick returns.
func (c *Controller) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C
	for {
		if err := ctx.Err(); err != nil {
			c.shutdown()
			return nil
		}
		d := c.Tick()
		timer.Reset(d)
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case <-timer.C:
		}
	}
}

// Tick runs one loop iteration and returns how long to sleep before the next.
// A panic in any stage is recovered and logged; the state is left unchanged.
func (c *Controller) Tick() (sleep time.Duration) {
	c.ticks.Add(1)
	start := time.Now()
	defer func() {
		c.latency.add(time.Since(start))
		if r := recover(); r != nil {
			c.panics.Add(1)
			if c.deps.Logger != nil {
				c.deps.Logger.Error("tick panic", "error", r, "state", c.State().String(), "stack", string(debug.Stack()))
			}
			sleep = c.opts.Intervals.For(c.State().Kind)
		}
	}()

	enabled := c.deps.Flag.Load()
	c.deps.Session.OnTick(enabled, c.now())
	cur := c.State()

	if !enabled {
		if cur.Kind != Disabled {
			c.leave(cur)
			c.transition(DisabledState())
		}
		return c.opts.Intervals.Disabled
	}
	if cur.Kind == Disabled {
		c.transition(EnabledState())
		cur = c.State()
	}

	switch cur.Kind {
	case Enabled:
		return c.tickEnabled()
	case PuzzleActive:
		return c.tickActive(cur.Puzzle)
	}
	return c.opts.Intervals.Disabled
}

func (c *Controller) tickEnabled() time.Duration {
	frame, edges, ok := c.frame()
	if !ok {
		return c.opts.Intervals.Enabled
	}
	defer capture.RecycleFrame(frame)
	t, found := c.deps.Classifier.DetectActivePuzzle(edges)
	if !found {
		return c.opts.Intervals.Enabled
	}
	ps := c.deps.Session.BeginPuzzle(t, c.now())
	if c.deps.Logger != nil {
		c.deps.Logger.Info("puzzle activated", "puzzle", t.String(), "session", ps.ID.String())
	}
	if c.deps.Dumper != nil {
		c.deps.Dumper.Dump(frame, "activate")
	}
	c.transition(ActiveState(t))
	return c.opts.Intervals.Active
}

func (c *Controller) tickActive(t puzzle.Type) time.Duration {
	h, ok := c.deps.Classifier.Handler(t)
	if !ok {
		if c.deps.Logger != nil {
			c.deps.Logger.Warn("no handler for active puzzle", "puzzle", t.String())
		}
		c.endPuzzle("no_handler")
		c.transition(EnabledState())
		return c.opts.Intervals.Enabled
	}
	frame, edges, ok := c.frame()
	if !ok {
		return c.opts.Intervals.Active
	}
	defer capture.RecycleFrame(frame)
	c.deps.Session.RecordFrame()

	switch h.ProcessFrame(frame, edges) {
	case puzzle.Complete:
		h.Reset()
		c.endPuzzle("complete")
		c.transition(EnabledState())
		return c.opts.Intervals.Enabled
	case puzzle.Trigger:
		if c.fire(frame) {
			return c.opts.Intervals.Active + c.opts.Intervals.TriggerCooldown
		}
	}
	return c.opts.Intervals.Active
}

// fire injects the trigger key. It reports whether a key was actually sent.
func (c *Controller) fire(frame *image.RGBA) bool {
	if c.deps.Focus != nil && !c.deps.Focus.Focused() {
		c.unfocused.Add(1)
		if c.deps.Logger != nil {
			c.deps.Logger.Debug("trigger skipped, target not focused")
		}
		return false
	}
	if err := c.deps.Keys.PressKey(c.opts.TriggerKey); err != nil {
		c.failedTriggers.Add(1)
		if c.deps.Logger != nil {
			c.deps.Logger.Error("trigger injection failed", "key", c.opts.TriggerKey, "error", err)
		}
		return false
	}
	c.triggers.Add(1)
	c.deps.Session.RecordTrigger()
	if c.deps.Logger != nil {
		c.deps.Logger.Info("trigger", "key", c.opts.TriggerKey)
	}
	if c.deps.Dumper != nil {
		c.deps.Dumper.Dump(frame, "trigger")
	}
	return true
}

// frame captures, crops and preprocesses. ok is false on a skipped tick.
// The returned frame belongs to the tick and is recycled when it ends.
func (c *Controller) frame() (frame *image.RGBA, edges *image.Gray, ok bool) {
	frame, err := c.deps.Source.CaptureFull()
	if err != nil {
		c.skipped.Add(1)
		c.captureFailures++
		c.logCaptureError(err)
		return nil, nil, false
	}
	if c.captureFailures > 0 && c.deps.Logger != nil {
		c.deps.Logger.Debug("capture recovered", "failures", c.captureFailures)
	}
	c.captureFailures = 0
	if !c.opts.Region.Empty() {
		raw := frame
		frame = capture.ExtractRegion(raw, c.opts.Region)
		capture.RecycleFrame(raw)
	}
	return frame, c.deps.Preprocessor.Process(frame), true
}

func (c *Controller) logCaptureError(err error) {
	if c.deps.Logger == nil {
		return
	}
	if errors.Is(err, capture.ErrWindowNotFound) {
		c.deps.Logger.Debug("target window not found", "error", err)
		return
	}
	if c.captureFailures == 1 || c.captureFailures%captureWarnEvery == 0 {
		c.deps.Logger.Warn("capture failed", "error", err, "consecutive", c.captureFailures)
	}
}

// leave resets the active handler, if any, before dropping out of a puzzle.
func (c *Controller) leave(cur State) {
	if cur.Kind != PuzzleActive {
		return
	}
	if h, ok := c.deps.Classifier.Handler(cur.Puzzle); ok {
		h.Reset()
	}
	c.endPuzzle("disabled")
}

func (c *Controller) endPuzzle(reason string) {
	ps, dur, ok := c.deps.Session.EndPuzzle(c.now())
	if !ok || c.deps.Logger == nil {
		return
	}
	c.deps.Logger.Info("puzzle ended",
		"puzzle", ps.Type.String(),
		"session", ps.ID.String(),
		"reason", reason,
		"frames", ps.Frames,
		"triggers", ps.Triggers,
		"duration", dur,
	)
}

func (c *Controller) shutdown() {
	cur := c.State()
	if cur.Kind == Disabled {
		return
	}
	c.leave(cur)
	c.transition(DisabledState())
}

func (c *Controller) transition(next State) {
	c.mu.Lock()
	prev := c.state
	if prev == next {
		c.mu.Unlock()
		return
	}
	c.state = next
	listeners := make([]StateListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	if c.deps.Logger != nil {
		c.deps.Logger.Debug("state transition", "from", prev.String(), "to", next.String())
	}
	for _, l := range listeners {
		l(prev, next)
	}
}
