package puzzle

import (
	"image"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/soocke/reticle-bot/domain/vision"
)

const (
	// inactiveFrameLimit is ~0.5s of missed puzzle frames at the active cadence.
	inactiveFrameLimit = 30
	// inactiveRatio scales the activation threshold into the "still on screen" threshold.
	inactiveRatio = 0.8
	// trackingMinConfidence is the lowest reticle match accepted as a position fix.
	trackingMinConfidence = 0.5
)

// ReticleConfig configures the reticle timing handler. TargetCenter is in
// puzzle-local (edge map) coordinates.
type ReticleConfig struct {
	ActivationThreshold float64
	TriggerDistancePx   uint
	CooldownMs          uint
	TargetCenter        image.Point
}

func (c ReticleConfig) cooldown() time.Duration {
	return time.Duration(c.CooldownMs) * time.Millisecond
}

// ReticleOption customises a ReticleHandler.
type ReticleOption func(*ReticleHandler)

// WithMatcher replaces the template matcher.
func WithMatcher(m vision.MatchFunc) ReticleOption {
	return func(h *ReticleHandler) {
		if m != nil {
			h.match = m
		}
	}
}

// WithClock replaces the time source used for cooldowns.
func WithClock(now func() time.Time) ReticleOption {
	return func(h *ReticleHandler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithPuzzleScales matches the puzzle template at each factor and keeps the
// best score, for targets rendered at a different size than the template.
// Fewer than two factors leaves single-scale matching in place.
func WithPuzzleScales(factors []float64) ReticleOption {
	return func(h *ReticleHandler) { h.puzzleFactors = factors }
}

// WithScaledPuzzle supplies puzzle templates already built per scale, e.g.
// by vision.LoadScaledTemplate. It takes precedence over WithPuzzleScales.
func WithScaledPuzzle(tmpls []vision.ScaledTemplate) ReticleOption {
	return func(h *ReticleHandler) { h.puzzleScaled = tmpls }
}

func WithLogger(l *slog.Logger) ReticleOption {
	return func(h *ReticleHandler) { h.logger = l }
}

// ReticleHandler recognises the timing puzzle with a puzzle template and
// fires when the tracked reticle comes within TriggerDistancePx of
// TargetCenter. Not safe for concurrent use.
type ReticleHandler struct {
	cfg    ReticleConfig
	logger *slog.Logger
	match  vision.MatchFunc
	// matchScaled stops early once a scale reaches its score argument.
	matchScaled func(*image.Gray, []vision.ScaledTemplate, float64) (vision.MultiScaleResult, bool)
	now         func() time.Time

	puzzleTmpl    *image.Gray
	reticleTmpl   *image.Gray
	puzzleFactors []float64
	puzzleScaled  []vision.ScaledTemplate

	lastTrigger    time.Time
	inactiveFrames int
}

// NewReticleHandler returns a handler using the given templates. Either
// template may be nil: without a puzzle template nothing is ever detected,
// without a reticle template nothing is tracked.
func NewReticleHandler(cfg ReticleConfig, puzzleTmpl, reticleTmpl *image.Gray, opts ...ReticleOption) *ReticleHandler {
	h := &ReticleHandler{
		cfg:         cfg,
		match:       vision.Match,
		matchScaled: vision.MatchMultiScale,
		now:         time.Now,
		puzzleTmpl:  puzzleTmpl,
		reticleTmpl: reticleTmpl,
	}
	for _, opt := range opts {
		opt(h)
	}
	if len(h.puzzleScaled) == 0 && len(h.puzzleFactors) > 1 {
		h.puzzleScaled = vision.ScaleTemplate(puzzleTmpl, h.puzzleFactors)
	}
	return h
}

func (h *ReticleHandler) Type() Type { return Reticle }

func (h *ReticleHandler) Config() ReticleConfig { return h.cfg }

// HasTemplates reports which templates are loaded.
func (h *ReticleHandler) HasTemplates() (puzzle, reticle bool) {
	return h.puzzleTmpl != nil || len(h.puzzleScaled) > 0, h.reticleTmpl != nil
}

// DetectActive reports whether the puzzle template matches with at least
// the activation threshold.
func (h *ReticleHandler) DetectActive(edges *image.Gray) bool {
	if h.puzzleTmpl == nil && len(h.puzzleScaled) == 0 {
		return false
	}
	score, ok := h.puzzleScore(edges, h.cfg.ActivationThreshold)
	return ok && score >= h.cfg.ActivationThreshold
}

// puzzleScore returns the puzzle template confidence on edges. Multi-scale
// matching skips the remaining scales once one reaches enough.
func (h *ReticleHandler) puzzleScore(edges *image.Gray, enough float64) (float64, bool) {
	if len(h.puzzleScaled) > 0 {
		res, ok := h.matchScaled(edges, h.puzzleScaled, enough)
		return res.Score, ok
	}
	res, ok := h.match(edges, h.puzzleTmpl)
	return res.Score, ok
}

// ProcessFrame re-checks that the puzzle is still on screen, tracks the
// reticle and returns Trigger when it is close enough to the target and the
// cooldown has elapsed.
func (h *ReticleHandler) ProcessFrame(_ *image.RGBA, edges *image.Gray) Action {
	if h.puzzleTmpl != nil || len(h.puzzleScaled) > 0 {
		present := h.cfg.ActivationThreshold * inactiveRatio
		score, ok := h.puzzleScore(edges, present)
		if !ok || score < present {
			h.inactiveFrames++
			if h.inactiveFrames > inactiveFrameLimit {
				if h.logger != nil {
					h.logger.Debug("reticle puzzle gone", "frames", h.inactiveFrames, "score", score)
				}
				return Complete
			}
		} else {
			h.inactiveFrames = 0
		}
	}

	if h.reticleTmpl == nil {
		return Wait
	}
	res, ok := h.match(edges, h.reticleTmpl)
	if !ok || res.Score < trackingMinConfidence {
		return Wait
	}
	tb := h.reticleTmpl.Bounds()
	pos := image.Pt(res.X+tb.Dx()/2, res.Y+tb.Dy()/2)
	dist := floats.Distance(
		[]float64{float64(pos.X), float64(pos.Y)},
		[]float64{float64(h.cfg.TargetCenter.X), float64(h.cfg.TargetCenter.Y)},
		2,
	)
	if dist > float64(h.cfg.TriggerDistancePx) {
		return Wait
	}
	now := h.now()
	if !h.lastTrigger.IsZero() && now.Sub(h.lastTrigger) < h.cfg.cooldown() {
		return Wait
	}
	h.lastTrigger = now
	if h.logger != nil {
		h.logger.Debug("reticle on target", "x", pos.X, "y", pos.Y, "distance", dist, "score", res.Score)
	}
	return Trigger
}

// Reset clears the trigger timestamp and the inactivity counter.
func (h *ReticleHandler) Reset() {
	h.lastTrigger = time.Time{}
	h.inactiveFrames = 0
}

var _ Handler = (*ReticleHandler)(nil)
