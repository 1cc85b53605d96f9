package puzzle

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/reticle-bot/domain/vision"
)

// scriptedMatcher answers per template so tests can drive confidence and
// position without real images.
type scriptedMatcher struct {
	puzzle, reticle *image.Gray
	puzzleScore     float64
	puzzleOK        bool
	reticleRes      vision.MatchResult
	reticleOK       bool
}

func (m *scriptedMatcher) match(_ *image.Gray, tmpl *image.Gray) (vision.MatchResult, bool) {
	switch tmpl {
	case m.puzzle:
		return vision.MatchResult{Score: m.puzzleScore}, m.puzzleOK
	case m.reticle:
		return m.reticleRes, m.reticleOK
	}
	return vision.MatchResult{}, false
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }
func newFakeClock() *fakeClock               { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }
func edgesFixture() *image.Gray              { return image.NewGray(image.Rect(0, 0, 64, 64)) }
func grayTemplate(w, h int) *image.Gray      { return image.NewGray(image.Rect(0, 0, w, h)) }
func defaultReticleConfig(target image.Point) ReticleConfig {
	return ReticleConfig{ActivationThreshold: 0.7, TriggerDistancePx: 20, CooldownMs: 500, TargetCenter: target}
}

func newScriptedHandler(t *testing.T, cfg ReticleConfig) (*ReticleHandler, *scriptedMatcher, *fakeClock) {
	t.Helper()
	m := &scriptedMatcher{
		puzzle:      grayTemplate(8, 8),
		reticle:     grayTemplate(4, 4),
		puzzleScore: 1,
		puzzleOK:    true,
	}
	clk := newFakeClock()
	h := NewReticleHandler(cfg, m.puzzle, m.reticle, WithMatcher(m.match), WithClock(clk.now))
	return h, m, clk
}

func TestReticle_DetectActiveThreshold(t *testing.T) {
	h, m, _ := newScriptedHandler(t, defaultReticleConfig(image.Point{}))

	m.puzzleScore = 0.69
	assert.False(t, h.DetectActive(edgesFixture()))
	m.puzzleScore = 0.70
	assert.True(t, h.DetectActive(edgesFixture()))

	m.puzzleOK = false
	m.puzzleScore = 1
	assert.False(t, h.DetectActive(edgesFixture()), "failed match is never active")
}

func TestReticle_DetectActiveWithoutTemplate(t *testing.T) {
	h := NewReticleHandler(defaultReticleConfig(image.Point{}), nil, nil)
	assert.False(t, h.DetectActive(edgesFixture()))
	p, r := h.HasTemplates()
	assert.False(t, p)
	assert.False(t, r)
}

func TestReticle_TriggerAtDistanceThenCooldown(t *testing.T) {
	// reticle template is 4x4, so its centre is the match offset plus (2,2).
	// Offset (10,14) puts the centre at (12,16): 20px from the origin.
	h, m, clk := newScriptedHandler(t, defaultReticleConfig(image.Pt(0, 0)))
	m.reticleRes = vision.MatchResult{X: 10, Y: 14, Score: 0.9}
	m.reticleOK = true

	assert.Equal(t, Trigger, h.ProcessFrame(nil, edgesFixture()))

	clk.advance(499 * time.Millisecond)
	assert.Equal(t, Wait, h.ProcessFrame(nil, edgesFixture()), "cooldown not yet elapsed")

	clk.advance(time.Millisecond)
	assert.Equal(t, Trigger, h.ProcessFrame(nil, edgesFixture()), "cooldown elapsed")
}

func TestReticle_WaitBeyondDistance(t *testing.T) {
	h, m, _ := newScriptedHandler(t, defaultReticleConfig(image.Pt(0, 0)))
	m.reticleRes = vision.MatchResult{X: 10, Y: 15, Score: 0.9}
	m.reticleOK = true
	assert.Equal(t, Wait, h.ProcessFrame(nil, edgesFixture()))
}

func TestReticle_LowTrackingConfidenceWaits(t *testing.T) {
	h, m, _ := newScriptedHandler(t, defaultReticleConfig(image.Pt(12, 16)))
	m.reticleRes = vision.MatchResult{X: 10, Y: 14, Score: 0.49}
	m.reticleOK = true
	assert.Equal(t, Wait, h.ProcessFrame(nil, edgesFixture()))

	m.reticleOK = false
	m.reticleRes.Score = 1
	assert.Equal(t, Wait, h.ProcessFrame(nil, edgesFixture()))
}

func TestReticle_NoReticleTemplateWaits(t *testing.T) {
	m := &scriptedMatcher{puzzle: grayTemplate(8, 8), puzzleScore: 1, puzzleOK: true}
	h := NewReticleHandler(defaultReticleConfig(image.Point{}), m.puzzle, nil, WithMatcher(m.match))
	for i := 0; i < 5; i++ {
		assert.Equal(t, Wait, h.ProcessFrame(nil, edgesFixture()))
	}
}

func TestReticle_CompleteAfterSustainedLowConfidence(t *testing.T) {
	h, m, _ := newScriptedHandler(t, defaultReticleConfig(image.Point{}))
	m.puzzleScore = 0.5 // below 0.8 * 0.7

	var got []Action
	for i := 0; i < 31; i++ {
		got = append(got, h.ProcessFrame(nil, edgesFixture()))
	}
	require.Len(t, got, 31)
	for i, a := range got[:30] {
		assert.Equal(t, Wait, a, "frame %d", i)
	}
	assert.Equal(t, Complete, got[30])
}

func TestReticle_HighConfidenceResetsInactivity(t *testing.T) {
	h, m, _ := newScriptedHandler(t, defaultReticleConfig(image.Point{}))

	m.puzzleScore = 0.5
	for i := 0; i < 29; i++ {
		require.Equal(t, Wait, h.ProcessFrame(nil, edgesFixture()))
	}
	m.puzzleScore = 0.9
	require.Equal(t, Wait, h.ProcessFrame(nil, edgesFixture()))

	// counter restarted: another 30 low frames are still tolerated
	m.puzzleScore = 0.5
	for i := 0; i < 30; i++ {
		assert.Equal(t, Wait, h.ProcessFrame(nil, edgesFixture()), "frame %d", i)
	}
	assert.Equal(t, Complete, h.ProcessFrame(nil, edgesFixture()))
}

func TestReticle_ScoreAtInactiveThresholdCountsAsPresent(t *testing.T) {
	h, m, _ := newScriptedHandler(t, defaultReticleConfig(image.Point{}))
	m.puzzleScore = 0.7 * inactiveRatio
	for i := 0; i < 40; i++ {
		assert.Equal(t, Wait, h.ProcessFrame(nil, edgesFixture()))
	}
}

func TestReticle_ResetClearsState(t *testing.T) {
	h, m, _ := newScriptedHandler(t, defaultReticleConfig(image.Pt(12, 16)))
	m.reticleRes = vision.MatchResult{X: 10, Y: 14, Score: 1}
	m.reticleOK = true

	require.Equal(t, Trigger, h.ProcessFrame(nil, edgesFixture()))
	require.Equal(t, Wait, h.ProcessFrame(nil, edgesFixture()))

	h.Reset()
	assert.Equal(t, Trigger, h.ProcessFrame(nil, edgesFixture()), "cooldown cleared by Reset")

	m.puzzleScore = 0
	m.reticleOK = false
	for i := 0; i < 30; i++ {
		h.ProcessFrame(nil, edgesFixture())
	}
	h.Reset()
	assert.Equal(t, Wait, h.ProcessFrame(nil, edgesFixture()), "inactivity counter cleared by Reset")
}

func TestReticle_RealMatcherFindsReticle(t *testing.T) {
	edges := image.NewGray(image.Rect(0, 0, 40, 40))
	reticle := image.NewGray(image.Rect(0, 0, 5, 5))
	for i := 0; i < 5; i++ {
		reticle.SetGray(i, 2, colorOn)
		reticle.SetGray(2, i, colorOn)
	}
	// plant the cross with its top-left at (20,10); centre (22,12)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			edges.SetGray(20+x, 10+y, reticle.GrayAt(x, y))
		}
	}
	h := NewReticleHandler(defaultReticleConfig(image.Pt(22, 12)), nil, reticle)
	assert.Equal(t, Trigger, h.ProcessFrame(nil, edges))
}

var colorOn = color.Gray{Y: 255}

func outlineBox(size int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, size, size))
	for i := 0; i < size; i++ {
		g.SetGray(i, 0, colorOn)
		g.SetGray(i, size-1, colorOn)
		g.SetGray(0, i, colorOn)
		g.SetGray(size-1, i, colorOn)
	}
	return g
}

func TestReticle_PuzzleScalesDetectResizedPuzzle(t *testing.T) {
	edges := image.NewGray(image.Rect(0, 0, 50, 50))
	big := outlineBox(20)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			edges.SetGray(10+x, 12+y, big.GrayAt(x, y))
		}
	}
	cfg := defaultReticleConfig(image.Point{})
	cfg.ActivationThreshold = 0.95

	h := NewReticleHandler(cfg, outlineBox(10), nil, WithPuzzleScales([]float64{1, 2}))
	assert.True(t, h.DetectActive(edges))
	assert.Equal(t, Wait, h.ProcessFrame(nil, edges))
	assert.Zero(t, h.inactiveFrames)
}

func TestReticle_MultiScaleStopsAtThresholds(t *testing.T) {
	cfg := defaultReticleConfig(image.Point{})
	cfg.ActivationThreshold = 0.9
	h := NewReticleHandler(cfg, outlineBox(10), nil, WithPuzzleScales([]float64{1, 2}))
	var stops []float64
	h.matchScaled = func(_ *image.Gray, tmpls []vision.ScaledTemplate, stop float64) (vision.MultiScaleResult, bool) {
		stops = append(stops, stop)
		return vision.MultiScaleResult{MatchResult: vision.MatchResult{Score: 0.95}, Factor: 2}, true
	}

	assert.True(t, h.DetectActive(edgesFixture()))
	assert.Equal(t, Wait, h.ProcessFrame(nil, edgesFixture()))
	require.Len(t, stops, 2)
	assert.InDelta(t, 0.9, stops[0], 1e-9)
	assert.InDelta(t, 0.9*inactiveRatio, stops[1], 1e-9)
}

func TestReticle_ScaledPuzzleWithoutBaseTemplate(t *testing.T) {
	edges := image.NewGray(image.Rect(0, 0, 50, 50))
	big := outlineBox(20)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			edges.SetGray(10+x, 12+y, big.GrayAt(x, y))
		}
	}
	scaled := vision.ScaleTemplate(outlineBox(10), []float64{1, 2})
	h := NewReticleHandler(defaultReticleConfig(image.Point{}), nil, nil, WithScaledPuzzle(scaled))
	puzzleOK, reticleOK := h.HasTemplates()
	assert.True(t, puzzleOK)
	assert.False(t, reticleOK)
	assert.True(t, h.DetectActive(edges))

	blank := image.NewGray(image.Rect(0, 0, 50, 50))
	for i := 0; i < inactiveFrameLimit; i++ {
		require.Equal(t, Wait, h.ProcessFrame(nil, blank))
	}
	assert.Equal(t, Complete, h.ProcessFrame(nil, blank))
}
