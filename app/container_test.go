package app

import (
	"context"
	"image"
	"image/color"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/reticle-bot/config"
	"github.com/soocke/reticle-bot/domain/capture"
	"github.com/soocke/reticle-bot/domain/vision"
)

type noWindows struct{}

func (noWindows) ListWindows() ([]capture.Window, error) { return nil, nil }

type nopKeys struct{}

func (nopKeys) KeyDown(string) error { return nil }
func (nopKeys) KeyUp(string) error   { return nil }

type blockingHotkey struct {
	started atomic.Bool
	stopped atomic.Bool
}

func (h *blockingHotkey) Run(ctx context.Context) error {
	h.started.Store(true)
	<-ctx.Done()
	h.stopped.Store(true)
	return nil
}

func testPlatform(hk *blockingHotkey) Platform {
	return Platform{
		Lister: noWindows{},
		Grabber: capture.GrabberFunc(func(r image.Rectangle) (*image.RGBA, error) {
			return image.NewRGBA(r), nil
		}),
		Keys:       nopKeys{},
		Foreground: func() (string, error) { return "", nil },
		Hotkey: func(string, *atomic.Bool, *slog.Logger) HotkeyRunner {
			return hk
		},
	}
}

func writeTemplate(t *testing.T, name string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 12, 12))
	for i := 0; i < 12; i++ {
		img.Set(i, 6, color.White)
		img.Set(6, i, color.White)
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestBuildContainer_Defaults(t *testing.T) {
	c, err := BuildContainer(nil, nil, testPlatform(&blockingHotkey{}))
	require.NoError(t, err)
	assert.False(t, c.Flag.Load())
	assert.Nil(t, c.Focus)
	assert.Nil(t, c.Dumper)
	p, r := c.Reticle.HasTemplates()
	assert.False(t, p)
	assert.False(t, r)
	assert.Len(t, c.Classifier.Handlers(), 1)
}

func TestBuildContainer_OptionalComponents(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Keys.StartEnabled = true
	cfg.Keys.RequireFocus = true
	cfg.Window.Match = "game"
	cfg.Debug.DumpDir = t.TempDir()
	cfg.Templates.Puzzle = writeTemplate(t, "puzzle.png")
	cfg.Templates.Reticle = writeTemplate(t, "reticle.png")

	c, err := BuildContainer(cfg, nil, testPlatform(&blockingHotkey{}))
	require.NoError(t, err)
	assert.True(t, c.Flag.Load())
	require.NotNil(t, c.Focus)
	assert.Equal(t, "game", c.Focus.Match)
	assert.True(t, c.Dumper.Enabled())
	p, r := c.Reticle.HasTemplates()
	assert.True(t, p)
	assert.True(t, r)
}

func TestBuildContainer_PuzzleScales(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Templates.PuzzleScales = []float64{0.5, 1, 2}
	c, err := BuildContainer(cfg, nil, testPlatform(&blockingHotkey{}))
	require.NoError(t, err)
	p, _ := c.Reticle.HasTemplates()
	assert.False(t, p, "scales without a puzzle template load nothing")

	cfg.Templates.Puzzle = writeTemplate(t, "puzzle.png")
	c, err = BuildContainer(cfg, nil, testPlatform(&blockingHotkey{}))
	require.NoError(t, err)
	p, _ = c.Reticle.HasTemplates()
	assert.True(t, p)
}

func TestBuildContainer_BadTemplateAborts(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Templates.Puzzle = filepath.Join(t.TempDir(), "missing.png")
	_, err := BuildContainer(cfg, nil, testPlatform(&blockingHotkey{}))
	assert.ErrorIs(t, err, vision.ErrTemplateLoad)
}

func TestBuildContainer_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Keys.Toggle = cfg.Keys.Trigger
	_, err := BuildContainer(cfg, nil, testPlatform(&blockingHotkey{}))
	assert.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Keys.StartEnabled = true
	cfg.Window.Match = "absent"
	cfg.Debug.Enabled = true
	cfg.Debug.StatsIntervalMs = 5
	cfg.Timing.EnabledMs = 2
	cfg.Timing.ActiveMs = 1
	cfg.Timing.DisabledMs = 1

	hk := &blockingHotkey{}
	logger := slog.New(slog.NewJSONHandler(discard{}, nil))
	c, err := BuildContainer(cfg, logger, testPlatform(hk))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, c) }()

	require.Eventually(t, func() bool {
		return hk.started.Load() && c.Source.Stats().NotFound >= 3
	}, 2*time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.True(t, hk.stopped.Load())
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
