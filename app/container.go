package app

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/soocke/reticle-bot/config"
	"github.com/soocke/reticle-bot/domain/action"
	"github.com/soocke/reticle-bot/domain/automation"
	"github.com/soocke/reticle-bot/domain/capture"
	"github.com/soocke/reticle-bot/domain/puzzle"
	"github.com/soocke/reticle-bot/domain/vision"
)

// HotkeyRunner blocks delivering toggle presses until its context ends.
type HotkeyRunner interface {
	Run(ctx context.Context) error
}

// Platform carries the OS adapters. Zero fields select the platform defaults.
type Platform struct {
	Lister     capture.WindowLister
	Grabber    capture.Grabber
	Keys       action.KeySender
	Foreground func() (string, error)
	Hotkey     func(key string, flag *atomic.Bool, logger *slog.Logger) HotkeyRunner
}

// Container assembles the pipeline components from configuration.
type Container struct {
	Config       *config.Config
	Logger       *slog.Logger
	Flag         *atomic.Bool
	Source       *capture.WindowSource
	Preprocessor *vision.Preprocessor
	Classifier   *puzzle.Classifier
	Reticle      *puzzle.ReticleHandler
	Injector     *action.Injector
	Focus        *action.FocusGate
	Dumper       *vision.Dumper
	Hotkey       HotkeyRunner
	Controller   *automation.Controller
}

// BuildContainer constructs all components. Side-effects limited to template
// loading; an unreadable template aborts with vision.ErrTemplateLoad.
func BuildContainer(cfg *config.Config, logger *slog.Logger, p Platform) (*Container, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Container{Config: cfg, Logger: logger, Flag: &atomic.Bool{}}
	c.Flag.Store(cfg.Keys.StartEnabled)

	c.Source = capture.NewWindowSource(cfg.Window.Match, p.Lister, p.Grabber, logger)
	c.Preprocessor = vision.NewPreprocessor(vision.PreprocessConfig{
		BlurSigma: cfg.Preprocess.BlurSigma,
		CannyLow:  cfg.Preprocess.CannyLow,
		CannyHigh: cfg.Preprocess.CannyHigh,
	})

	puzzleTmpl, err := vision.LoadTemplate(cfg.Templates.Puzzle, c.Preprocessor, cfg.Templates.Preprocessed)
	if err != nil {
		return nil, err
	}
	reticleTmpl, err := vision.LoadTemplate(cfg.Templates.Reticle, c.Preprocessor, cfg.Templates.Preprocessed)
	if err != nil {
		return nil, err
	}
	var puzzleScaled []vision.ScaledTemplate
	if len(cfg.Templates.PuzzleScales) > 1 {
		puzzleScaled, err = vision.LoadScaledTemplate(cfg.Templates.Puzzle, c.Preprocessor, cfg.Templates.Preprocessed, cfg.Templates.PuzzleScales)
		if err != nil {
			return nil, err
		}
	}
	if puzzleTmpl == nil && logger != nil {
		logger.Warn("no puzzle template configured, puzzles will never activate")
	}
	c.Reticle = puzzle.NewReticleHandler(puzzle.ReticleConfig{
		ActivationThreshold: cfg.Reticle.ActivationThreshold,
		TriggerDistancePx:   cfg.Reticle.TriggerDistancePx,
		CooldownMs:          cfg.Reticle.CooldownMs,
		TargetCenter:        image.Pt(cfg.Reticle.TargetX, cfg.Reticle.TargetY),
	}, puzzleTmpl, reticleTmpl,
		puzzle.WithLogger(logger),
		puzzle.WithScaledPuzzle(puzzleScaled),
	)
	c.Classifier = puzzle.NewClassifier(c.Reticle)

	c.Injector = action.NewInjector(p.Keys, time.Duration(cfg.Keys.PressDelayMs)*time.Millisecond, logger)
	if p.Hotkey != nil {
		c.Hotkey = p.Hotkey(cfg.Keys.Toggle, c.Flag, logger)
	} else {
		if err := action.ValidateKey(cfg.Keys.Toggle); err != nil {
			return nil, err
		}
		c.Hotkey = action.NewHotkeyListener(cfg.Keys.Toggle, c.Flag, logger)
	}

	deps := automation.Deps{
		Source:       c.Source,
		Preprocessor: c.Preprocessor,
		Classifier:   c.Classifier,
		Keys:         c.Injector,
		Flag:         c.Flag,
		Logger:       logger,
	}
	if cfg.Keys.RequireFocus {
		c.Focus = action.NewFocusGate(cfg.Window.Match, p.Foreground, logger)
		deps.Focus = c.Focus
	}
	if cfg.Debug.DumpDir != "" {
		c.Dumper = vision.NewDumper(cfg.Debug.DumpDir, c.Preprocessor, logger)
		deps.Dumper = c.Dumper
	}
	c.Controller, err = automation.NewController(deps, automation.Options{
		TriggerKey: cfg.Keys.Trigger,
		Region: capture.Region{
			X: cfg.Region.X, Y: cfg.Region.Y,
			Width: cfg.Region.Width, Height: cfg.Region.Height,
		},
		Intervals: automation.Intervals{
			Disabled:        cfg.Timing.Disabled(),
			Enabled:         cfg.Timing.Enabled(),
			Active:          cfg.Timing.Active(),
			TriggerCooldown: cfg.Timing.TriggerCooldown(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("app: build controller: %w", err)
	}
	return c, nil
}
