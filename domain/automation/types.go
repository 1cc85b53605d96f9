package automation

import (
	"fmt"
	"image"
	"time"

	"github.com/soocke/reticle-bot/domain/puzzle"
)

// StateKind enumerates the controller states.
type StateKind int

const (
	Disabled StateKind = iota
	Enabled
	PuzzleActive
)

func (k StateKind) String() string {
	switch k {
	case Disabled:
		return "disabled"
	case Enabled:
		return "enabled"
	case PuzzleActive:
		return "puzzle_active"
	default:
		return "unknown"
	}
}

// State is the controller state. Puzzle is only meaningful for PuzzleActive.
type State struct {
	Kind   StateKind
	Puzzle puzzle.Type
}

func (s State) String() string {
	if s.Kind == PuzzleActive {
		return fmt.Sprintf("%s(%s)", s.Kind, s.Puzzle)
	}
	return s.Kind.String()
}

// Convenience constructors.
func DisabledState() State            { return State{Kind: Disabled} }
func EnabledState() State             { return State{Kind: Enabled} }
func ActiveState(t puzzle.Type) State { return State{Kind: PuzzleActive, Puzzle: t} }

// StateListener is called on each state transition from the loop goroutine.
type StateListener func(prev, next State)

// Dependency contracts. Each is satisfied by a concrete type in another
// domain package; tests substitute small fakes.
type (
	FrameSource interface {
		CaptureFull() (*image.RGBA, error)
	}
	EdgeDetector interface {
		Process(frame *image.RGBA) *image.Gray
	}
	PuzzleClassifier interface {
		DetectActivePuzzle(edges *image.Gray) (puzzle.Type, bool)
		Handler(t puzzle.Type) (puzzle.Handler, bool)
	}
	KeyPresser interface {
		PressKey(key string) error
	}
	FocusChecker interface {
		Focused() bool
	}
	FrameDumper interface {
		Dump(frame *image.RGBA, reason string)
	}
)

// Intervals is the sleep after a tick, keyed by the state the tick ends in.
type Intervals struct {
	Disabled        time.Duration
	Enabled         time.Duration
	Active          time.Duration
	TriggerCooldown time.Duration
}

// DefaultIntervals returns the standard cadence: 100ms idle, 1s scanning,
// ~60Hz tracking and 100ms extra after a trigger.
func DefaultIntervals() Intervals {
	return Intervals{
		Disabled:        100 * time.Millisecond,
		Enabled:         time.Second,
		Active:          16 * time.Millisecond,
		TriggerCooldown: 100 * time.Millisecond,
	}
}

func (iv Intervals) For(k StateKind) time.Duration {
	switch k {
	case Enabled:
		return iv.Enabled
	case PuzzleActive:
		return iv.Active
	default:
		return iv.Disabled
	}
}
