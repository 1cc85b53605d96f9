package puzzle

import "image"

// Type identifies a puzzle variant and the handler that owns it.
type Type int

const (
	None Type = iota
	Reticle
)

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case Reticle:
		return "reticle"
	default:
		return "unknown"
	}
}

// Action is the per-frame verdict of an active handler.
type Action int

const (
	Wait Action = iota
	Trigger
	Complete
)

func (a Action) String() string {
	switch a {
	case Wait:
		return "wait"
	case Trigger:
		return "trigger"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Handler recognises one puzzle type and decides, frame by frame, when to
// fire. DetectActive is used for low-frequency scanning; ProcessFrame runs at
// the active cadence while the handler owns the pipeline. Reset clears all
// per-session state and is called whenever the handler stops being active.
// Handlers are used from a single goroutine.
type Handler interface {
	Type() Type
	DetectActive(edges *image.Gray) bool
	ProcessFrame(frame *image.RGBA, edges *image.Gray) Action
	Reset()
}
