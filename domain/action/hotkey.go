package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	hook "github.com/robotn/gohook"
)

// ErrHotkeyRunning reports a second Run on the same listener.
var ErrHotkeyRunning = errors.New("action: hotkey listener already running")

// hookBackend is the slice of the global hook used by the listener.
type hookBackend interface {
	Register(key string, cb func())
	// Start begins delivering events and returns a channel closed or written
	// once processing stops.
	Start() <-chan bool
	End()
}

type gohookBackend struct{}

func (gohookBackend) Register(key string, cb func()) {
	hook.Register(hook.KeyDown, []string{key}, func(hook.Event) { cb() })
}

func (gohookBackend) Start() <-chan bool {
	s := hook.Start()
	return hook.Process(s)
}

func (gohookBackend) End() { hook.End() }

// HotkeyListener flips a shared enable flag on every press of the toggle
// key. It is the only writer of the flag.
type HotkeyListener struct {
	key      string
	flag     *atomic.Bool
	logger   *slog.Logger
	backend  hookBackend
	running  atomic.Bool
	OnToggle func(enabled bool)
}

// NewHotkeyListener returns a listener for key writing into flag.
func NewHotkeyListener(key string, flag *atomic.Bool, logger *slog.Logger) *HotkeyListener {
	return &HotkeyListener{
		key:     strings.ToLower(strings.TrimSpace(key)),
		flag:    flag,
		logger:  logger,
		backend: gohookBackend{},
	}
}

func (l *HotkeyListener) Key() string { return l.key }

// ValidateKey reports whether the global hook knows key.
func ValidateKey(key string) error {
	if _, ok := hook.Keycode[strings.ToLower(strings.TrimSpace(key))]; !ok {
		return fmt.Errorf("action: unknown hotkey %q", key)
	}
	return nil
}

// Toggle flips the flag and returns the new value.
func (l *HotkeyListener) Toggle() bool {
	for {
		old := l.flag.Load()
		if l.flag.CompareAndSwap(old, !old) {
			if l.logger != nil {
				l.logger.Info("automation toggled", "enabled", !old, "key", l.key)
			}
			if l.OnToggle != nil {
				l.OnToggle(!old)
			}
			return !old
		}
	}
}

// Run registers the toggle key and blocks until ctx is done or the hook
// stops on its own.
func (l *HotkeyListener) Run(ctx context.Context) error {
	if l.flag == nil {
		return errors.New("action: hotkey listener without flag")
	}
	if !l.running.CompareAndSwap(false, true) {
		return ErrHotkeyRunning
	}
	defer l.running.Store(false)

	l.backend.Register(l.key, func() { l.Toggle() })
	done := l.backend.Start()
	if l.logger != nil {
		l.logger.Info("hotkey listener started", "key", l.key)
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
	}
	l.backend.End()
	select {
	case <-done:
	case <-time.After(time.Second):
		if l.logger != nil {
			l.logger.Warn("hotkey listener did not stop in time")
		}
	}
	return nil
}
