package action

import (
	"log/slog"
	"time"
)

// DefaultPressDelay is the hold time between key down and key up.
const DefaultPressDelay = 10 * time.Millisecond

// Injector turns a key name into a full press (down, hold, up).
type Injector struct {
	sender KeySender
	delay  time.Duration
	logger *slog.Logger
	sleep  func(time.Duration)
}

// NewInjector returns an Injector. A nil sender selects the platform sender;
// a non-positive delay selects DefaultPressDelay.
func NewInjector(sender KeySender, delay time.Duration, logger *slog.Logger) *Injector {
	if sender == nil {
		sender = NewPlatformSender()
	}
	if delay <= 0 {
		delay = DefaultPressDelay
	}
	return &Injector{sender: sender, delay: delay, logger: logger, sleep: time.Sleep}
}

// PressKey sends key down, waits the press delay, then key up. A failed down
// skips the up; a failed up is still reported. Errors match ErrInputInjection.
func (i *Injector) PressKey(key string) error {
	if err := i.sender.KeyDown(key); err != nil {
		return &InjectionError{Key: key, Phase: "down", Err: err}
	}
	i.sleep(i.delay)
	if err := i.sender.KeyUp(key); err != nil {
		return &InjectionError{Key: key, Phase: "up", Err: err}
	}
	if i.logger != nil {
		i.logger.Debug("key pressed", "key", key, "hold", i.delay)
	}
	return nil
}
