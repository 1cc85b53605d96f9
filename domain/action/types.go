package action

import (
	"errors"
	"fmt"
)

// ErrInputInjection reports that the OS rejected a synthetic key event.
var ErrInputInjection = errors.New("action: input injection failed")

// KeySender emits raw key transitions to the OS. Key names are lower-case
// tokens such as "space", "enter", "f8" or "a".
type KeySender interface {
	KeyDown(key string) error
	KeyUp(key string) error
}

// InjectionError carries the key and the failed transition.
type InjectionError struct {
	Key   string
	Phase string
	Err   error
}

func (e *InjectionError) Error() string {
	return fmt.Sprintf("action: key %q %s: %v", e.Key, e.Phase, e.Err)
}

func (e *InjectionError) Unwrap() error { return e.Err }

func (e *InjectionError) Is(target error) bool { return target == ErrInputInjection }
