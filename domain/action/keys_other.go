//go:build !windows

package action

import "github.com/go-vgo/robotgo"

type robotgoSender struct{}

// NewPlatformSender returns the robotgo based sender.
func NewPlatformSender() KeySender { return robotgoSender{} }

func (robotgoSender) KeyDown(key string) error { return robotgo.KeyToggle(key, "down") }

func (robotgoSender) KeyUp(key string) error { return robotgo.KeyToggle(key, "up") }
