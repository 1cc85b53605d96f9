//go:build windows

package action

import (
	"fmt"
	"strings"

	"golang.org/x/sys/windows"
)

const (
	keyeventfExtendedKey = 0x0001
	keyeventfKeyUp       = 0x0002
)

var (
	user32         = windows.NewLazySystemDLL("user32.dll")
	procKeybdEvent = user32.NewProc("keybd_event")
)

type win32Sender struct{}

// NewPlatformSender returns the keybd_event based sender.
func NewPlatformSender() KeySender { return win32Sender{} }

func (win32Sender) KeyDown(key string) error { return sendVK(key, 0) }

func (win32Sender) KeyUp(key string) error { return sendVK(key, keyeventfKeyUp) }

func sendVK(key string, flags uintptr) error {
	vk, ok := ParseVK(key)
	if !ok {
		return fmt.Errorf("unknown key %q", key)
	}
	if isExtended(vk) {
		flags |= keyeventfExtendedKey
	}
	if err := procKeybdEvent.Find(); err != nil {
		return err
	}
	// keybd_event has no return value; failures only surface via a missing proc.
	_, _, _ = procKeybdEvent.Call(uintptr(vk), 0, flags, 0)
	return nil
}

var namedVK = map[string]byte{
	"space":     0x20,
	"enter":     0x0D,
	"return":    0x0D,
	"tab":       0x09,
	"esc":       0x1B,
	"escape":    0x1B,
	"backspace": 0x08,
	"shift":     0x10,
	"ctrl":      0x11,
	"control":   0x11,
	"alt":       0x12,
	"left":      0x25,
	"up":        0x26,
	"right":     0x27,
	"down":      0x28,
	"insert":    0x2D,
	"delete":    0x2E,
	"home":      0x24,
	"end":       0x23,
	"pageup":    0x21,
	"pagedown":  0x22,
}

// ParseVK converts a key token ("space", "f8", "r", "5") into a Windows
// virtual-key code. F1..F24, letters, digits and common named keys are known.
func ParseVK(key string) (byte, bool) {
	k := strings.ToLower(strings.TrimSpace(key))
	if vk, ok := namedVK[k]; ok {
		return vk, true
	}
	if len(k) >= 2 && len(k) <= 3 && k[0] == 'f' {
		n := 0
		for _, c := range k[1:] {
			if c < '0' || c > '9' {
				return 0, false
			}
			n = n*10 + int(c-'0')
		}
		if n >= 1 && n <= 24 {
			return byte(0x70 + (n - 1)), true // VK_F1=0x70
		}
		return 0, false
	}
	if len(k) == 1 {
		c := k[0]
		switch {
		case c >= 'a' && c <= 'z':
			return c - 'a' + 'A', true // 'A'..'Z' match VK codes
		case c >= '0' && c <= '9':
			return c, true
		}
	}
	return 0, false
}

func isExtended(vk byte) bool {
	switch vk {
	case 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27, 0x28, 0x2D, 0x2E:
		return true
	}
	return false
}
