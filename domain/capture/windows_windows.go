//go:build windows

package capture

import (
	"image"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	procEnumWindows              = user32.NewProc("EnumWindows")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procIsIconic                 = user32.NewProc("IsIconic")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
)

type rect struct {
	Left, Top, Right, Bottom int32
}

type win32Lister struct{}

// NewPlatformLister returns the Win32 EnumWindows based lister.
func NewPlatformLister() WindowLister { return win32Lister{} }

// enumCallback is created once: Windows caps the number of callbacks a
// process may create and never frees them, and ListWindows runs every tick.
var (
	enumMu       sync.Mutex
	enumOut      []Window
	enumCallback = syscall.NewCallback(enumWindowProc)
)

func enumWindowProc(hwnd uintptr, lparam uintptr) uintptr {
	if vis, _, _ := procIsWindowVisible.Call(hwnd); vis == 0 {
		return 1 // continue
	}
	if iconic, _, _ := procIsIconic.Call(hwnd); iconic != 0 {
		return 1
	}
	title := windowText(hwnd)
	if title == "" {
		return 1
	}
	var r rect
	if ok, _, _ := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&r))); ok == 0 {
		return 1
	}
	enumOut = append(enumOut, Window{
		Title:   title,
		AppName: processName(hwnd),
		Bounds:  image.Rect(int(r.Left), int(r.Top), int(r.Right), int(r.Bottom)),
	})
	return 1
}

// ListWindows returns visible, non-minimised top-level windows with a title.
func (win32Lister) ListWindows() ([]Window, error) {
	enumMu.Lock()
	defer enumMu.Unlock()
	enumOut = nil
	r, _, callErr := procEnumWindows.Call(enumCallback, 0)
	out := enumOut
	enumOut = nil
	if r == 0 && callErr != nil && callErr != windows.ERROR_SUCCESS {
		return nil, callErr
	}
	return out, nil
}

func windowText(hwnd uintptr) string {
	const maxChars = 256
	buf := make([]uint16, maxChars)
	n, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return ""
	}
	return strings.TrimSpace(string(utf16.Decode(buf[:n])))
}

// processName returns the executable base name (without extension) owning hwnd.
func processName(hwnd uintptr) string {
	var pid uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return ""
	}
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return ""
	}
	defer windows.CloseHandle(h)
	buf := make([]uint16, windows.MAX_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		return ""
	}
	base := filepath.Base(windows.UTF16ToString(buf[:size]))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ForegroundWindowTitle returns the title of the current foreground window.
func ForegroundWindowTitle() (string, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return "", errNoForeground
	}
	return windowText(hwnd), nil
}
