//go:build windows

package hotkey

import (
	"context"
	"fmt"
	"runtime"
	"syscall"
	"time"
	"unsafe"

	"go.uber.org/zap"

	"github.com/Sebstrdigital/dua-talk/internal/keys"
)

const (
	whKeyboardLL = 13

	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105
	wmQuit       = 0x0012

	llkhfInjected = 0x10

	vkShift    = 0x10
	vkControl  = 0x11
	vkMenu     = 0x12
	vkLWin     = 0x5B
	vkRWin     = 0x5C
	vkLShift   = 0xA0
	vkRShift   = 0xA1
	vkLControl = 0xA2
	vkRControl = 0xA3
	vkLMenu    = 0xA4
	vkRMenu    = 0xA5
)

type kbdLLHookStruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

// translateVK maps a virtual-key code onto the canonical key model.
// Keys that can never participate in a binding map to the zero Key.
func translateVK(vk uint32) keys.Key {
	switch vk {
	case vkShift, vkLShift, vkRShift:
		return keys.Key{Mod: keys.ModShift, Code: vk}
	case vkControl, vkLControl, vkRControl:
		return keys.Key{Mod: keys.ModCtrl, Code: vk}
	case vkMenu, vkLMenu, vkRMenu:
		return keys.Key{Mod: keys.ModAlt, Code: vk}
	case vkLWin, vkRWin:
		return keys.Key{Mod: keys.ModCmd, Code: vk}
	}
	if vk >= 'A' && vk <= 'Z' {
		return keys.CharKey(rune(vk))
	}
	if vk >= '0' && vk <= '9' {
		return keys.CharKey(rune(vk))
	}
	return keys.Key{}
}

// Listen installs a WH_KEYBOARD_LL hook and forwards press and release
// events to out until ctx is canceled. A full channel drops events
// rather than stalling the hook thread.
func Listen(ctx context.Context, out chan<- keys.Event, log *zap.SugaredLogger) error {
	errCh := make(chan error, 1)
	threadCh := make(chan uintptr, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		user32 := syscall.NewLazyDLL("user32.dll")
		kernel32 := syscall.NewLazyDLL("kernel32.dll")
		procSetWindowsHookExW := user32.NewProc("SetWindowsHookExW")
		procUnhookWindowsHookEx := user32.NewProc("UnhookWindowsHookEx")
		procCallNextHookEx := user32.NewProc("CallNextHookEx")
		procGetMessageW := user32.NewProc("GetMessageW")
		procGetCurrentThreadId := kernel32.NewProc("GetCurrentThreadId")

		// Windows auto-repeats held keys; only state changes are
		// forwarded so a held chord fires once.
		down := make(map[uint32]bool)

		deliver := func(k keys.Key, press bool) {
			select {
			case out <- keys.Event{Key: k, Press: press}:
			default:
				if log != nil {
					log.Debugw("event channel full, dropping key event")
				}
			}
		}

		callback := syscall.NewCallback(func(nCode, wParam, lParam uintptr) uintptr {
			if int32(nCode) < 0 {
				ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
				return ret
			}
			k := (*kbdLLHookStruct)(unsafe.Pointer(lParam))
			if (k.flags & llkhfInjected) == 0 {
				if key := translateVK(k.vkCode); key != (keys.Key{}) {
					switch uint32(wParam) {
					case wmKeyDown, wmSysKeyDown:
						if !down[k.vkCode] {
							down[k.vkCode] = true
							deliver(key, true)
						}
					case wmKeyUp, wmSysKeyUp:
						if down[k.vkCode] {
							delete(down, k.vkCode)
							deliver(key, false)
						}
					}
				}
			}
			ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
			return ret
		})

		hook, _, _ := procSetWindowsHookExW.Call(uintptr(whKeyboardLL), callback, 0, 0)
		if hook == 0 {
			errCh <- fmt.Errorf("SetWindowsHookExW failed")
			return
		}
		tid, _, _ := procGetCurrentThreadId.Call()
		threadCh <- tid
		errCh <- nil

		var msg struct {
			Hwnd    uintptr
			Message uint32
			WParam  uintptr
			LParam  uintptr
			Time    uint32
			PtX     int32
			PtY     int32
		}
		for {
			ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
			if int32(ret) <= 0 {
				break
			}
		}
		procUnhookWindowsHookEx.Call(hook)
		if log != nil {
			log.Debugw("keyboard hook uninstalled")
		}
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-time.After(2 * time.Second):
		return fmt.Errorf("timeout installing keyboard hook")
	}

	tid := <-threadCh
	go func() {
		<-ctx.Done()
		user32 := syscall.NewLazyDLL("user32.dll")
		procPostThreadMessageW := user32.NewProc("PostThreadMessageW")
		procPostThreadMessageW.Call(tid, uintptr(wmQuit), 0, 0)
	}()
	return nil
}
