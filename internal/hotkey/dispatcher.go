// Package hotkey turns the raw keyboard event stream into dictation
// intents: toggle, push-to-talk start/stop, and hotkey capture.
package hotkey

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Sebstrdigital/dua-talk/internal/config"
	"github.com/Sebstrdigital/dua-talk/internal/keys"
)

// captureGrace is how long a modifier release waits for a literal key
// before a modifiers-only capture is committed.
const captureGrace = 100 * time.Millisecond

// Callbacks receive recognized intents. They run on the dispatcher
// goroutine and must not block.
type Callbacks struct {
	// Toggle fires when the toggle chord is completed.
	Toggle func()
	// PushStart and PushStop bracket a push-to-talk hold.
	PushStart func()
	PushStop  func()
	// Captured reports the outcome of a hotkey capture. ok is false
	// when the user pressed no modifier.
	Captured func(mode config.Mode, b keys.Binding, ok bool)
}

// Dispatcher is a single-goroutine actor. All state lives on the Run
// goroutine; external calls communicate through channels.
type Dispatcher struct {
	events chan keys.Event
	cmds   chan func()
	grace  chan struct{}

	cb  Callbacks
	log *zap.SugaredLogger

	// actor state
	tracker    *keys.Tracker
	mode       config.Mode
	bindings   map[config.Mode]keys.Binding
	armed      bool
	graceDelay time.Duration

	capturing    bool
	captureMode  config.Mode
	capturedMods []keys.Modifier
	graceTimer   *time.Timer
}

// New builds a Dispatcher for the given bindings and active mode.
func New(mode config.Mode, bindings map[config.Mode]keys.Binding, cb Callbacks, log *zap.SugaredLogger) *Dispatcher {
	bs := make(map[config.Mode]keys.Binding, len(bindings))
	for m, b := range bindings {
		bs[m] = b
	}
	return &Dispatcher{
		events:     make(chan keys.Event, 64),
		cmds:       make(chan func(), 16),
		grace:      make(chan struct{}, 1),
		cb:         cb,
		log:        log,
		tracker:    keys.NewTracker(),
		mode:       mode,
		bindings:   bs,
		graceDelay: captureGrace,
	}
}

// Events is where the platform listener delivers keyboard events.
func (d *Dispatcher) Events() chan<- keys.Event { return d.events }

// do runs fn on the dispatcher goroutine and waits for it. Calling it
// from inside a callback would deadlock; callbacks never need to, the
// dispatcher applies captured bindings itself.
func (d *Dispatcher) do(fn func()) {
	done := make(chan struct{})
	d.cmds <- func() {
		fn()
		close(done)
	}
	<-done
}

// SetMode switches the active binding.
func (d *Dispatcher) SetMode(mode config.Mode) {
	d.do(func() {
		d.mode = mode
		d.armed = false
	})
}

// SetBinding replaces the binding for a mode.
func (d *Dispatcher) SetBinding(mode config.Mode, b keys.Binding) {
	d.do(func() { d.bindings[mode] = b })
}

// StartCapture records the next chord for mode instead of matching it.
func (d *Dispatcher) StartCapture(mode config.Mode) {
	d.do(func() {
		d.capturing = true
		d.captureMode = mode
		d.capturedMods = nil
		d.stopGraceTimer()
	})
}

// Run processes events until ctx is canceled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.stopGraceTimer()
			return
		case ev := <-d.events:
			d.handle(ev)
		case <-d.grace:
			d.finishModifierCapture()
		case cmd := <-d.cmds:
			cmd()
		}
	}
}

func (d *Dispatcher) handle(ev keys.Event) {
	if ev.Press {
		d.tracker.Press(ev.Key)
		if d.capturing {
			d.capturePress(ev.Key)
			return
		}
		d.matchPress()
		return
	}

	d.tracker.Release(ev.Key)
	if d.capturing {
		d.captureRelease(ev.Key)
		return
	}
	d.matchRelease(ev.Key)
}

func (d *Dispatcher) matchPress() {
	binding := d.bindings[d.mode]
	if !binding.Matches(d.tracker) {
		return
	}
	switch d.mode {
	case config.ModeToggle:
		// Clearing the pressed set keeps the held chord from
		// re-firing on key repeat.
		d.tracker.Clear()
		if d.cb.Toggle != nil {
			d.cb.Toggle()
		}
	case config.ModePushToTalk:
		if d.armed {
			return
		}
		d.armed = true
		if d.cb.PushStart != nil {
			d.cb.PushStart()
		}
	}
}

func (d *Dispatcher) matchRelease(k keys.Key) {
	if d.mode != config.ModePushToTalk || !d.armed {
		return
	}
	if !k.IsModifier() || !d.bindings[d.mode].HasModifier(k.Mod) {
		return
	}
	d.armed = false
	if d.cb.PushStop != nil {
		d.cb.PushStop()
	}
}

func (d *Dispatcher) capturePress(k keys.Key) {
	if k.IsModifier() {
		for _, m := range d.capturedMods {
			if m == k.Mod {
				return
			}
		}
		d.capturedMods = append(d.capturedMods, k.Mod)
		return
	}
	if k.Char == 0 {
		return
	}
	// A literal key completes the capture immediately.
	d.commitCapture(keys.Binding{Modifiers: d.capturedMods, Key: string(k.Char)})
}

func (d *Dispatcher) captureRelease(k keys.Key) {
	if !k.IsModifier() || len(d.capturedMods) == 0 {
		return
	}
	// Give a trailing literal key a moment to arrive before the
	// modifiers-only chord is committed.
	d.stopGraceTimer()
	d.graceTimer = time.AfterFunc(d.graceDelay, func() {
		select {
		case d.grace <- struct{}{}:
		default:
		}
	})
}

func (d *Dispatcher) finishModifierCapture() {
	if !d.capturing {
		return
	}
	d.commitCapture(keys.Binding{Modifiers: d.capturedMods})
}

func (d *Dispatcher) commitCapture(b keys.Binding) {
	mode := d.captureMode
	d.capturing = false
	d.capturedMods = nil
	d.stopGraceTimer()

	if !b.Valid() {
		if d.log != nil {
			d.log.Infow("hotkey capture rejected, no modifier", "mode", mode)
		}
		if d.cb.Captured != nil {
			d.cb.Captured(mode, keys.Binding{}, false)
		}
		return
	}
	d.bindings[mode] = b
	if d.log != nil {
		d.log.Infow("hotkey captured", "mode", mode, "binding", b.String())
	}
	if d.cb.Captured != nil {
		d.cb.Captured(mode, b, true)
	}
}

func (d *Dispatcher) stopGraceTimer() {
	if d.graceTimer != nil {
		d.graceTimer.Stop()
		d.graceTimer = nil
	}
	select {
	case <-d.grace:
	default:
	}
}
