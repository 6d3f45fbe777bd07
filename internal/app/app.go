// Package app wires the hotkey dispatcher, recording session,
// transcription pipeline and clipboard paste into the background
// dictation service.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sebstrdigital/dua-talk/internal/asr"
	"github.com/Sebstrdigital/dua-talk/internal/cleanup"
	"github.com/Sebstrdigital/dua-talk/internal/clipboard"
	"github.com/Sebstrdigital/dua-talk/internal/config"
	"github.com/Sebstrdigital/dua-talk/internal/hotkey"
	"github.com/Sebstrdigital/dua-talk/internal/keys"
	"github.com/Sebstrdigital/dua-talk/internal/notify"
	"github.com/Sebstrdigital/dua-talk/internal/pipeline"
	"github.com/Sebstrdigital/dua-talk/internal/record"
	"github.com/Sebstrdigital/dua-talk/internal/sound"
)

// warmupRetryDelay spaces out endpoint probes while the speech engine
// is unavailable.
const warmupRetryDelay = 10 * time.Second

// previewLen caps the transcript excerpt shown in notifications.
const previewLen = 50

// Paster delivers text into the focused window.
type Paster interface {
	Paste(text string) error
}

// Options carries the collaborators the App orchestrates.
type Options struct {
	Config   *config.Manager
	Source   record.Source
	Engine   asr.Engine
	Cleaner  cleanup.Cleaner
	Paster   Paster
	Notifier notify.Notifier
	Cues     sound.Cues
	Log      *zap.SugaredLogger

	// Listener feeds keyboard events to the dispatcher. Defaults to
	// the platform hook.
	Listener func(ctx context.Context, out chan<- keys.Event, log *zap.SugaredLogger) error
}

// App is the dictation service.
type App struct {
	cfg      *config.Manager
	session  *record.Session
	pipe     *pipeline.Pipeline
	engine   asr.Engine
	paster   Paster
	notifier notify.Notifier
	cues     sound.Cues
	disp     *hotkey.Dispatcher
	log      *zap.SugaredLogger

	ready     atomic.Bool
	cacheDir  string
	keepCache bool

	listen func(ctx context.Context, out chan<- keys.Event, log *zap.SugaredLogger) error

	ctx    context.Context
	procWG sync.WaitGroup
}

// New builds the App and its dispatcher.
func New(o Options) *App {
	if o.Log == nil {
		o.Log = zap.NewNop().Sugar()
	}
	if o.Listener == nil {
		o.Listener = hotkey.Listen
	}
	a := &App{
		cfg:      o.Config,
		session:  record.NewSession(o.Source, o.Log),
		pipe:     pipeline.New(o.Engine, o.Cleaner, o.Log),
		engine:   o.Engine,
		paster:   o.Paster,
		notifier: o.Notifier,
		cues:     o.Cues,
		log:      o.Log,
		listen:   o.Listener,
		ctx:      context.Background(),
	}

	cfg := o.Config.Config()
	a.cacheDir = cfg.CacheDir
	if a.cacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		a.cacheDir = filepath.Join(base, "dua-talk")
	}
	a.keepCache = cfg.KeepCache

	bindings := map[config.Mode]keys.Binding{
		config.ModeToggle:     cfg.Hotkeys.Toggle,
		config.ModePushToTalk: cfg.Hotkeys.PushToTalk,
	}
	a.disp = hotkey.New(cfg.ActiveMode, bindings, hotkey.Callbacks{
		Toggle:    a.ToggleRecording,
		PushStart: a.startHold,
		PushStop:  a.stopHold,
		Captured:  a.onCaptured,
	}, o.Log)
	return a
}

// Dispatcher exposes the hotkey dispatcher for the platform listener.
func (a *App) Dispatcher() *hotkey.Dispatcher { return a.disp }

// Run services hotkeys until ctx is canceled, then waits for any
// in-flight transcription.
func (a *App) Run(ctx context.Context) error {
	a.ctx = ctx
	if err := os.MkdirAll(a.cacheDir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	a.sweepCache()

	go a.disp.Run(ctx)
	if err := a.listen(ctx, a.disp.Events(), a.log); err != nil {
		return err
	}
	go a.warmup(ctx)

	<-ctx.Done()
	a.procWG.Wait()
	return nil
}

// warmup probes the speech endpoint until it answers, then unlocks
// recording.
func (a *App) warmup(ctx context.Context) {
	notified := false
	for {
		err := a.engine.Warmup(ctx)
		if err == nil {
			a.ready.Store(true)
			mode := a.cfg.ActiveMode()
			a.notify("Ready", fmt.Sprintf("Speech engine ready. Use %s to record.", a.cfg.Hotkey(mode).String()))
			a.log.Infow("speech engine ready")
			return
		}
		if ctx.Err() != nil {
			return
		}
		a.log.Warnw("speech engine warmup failed", "error", err)
		if !notified {
			notified = true
			a.notify("Not Ready", "Speech endpoint unreachable, retrying...")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(warmupRetryDelay):
		}
	}
}

// ToggleRecording flips between recording and processing a dictation.
// Used by both the toggle hotkey and the tray menu.
func (a *App) ToggleRecording() {
	if !a.ready.Load() {
		a.notify("Not Ready", "Speech engine still loading...")
		return
	}
	switch a.session.State() {
	case record.StateIdle:
		a.startRecording()
	case record.StateRecording:
		a.stopRecording()
	default:
		a.log.Debugw("toggle ignored while processing")
	}
}

func (a *App) startHold() {
	if !a.ready.Load() {
		a.notify("Not Ready", "Speech engine still loading...")
		return
	}
	if a.session.State() == record.StateIdle {
		a.startRecording()
	}
}

func (a *App) stopHold() {
	if a.session.State() == record.StateRecording {
		a.stopRecording()
	}
}

func (a *App) startRecording() {
	if err := a.session.Start(); err != nil {
		a.log.Warnw("recording start failed", "error", err)
		a.notify("Error", "Could not start recording. Check microphone.")
		return
	}
	a.log.Infow("recording started")
	a.cues.RecordingStarted()
}

func (a *App) stopRecording() {
	capture, err := a.session.Stop()
	if err != nil {
		if errors.Is(err, record.ErrNoAudio) {
			a.notify("Error", "No audio recorded. Check microphone.")
		} else {
			a.log.Warnw("recording stop failed", "error", err)
		}
		a.session.Finish()
		return
	}
	a.log.Infow("recording stopped", "duration", capture.Duration())

	a.procWG.Add(1)
	go func() {
		defer a.procWG.Done()
		defer a.session.Finish()
		a.process(capture)
	}()
}

// process turns one capture into pasted text.
func (a *App) process(capture record.Capture) {
	wavPath := a.cachePath()
	if err := capture.WriteWAV(wavPath); err != nil {
		a.log.Errorw("cache write failed", "path", wavPath, "error", err)
		a.notify("Error", "Could not write the recording to disk.")
		return
	}
	if !a.keepCache {
		defer os.Remove(wavPath)
	}

	text, err := a.pipe.Run(a.ctx, wavPath, a.cfg.CleanupEnabled())
	if err != nil {
		if errors.Is(err, pipeline.ErrNoSpeech) {
			a.notify("No Speech", "No speech detected in recording.")
			return
		}
		a.log.Errorw("transcription failed", "error", err)
		a.notify("Error", "Transcription failed. Check the speech endpoint.")
		return
	}

	a.deliver(text)
}

// deliver records the dictation and pastes it at the cursor.
func (a *App) deliver(text string) {
	a.cfg.AddHistory(text)

	if err := a.paster.Paste(text); err != nil {
		a.log.Warnw("paste failed", "error", err)
		a.notify("Paste Failed", pasteFailedBody(err))
		return
	}
	a.cues.Ready()
	a.notify("Pasted", preview(text))
}

// PasteHistory re-pastes a past dictation by its position, newest
// first.
func (a *App) PasteHistory(index int) error {
	history := a.cfg.History()
	if index < 0 || index >= len(history) {
		return fmt.Errorf("no history entry %d", index)
	}
	text := history[index].Text
	if err := a.paster.Paste(text); err != nil {
		a.notify("Paste Failed", pasteFailedBody(err))
		return err
	}
	a.notify("Pasted", preview(text))
	return nil
}

// SetMode switches between toggle and push-to-talk.
func (a *App) SetMode(mode config.Mode) {
	a.cfg.SetActiveMode(mode)
	a.disp.SetMode(mode)
	a.notify("Mode Changed", fmt.Sprintf("Now using %s mode", strings.ReplaceAll(string(mode), "_", " ")))
	a.log.Infow("mode changed", "mode", mode)
}

// SetCleanupEnabled flips the LLM cleanup pass.
func (a *App) SetCleanupEnabled(enabled bool) {
	a.cfg.SetCleanupEnabled(enabled)
	a.log.Infow("cleanup toggled", "enabled", enabled)
}

// CaptureHotkey records the next chord as the binding for mode.
func (a *App) CaptureHotkey(mode config.Mode) {
	a.disp.StartCapture(mode)
	a.notify("Recording Hotkey", "Press the new key combination now.")
}

// History returns past dictations, newest first.
func (a *App) History() []config.HistoryEntry {
	return a.cfg.History()
}

// onCaptured persists the outcome of a hotkey capture. It runs on the
// dispatcher goroutine, which has already applied the binding.
func (a *App) onCaptured(mode config.Mode, b keys.Binding, ok bool) {
	if !ok {
		a.notify("Invalid Hotkey", "At least one modifier key required")
		return
	}
	a.cfg.SetHotkey(mode, b)
	label := "Toggle"
	if mode == config.ModePushToTalk {
		label = "Push to talk"
	}
	a.notify("Hotkey Set", fmt.Sprintf("%s hotkey set to %s", label, b.String()))
}

func (a *App) notify(summary, body string) {
	if a.notifier != nil {
		a.notifier.Notify(summary, body)
	}
}

func (a *App) cachePath() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	name := fmt.Sprintf("audio-%s-%s.wav", time.Now().Format("20060102-150405"), id)
	return filepath.Join(a.cacheDir, name)
}

// sweepCache drops recordings left behind by earlier runs.
func (a *App) sweepCache() {
	if a.keepCache {
		return
	}
	entries, err := os.ReadDir(a.cacheDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "audio-") && strings.HasSuffix(name, ".wav") {
			_ = os.Remove(filepath.Join(a.cacheDir, name))
		}
	}
}

// pasteFailedBody only promises the text is on the clipboard when the
// write itself succeeded.
func pasteFailedBody(err error) string {
	if errors.Is(err, clipboard.ErrWriteFailed) {
		return "Could not copy text to clipboard."
	}
	return "Text copied to clipboard. Press Ctrl+V to paste."
}

func preview(text string) string {
	r := []rune(text)
	if len(r) > previewLen {
		return string(r[:previewLen]) + "..."
	}
	return text
}
