// Dua Talk is a background dictation utility: hold or toggle a global
// hotkey, speak, and the transcript is pasted at the cursor.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Sebstrdigital/dua-talk/internal/app"
	"github.com/Sebstrdigital/dua-talk/internal/asr"
	"github.com/Sebstrdigital/dua-talk/internal/cleanup"
	"github.com/Sebstrdigital/dua-talk/internal/clipboard"
	"github.com/Sebstrdigital/dua-talk/internal/config"
	"github.com/Sebstrdigital/dua-talk/internal/notify"
	"github.com/Sebstrdigital/dua-talk/internal/record"
	"github.com/Sebstrdigital/dua-talk/internal/sound"
)

func main() {
	var fv config.FlagValues
	config.RegisterFlags(flag.CommandLine, &fv)
	flag.Parse()

	var logger *zap.Logger
	var err error
	if fv.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	sugar := logger.Sugar()
	defer func() { _ = logger.Sync() }()

	mgr := config.NewManager(fv.ConfigPath, sugar)
	mgr.Apply(func(c *config.Config) {
		if oerr := config.ApplyOverrides(c, &fv); oerr != nil {
			sugar.Warnw("override parsing failed", "error", oerr)
		}
	})
	cfg := mgr.Config()

	if cfg.APIEndpoint == "" {
		sugar.Fatalw("no speech endpoint configured; set -api-endpoint or DUATALK_API_ENDPOINT")
	}

	engine := asr.New(cfg, asr.NewHTTPClient(cfg), sugar)
	var cleaner cleanup.Cleaner
	if cfg.LLMEndpoint != "" {
		cleaner = cleanup.New(cfg.LLMEndpoint, cfg.LLMModel, sugar)
	}

	a := app.New(app.Options{
		Config:   mgr,
		Source:   record.NewMicrophone(),
		Engine:   engine,
		Cleaner:  cleaner,
		Paster:   clipboard.NewManager(sugar),
		Notifier: notify.NewDesktop(cfg.Notification, sugar),
		Cues:     sound.NewSpeaker(cfg.SoundCues, sugar),
		Log:      sugar,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sugar.Infow("dua-talk starting",
		"mode", cfg.ActiveMode,
		"hotkey", mgr.Hotkey(cfg.ActiveMode).String(),
		"cleanup", cfg.CleanupEnabled,
	)
	if err := a.Run(ctx); err != nil {
		sugar.Errorw("run failed", "error", err)
		os.Exit(1)
	}
}
