// Package pipeline chains speech-to-text and optional LLM cleanup into
// the single text-producing step that runs after a recording stops.
package pipeline

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/Sebstrdigital/dua-talk/internal/asr"
	"github.com/Sebstrdigital/dua-talk/internal/cleanup"
)

// ErrNoSpeech is returned when transcription yields nothing usable.
var ErrNoSpeech = errors.New("no speech detected")

// Pipeline turns a captured WAV file into paste-ready text.
type Pipeline struct {
	engine  asr.Engine
	cleaner cleanup.Cleaner
	log     *zap.SugaredLogger
}

// New builds a Pipeline. cleaner may be nil when cleanup is unavailable.
func New(engine asr.Engine, cleaner cleanup.Cleaner, log *zap.SugaredLogger) *Pipeline {
	return &Pipeline{engine: engine, cleaner: cleaner, log: log}
}

// Run transcribes the recording and, when cleanupEnabled, rewrites the
// transcript through the cleaner. Cleanup is best effort: any cleaner
// failure keeps the raw transcript. Transcription failures propagate.
func (p *Pipeline) Run(ctx context.Context, wavPath string, cleanupEnabled bool) (string, error) {
	raw, err := p.engine.Transcribe(ctx, wavPath)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ErrNoSpeech
	}

	if !cleanupEnabled || p.cleaner == nil {
		return text, nil
	}
	cleaned, err := p.cleaner.Clean(ctx, text)
	if err != nil {
		if p.log != nil {
			p.log.Warnw("cleanup failed, keeping raw transcript", "error", err)
		}
		return text, nil
	}
	return cleaned, nil
}
