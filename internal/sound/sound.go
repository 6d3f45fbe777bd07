// Package sound plays the short audio cues that mark recording start
// and paste completion.
package sound

import (
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/generators"
	"github.com/faiface/beep/speaker"
	"go.uber.org/zap"
)

const (
	sampleRate = beep.SampleRate(44100)
	cueLength  = 120 * time.Millisecond

	startHz = 350
	readyHz = 280
)

// Cues plays feedback tones around a dictation.
type Cues interface {
	RecordingStarted()
	Ready()
}

// Speaker renders sine tones through the default output device. A
// failed speaker init downgrades every cue to a no-op.
type Speaker struct {
	enabled bool
	ready   bool
	log     *zap.SugaredLogger
}

// NewSpeaker initializes the output device when enabled.
func NewSpeaker(enabled bool, log *zap.SugaredLogger) *Speaker {
	s := &Speaker{enabled: enabled, log: log}
	if !enabled {
		return s
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		if log != nil {
			log.Warnw("speaker init failed, sound cues disabled", "error", err)
		}
		return s
	}
	s.ready = true
	return s
}

// RecordingStarted plays the capture-begin tone.
func (s *Speaker) RecordingStarted() { s.play(startHz) }

// Ready plays the text-pasted tone.
func (s *Speaker) Ready() { s.play(readyHz) }

func (s *Speaker) play(freq int) {
	if !s.enabled || !s.ready {
		return
	}
	tone, err := generators.SinTone(sampleRate, freq)
	if err != nil {
		if s.log != nil {
			s.log.Debugw("tone generation failed", "freq", freq, "error", err)
		}
		return
	}
	done := make(chan struct{})
	speaker.Play(beep.Seq(
		beep.Take(sampleRate.N(cueLength), tone),
		beep.Callback(func() { close(done) }),
	))
	<-done
}
