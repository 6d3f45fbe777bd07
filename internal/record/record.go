// Package record owns the dictation session state machine and the
// microphone capture loop behind it.
package record

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"
)

// State is the dictation session state. Transitions only move forward:
// Idle to Recording to Processing and back to Idle.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	}
	return "unknown"
}

var (
	ErrNotIdle      = errors.New("session is not idle")
	ErrNotRecording = errors.New("session is not recording")
	ErrNoAudio      = errors.New("no audio captured")
)

const (
	// DefaultRate is the capture sample rate expected by the STT engine.
	DefaultRate = 16000
	// FrameSize is the number of samples read from the device per frame.
	FrameSize = 1024
)

// Source delivers signed 16-bit mono frames from an input device.
type Source interface {
	Start(sampleRate, frameSize int) error
	// Read fills dst with the next frame, blocking until available.
	Read(dst []int16) error
	Stop() error
}

// Capture is the audio collected by one recording.
type Capture struct {
	PCM  []int16
	Rate int
}

// Samples converts the capture to normalized float32 samples.
func (c Capture) Samples() []float32 {
	out := make([]float32, len(c.PCM))
	for i, v := range c.PCM {
		out[i] = float32(v) / 32768.0
	}
	return out
}

// Duration reports the captured audio length.
func (c Capture) Duration() time.Duration {
	if c.Rate <= 0 {
		return 0
	}
	return time.Duration(len(c.PCM)) * time.Second / time.Duration(c.Rate)
}

// WriteWAV encodes the capture as a 16-bit mono WAV file.
func (c Capture) WriteWAV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(f, c.Rate, 16, 1, 1)
	data := make([]int, len(c.PCM))
	for i, v := range c.PCM {
		data[i] = int(v)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: c.Rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Session serializes recordings. A hotkey press during Processing is
// rejected rather than queued.
type Session struct {
	mu    sync.Mutex
	state State

	src  Source
	rate int
	log  *zap.SugaredLogger

	frames chan []int16
	stop   chan struct{}
}

// NewSession builds an idle Session reading from src.
func NewSession(src Source, log *zap.SugaredLogger) *Session {
	return &Session{src: src, rate: DefaultRate, log: log}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start moves Idle to Recording and spawns the capture loop.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrNotIdle
	}
	if err := s.src.Start(s.rate, FrameSize); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = StateRecording
	s.frames = make(chan []int16, 256)
	s.stop = make(chan struct{})
	frames, stop := s.frames, s.stop
	s.mu.Unlock()

	go s.captureLoop(frames, stop)
	return nil
}

// Stop moves Recording to Processing, joins the capture loop and
// returns everything it produced. An empty capture still lands in
// Processing and reports ErrNoAudio.
func (s *Session) Stop() (Capture, error) {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return Capture{}, ErrNotRecording
	}
	s.state = StateProcessing
	frames, stop := s.frames, s.stop
	s.mu.Unlock()

	close(stop)
	var pcm []int16
	for frame := range frames {
		pcm = append(pcm, frame...)
	}

	c := Capture{PCM: pcm, Rate: s.rate}
	if s.log != nil {
		s.log.Debugw("capture stopped", "samples", len(pcm), "duration", c.Duration())
	}
	if len(pcm) == 0 {
		return c, ErrNoAudio
	}
	return c, nil
}

// Finish moves Processing back to Idle once the transcript has been
// handled.
func (s *Session) Finish() {
	s.mu.Lock()
	if s.state == StateProcessing {
		s.state = StateIdle
	}
	s.mu.Unlock()
}

// captureLoop reads frames until stop closes, then releases the device
// and closes the frame channel so Stop can drain it.
func (s *Session) captureLoop(frames chan<- []int16, stop <-chan struct{}) {
	defer close(frames)
	defer func() {
		if err := s.src.Stop(); err != nil && s.log != nil {
			s.log.Debugw("source stop failed", "error", err)
		}
	}()

	for {
		select {
		case <-stop:
			return
		default:
		}
		frame := make([]int16, FrameSize)
		if err := s.src.Read(frame); err != nil {
			if s.log != nil {
				s.log.Debugw("frame read failed", "error", err)
			}
			return
		}
		select {
		case frames <- frame:
		case <-stop:
			return
		}
	}
}
