package record

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-audio/wav"
)

// fakeSource serves queued frames and reports an error once exhausted,
// ending the capture loop the way a closed device would.
type fakeSource struct {
	mu       sync.Mutex
	frames   [][]int16
	endless  bool
	startErr error
	stops    int
}

func (f *fakeSource) Start(sampleRate, frameSize int) error {
	return f.startErr
}

func (f *fakeSource) Read(dst []int16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.endless {
		for i := range dst {
			dst[i] = 100
		}
		return nil
	}
	if len(f.frames) == 0 {
		return errors.New("device closed")
	}
	copy(dst, f.frames[0])
	f.frames = f.frames[1:]
	return nil
}

func (f *fakeSource) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeSource) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

func frameOf(value int16) []int16 {
	frame := make([]int16, FrameSize)
	for i := range frame {
		frame[i] = value
	}
	return frame
}

func TestSessionCapturesFrames(t *testing.T) {
	src := &fakeSource{frames: [][]int16{frameOf(1), frameOf(2)}}
	s := NewSession(src, nil)

	if got := s.State(); got != StateIdle {
		t.Fatalf("expected idle, got %v", got)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if got := s.State(); got != StateRecording {
		t.Fatalf("expected recording, got %v", got)
	}

	c, err := s.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if got := s.State(); got != StateProcessing {
		t.Fatalf("expected processing, got %v", got)
	}
	if len(c.PCM) != 2*FrameSize {
		t.Fatalf("expected %d samples, got %d", 2*FrameSize, len(c.PCM))
	}
	if c.PCM[0] != 1 || c.PCM[FrameSize] != 2 {
		t.Fatal("frames out of order")
	}
	if src.stopCount() != 1 {
		t.Fatalf("expected source released once, got %d", src.stopCount())
	}

	s.Finish()
	if got := s.State(); got != StateIdle {
		t.Fatalf("expected idle after finish, got %v", got)
	}
}

func TestSessionStopJoinsEndlessSource(t *testing.T) {
	src := &fakeSource{endless: true}
	s := NewSession(src, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	var c Capture
	var err error
	go func() {
		c, err = s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not join the capture loop")
	}
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if len(c.PCM) == 0 {
		t.Fatal("expected captured samples")
	}
}

func TestSessionEmptyCapture(t *testing.T) {
	s := NewSession(&fakeSource{}, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	_, err := s.Stop()
	if !errors.Is(err, ErrNoAudio) {
		t.Fatalf("expected ErrNoAudio, got %v", err)
	}
	if got := s.State(); got != StateProcessing {
		t.Fatalf("empty capture must still reach processing, got %v", got)
	}
}

func TestSessionRejectsWrongState(t *testing.T) {
	s := NewSession(&fakeSource{endless: true}, nil)
	if _, err := s.Stop(); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("expected ErrNotRecording, got %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start(); !errors.Is(err, ErrNotIdle) {
		t.Fatalf("expected ErrNotIdle, got %v", err)
	}
	if _, err := s.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestSessionStartSourceFailure(t *testing.T) {
	s := NewSession(&fakeSource{startErr: errors.New("no device")}, nil)
	if err := s.Start(); err == nil {
		t.Fatal("expected source start error")
	}
	if got := s.State(); got != StateIdle {
		t.Fatalf("failed start must stay idle, got %v", got)
	}
}

func TestCaptureSamples(t *testing.T) {
	c := Capture{PCM: []int16{0, 16384, -32768}, Rate: DefaultRate}
	samples := c.Samples()
	if samples[0] != 0 || samples[1] != 0.5 || samples[2] != -1 {
		t.Fatalf("unexpected conversion: %v", samples)
	}
	if c.Duration() <= 0 {
		t.Fatal("expected positive duration")
	}
}

func TestCaptureWriteWAV(t *testing.T) {
	c := Capture{PCM: frameOf(42), Rate: DefaultRate}
	path := filepath.Join(t.TempDir(), "capture.wav")
	if err := c.WriteWAV(path); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open wav: %v", err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode wav: %v", err)
	}
	if len(buf.Data) != FrameSize {
		t.Fatalf("expected %d samples, got %d", FrameSize, len(buf.Data))
	}
	if buf.Data[0] != 42 {
		t.Fatalf("expected sample value 42, got %d", buf.Data[0])
	}
	if got := int(dec.SampleRate); got != DefaultRate {
		t.Fatalf("expected sample rate %d, got %d", DefaultRate, got)
	}
}
