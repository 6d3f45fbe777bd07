package pipeline

import (
	"context"
	"errors"
	"testing"
)

type fakeEngine struct {
	text string
	err  error
}

func (f *fakeEngine) Transcribe(ctx context.Context, wavPath string) (string, error) {
	return f.text, f.err
}

func (f *fakeEngine) Warmup(ctx context.Context) error { return nil }

type fakeCleaner struct {
	text   string
	err    error
	called bool
}

func (f *fakeCleaner) Clean(ctx context.Context, transcript string) (string, error) {
	f.called = true
	return f.text, f.err
}

func TestRunCleanupDisabled(t *testing.T) {
	cl := &fakeCleaner{text: "cleaned"}
	p := New(&fakeEngine{text: "  raw words  "}, cl, nil)

	out, err := p.Run(context.Background(), "a.wav", false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "raw words" {
		t.Fatalf("expected trimmed raw transcript, got %q", out)
	}
	if cl.called {
		t.Fatal("cleaner must not run when disabled")
	}
}

func TestRunCleanupApplied(t *testing.T) {
	p := New(&fakeEngine{text: "um raw words"}, &fakeCleaner{text: "Raw words."}, nil)

	out, err := p.Run(context.Background(), "a.wav", true)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "Raw words." {
		t.Fatalf("expected cleaned transcript, got %q", out)
	}
}

func TestRunCleanupFailureFallsBack(t *testing.T) {
	p := New(&fakeEngine{text: "raw words"}, &fakeCleaner{err: errors.New("model offline")}, nil)

	out, err := p.Run(context.Background(), "a.wav", true)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "raw words" {
		t.Fatalf("cleanup failure must keep the raw transcript, got %q", out)
	}
}

func TestRunWhitespaceTranscriptIsNoSpeech(t *testing.T) {
	p := New(&fakeEngine{text: "   \n  "}, nil, nil)

	_, err := p.Run(context.Background(), "a.wav", true)
	if !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("expected ErrNoSpeech, got %v", err)
	}
}

func TestRunEngineErrorPropagates(t *testing.T) {
	boom := errors.New("upload failed")
	p := New(&fakeEngine{err: boom}, &fakeCleaner{text: "x"}, nil)

	_, err := p.Run(context.Background(), "a.wav", true)
	if !errors.Is(err, boom) {
		t.Fatalf("expected engine error, got %v", err)
	}
}
