package record

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Microphone is the PortAudio-backed Source for the default input
// device.
type Microphone struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	buf    []int16
}

// NewMicrophone returns an unopened Microphone.
func NewMicrophone() *Microphone {
	return &Microphone{}
}

func (m *Microphone) Start(sampleRate, frameSize int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream != nil {
		return fmt.Errorf("microphone already open")
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}
	m.buf = make([]int16, frameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), frameSize, m.buf)
	if err != nil {
		_ = portaudio.Terminate()
		return fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return fmt.Errorf("start input stream: %w", err)
	}
	m.stream = stream
	return nil
}

func (m *Microphone) Read(dst []int16) error {
	m.mu.Lock()
	stream := m.stream
	m.mu.Unlock()
	if stream == nil {
		return fmt.Errorf("microphone not open")
	}
	if err := stream.Read(); err != nil {
		return err
	}
	copy(dst, m.buf)
	return nil
}

func (m *Microphone) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream == nil {
		return nil
	}
	err := m.stream.Stop()
	if cerr := m.stream.Close(); err == nil {
		err = cerr
	}
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	m.stream = nil
	m.buf = nil
	return err
}
