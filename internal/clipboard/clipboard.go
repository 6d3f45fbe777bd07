// Package clipboard pastes dictated text into the focused window by
// routing it through the system clipboard and restoring the previous
// clipboard contents afterwards.
package clipboard

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"
)

// ErrWriteFailed marks a paste that failed before the text reached the
// clipboard, as opposed to a chord failure that leaves it there.
var ErrWriteFailed = errors.New("clipboard write failed")

// Board abstracts the system clipboard.
type Board interface {
	Read() (string, error)
	Write(text string) error
}

// Keystroker sends the paste chord to the focused window.
type Keystroker interface {
	SendPaste() error
}

type systemBoard struct{}

func (systemBoard) Read() (string, error)   { return clipboard.ReadAll() }
func (systemBoard) Write(text string) error { return clipboard.WriteAll(text) }

const (
	// settleDelay gives the clipboard owner time to publish the new
	// contents before the paste chord fires.
	settleDelay = 80 * time.Millisecond
	// restoreDelay lets the target application finish reading the
	// clipboard before the previous contents come back.
	restoreDelay = 200 * time.Millisecond
)

// Manager performs clipboard-preserving pastes. Restores run on a
// timer after each paste; a dictation finishing inside another paste's
// restore window may see the older contents win, which is tolerated.
type Manager struct {
	board   Board
	keys    Keystroker
	settle  time.Duration
	restore time.Duration
	log     *zap.SugaredLogger
	wg      sync.WaitGroup
}

// NewManager builds a Manager over the real clipboard and keyboard.
func NewManager(log *zap.SugaredLogger) *Manager {
	return &Manager{
		board:   systemBoard{},
		keys:    newKeystroker(),
		settle:  settleDelay,
		restore: restoreDelay,
		log:     log,
	}
}

// Paste writes text to the clipboard, sends the paste chord and
// schedules a restore of the previous contents. When the chord cannot
// be sent the clipboard deliberately keeps the dictated text so the
// user can paste it by hand.
func (m *Manager) Paste(text string) error {
	orig, err := m.board.Read()
	if err != nil {
		orig = ""
	}
	if err := m.board.Write(text); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	time.Sleep(m.settle)

	if err := m.keys.SendPaste(); err != nil {
		return err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		time.Sleep(m.restore)
		if err := m.board.Write(orig); err != nil && m.log != nil {
			m.log.Warnw("clipboard restore failed", "error", err)
		}
	}()
	return nil
}

// Wait blocks until all pending restores have run.
func (m *Manager) Wait() {
	m.wg.Wait()
}
