//go:build !windows

package clipboard

import "fmt"

type systemKeystroker struct{}

func newKeystroker() Keystroker { return systemKeystroker{} }

func (systemKeystroker) SendPaste() error {
	return fmt.Errorf("paste keystroke not supported on this platform")
}
