//go:build windows

package clipboard

import "github.com/micmonay/keybd_event"

type systemKeystroker struct{}

func newKeystroker() Keystroker { return systemKeystroker{} }

// SendPaste emits Ctrl+V to the focused window.
func (systemKeystroker) SendPaste() error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	kb.HasCTRL(true)
	kb.SetKeys(keybd_event.VK_V)
	return kb.Launching()
}
