// Package notify surfaces state changes as desktop notifications.
package notify

import (
	"github.com/gen2brain/beeep"
	"go.uber.org/zap"
)

const title = "Dua Talk"

// Notifier delivers a short user-facing message.
type Notifier interface {
	Notify(summary, body string)
}

// Desktop shows system notifications under the application title.
// Disabled or failing notifications are logged and otherwise ignored.
type Desktop struct {
	enabled bool
	log     *zap.SugaredLogger
}

// NewDesktop builds a Desktop notifier.
func NewDesktop(enabled bool, log *zap.SugaredLogger) *Desktop {
	return &Desktop{enabled: enabled, log: log}
}

func (d *Desktop) Notify(summary, body string) {
	if !d.enabled {
		return
	}
	if err := beeep.Notify(title+": "+summary, body, ""); err != nil && d.log != nil {
		d.log.Debugw("notification failed", "summary", summary, "error", err)
	}
}
