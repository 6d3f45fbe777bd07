//go:build !windows

package hotkey

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Sebstrdigital/dua-talk/internal/keys"
)

// Listen is not supported on non-Windows builds.
func Listen(ctx context.Context, out chan<- keys.Event, log *zap.SugaredLogger) error {
	return fmt.Errorf("keyboard hook not supported on this platform")
}
