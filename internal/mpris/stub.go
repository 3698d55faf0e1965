//go:build !linux

package mpris

import (
	"context"
	"log/slog"

	"github.com/llehouerou/senfoni/internal/playback"
)

// Adapter is a no-op on platforms without a session bus.
type Adapter struct{}

// New returns a no-op adapter.
func New(_ context.Context, _ playback.Service, _ *slog.Logger) (*Adapter, error) {
	return &Adapter{}, nil
}

// Close is a no-op.
func (a *Adapter) Close() error {
	return nil
}
