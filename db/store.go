// ABOUTME: Record store contract shared by every storage backend
// ABOUTME: Load returns both sets, Save writes both sets together
package db

import (
	"context"
	"errors"

	"github.com/harperreed/outreach/models"
)

// ErrClosed is returned by a store used after Close.
var ErrClosed = errors.New("store closed")

// Store persists the pending and tracked sets. Save writes both sets in one
// commit where the backend allows it; callers tolerate at-least-once saves.
type Store interface {
	Load(ctx context.Context) (models.Snapshot, error)
	Save(ctx context.Context, snap models.Snapshot) error
	Close() error
}

// runWithContext bounds a blocking call that takes no context. The call keeps
// running in the background if ctx expires first; its result is dropped.
func runWithContext(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
