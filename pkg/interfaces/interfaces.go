// Package interfaces defines the core interfaces used throughout the application.
package interfaces

import (
	"context"

	"github.com/gooseworks/highlighter/pkg/types"
)

// KeyValueStore is the raw persistence surface for settings.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// SettingsSource loads a read-only settings snapshot.
type SettingsSource interface {
	LoadSettings(ctx context.Context) (types.Settings, error)
}

// SettingsStore reads and writes typed settings.
type SettingsStore interface {
	SettingsSource
	SaveSettings(ctx context.Context, s types.Settings) error
}

// Bus broadcasts settings-change notifications to subscribers.
// Delivery is fire-and-forget; a failing recipient never fails the broadcast.
type Bus interface {
	Publish(msg types.Message)
	Subscribe(fn func(types.Message)) (unsubscribe func())
}
