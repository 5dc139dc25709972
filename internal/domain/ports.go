package domain

import "context"

// SettingsStore is the driven port for persisted endpoint settings.
//
// Values are arbitrary user-entered strings; stores never validate them.
type SettingsStore interface {
	// Name identifies the backend in logs and status endpoints.
	Name() string
	// Load reads the full configuration into a fresh snapshot.
	Load(ctx context.Context) (Snapshot, error)
	// Save persists both candidates of one service.
	Save(ctx context.Context, id ServiceIdentity, pair EndpointPair) error
	Close() error
}
