package state

import "context"

// Store is the local key/value persistence used for the session token and
// command history.
type Store interface {
	EnsureSchema(ctx context.Context) error
	SaveSettings(ctx context.Context, values map[string]string) error
	LoadSetting(ctx context.Context, key string) (string, bool, error)
	DeleteSettings(ctx context.Context, keys ...string) error
	Close() error
}
