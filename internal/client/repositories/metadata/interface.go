package metadata

import "context"

// Repository is a durable string key/value store.
//
// Get reports found=false for a missing key rather than an error.
// Delete removes all given keys in a single statement and is a no-op for
// keys that do not exist.
type Repository interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}
