package port

import "context"

// KVStore persists whole values under fixed keys. Load reports a missing key
// with ok=false and a nil error.
type KVStore interface {
	Load(ctx context.Context, key string) (value []byte, ok bool, err error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
