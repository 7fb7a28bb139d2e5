package port

import (
	"context"
)

// SnapshotStorage is a key-value blob store. Get reports found=false for a key that was never set.
// Set fully overwrites the prior value of the key.
type SnapshotStorage interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}
