package announcement

import "context"

// Repository guards announcement watermarks. CompareAndSwap is the only
// write path after Ensure: concurrent exporters race on the same row and
// exactly one advance wins per observed count.
type Repository interface {
	// Get returns the persisted count, defaulting to zero for unseen keys.
	Get(ctx context.Context, key Key) (int, error)

	// Ensure creates the zero-count row if it does not exist.
	Ensure(ctx context.Context, key Key) error

	// CompareAndSwap advances the watermark from oldCount to newCount.
	// It reports false without error when another writer got there first.
	CompareAndSwap(ctx context.Context, key Key, oldCount, newCount int) (bool, error)
}
