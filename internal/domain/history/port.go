package history

import "context"

// Slot port: a single named blob of client-local state.
// Load returns (nil, nil) when the slot has never been written.
type Slot interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, payload []byte) error
	Delete(ctx context.Context, name string) error
}
