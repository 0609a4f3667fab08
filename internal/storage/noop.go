package storage

import "context"

// Noop é usado quando STORAGE_PROVIDER não está definido.
type Noop struct{}

func (Noop) Upload(ctx context.Context, obj Object) (*Stored, error) {
	return nil, ErrDisabled
}
