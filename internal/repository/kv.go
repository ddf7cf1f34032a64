package repository

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by KeyValue.Get for an absent key.
var ErrKeyNotFound = errors.New("key not found")

// KeyValue is the durable storage the task list is written to. Each key
// holds one opaque value that is replaced as a whole on Set.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
