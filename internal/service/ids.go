package service

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces task ids.
type IDGenerator func() string

// NewUUID returns a random UUID string.
func NewUUID() string {
	return uuid.NewString()
}

// SequenceIDs returns a generator yielding prefix-1, prefix-2, ...
// The counter restarts with every process, so over a persisted list it can
// hand out the id of a task deleted before the restart. Use it in tests only.
func SequenceIDs(prefix string) IDGenerator {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}
