package lease

import (
	"context"
	"fmt"
)

// Locker serializes conflict checks on a unit across processes
type Locker interface {
	// Lock blocks until the key is held and returns the function releasing it
	Lock(ctx context.Context, key string) (func(), error)
}

type nopLocker struct{}

func (nopLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

func unitLockKey(unitID uint) string {
	return fmt.Sprintf("lease:unit:%d", unitID)
}
