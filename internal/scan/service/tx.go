package service

import (
	"context"
	"sync"
	"time"

	dErrors "cardscan/pkg/domain-errors"
)

// numSessionShards spreads sessions over independent mutexes so unrelated
// scans never wait on each other.
const numSessionShards = 128

// defaultLockTimeout bounds a load, submit, save cycle.
const defaultLockTimeout = 5 * time.Second

// sessionLocks serializes operations on one session within this process.
type sessionLocks struct {
	shards  [numSessionShards]sync.Mutex
	timeout time.Duration
}

// RunLocked runs fn while holding the shard that owns key.
func (l *sessionLocks) RunLocked(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "scan operation aborted: context cancelled")
	}

	timeout := l.timeout
	if timeout == 0 {
		timeout = defaultLockTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := hashSessionKey(key) % numSessionShards
	l.shards[shard].Lock()
	defer l.shards[shard].Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "scan operation aborted: context cancelled")
	}

	return fn(ctx)
}

// hashSessionKey is FNV-1a.
func hashSessionKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
