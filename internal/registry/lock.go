// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"
	"time"

	"github.com/gofrs/flock"
	"github.com/joomcode/errorx"
)

const lockRetryDelay = 100 * time.Millisecond

// Lock is an exclusive advisory lock held on the sidecar file of a registry for the duration of a run.
type Lock struct {
	path  string
	flock *flock.Flock
}

// AcquireLock blocks until the lock for registryPath is held, ctx is done or timeout elapses. The lock lives on a
// hidden sidecar file because the registry file itself is replaced by rename while the lock is held.
func AcquireLock(ctx context.Context, registryPath string, timeout time.Duration) (*Lock, error) {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}

	lockPath := LockPath(registryPath)
	fileLock := flock.New(lockPath)
	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		return nil, IoError.Wrap(err, "failed to acquire lock %s for registry %s", lockPath, registryPath).
			WithProperty(PathProperty, registryPath).
			WithProperty(StageProperty, StageLock)
	}
	if !locked {
		return nil, IoError.New("timed out acquiring lock %s for registry %s", lockPath, registryPath).
			WithProperty(PathProperty, registryPath).
			WithProperty(StageProperty, StageLock)
	}

	return &Lock{path: lockPath, flock: fileLock}, nil
}

func (l *Lock) Path() string {
	return l.path
}

// Release unlocks the sidecar file. The file itself is kept so that concurrent runs keep locking the same inode.
func (l *Lock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}

	if err := l.flock.Unlock(); err != nil {
		return errorx.Decorate(err, "failed to release lock %s", l.path)
	}

	return nil
}
