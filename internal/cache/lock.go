package cache

import (
	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// ErrLocked is returned when another run holds the cache lock.
var ErrLocked = errors.New("cache is locked by another run")

// RunLock is an exclusive file lock placed next to the cache file.
type RunLock struct {
	lock *flock.Flock
}

// AcquireRunLock takes the lock for cachePath without blocking.
func AcquireRunLock(cachePath string) (*RunLock, error) {
	l := flock.New(cachePath + ".lock")
	ok, err := l.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "failed to acquire cache lock")
	}
	if !ok {
		return nil, errors.Wrapf(ErrLocked, "lock file %s", l.Path())
	}
	return &RunLock{lock: l}, nil
}

func (l *RunLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
