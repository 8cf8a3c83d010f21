//go:build unix

package devlock

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Acquire takes an exclusive, non-blocking flock on path, creating the file
// if needed. An empty path returns a no-op lock.
func Acquire(path string) (*Lock, error) {
	if path == "" {
		return &Lock{}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	return &Lock{f: f}, nil
}

// Release drops the lock; it is safe to call more than once
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}

	f := l.f
	l.f = nil
	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		f.Close()
		return fmt.Errorf("unlock: %w", err)
	}
	return f.Close()
}
