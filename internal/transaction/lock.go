package transaction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// StaleLockThreshold is how long an install lock may go untouched before
	// another run is allowed to take it over. Holders refresh it with
	// Refresh or KeepAlive well inside this window.
	StaleLockThreshold = 10 * time.Minute

	// KeepAliveInterval is how often KeepAlive refreshes a held lock.
	KeepAliveInterval = StaleLockThreshold / 4

	// LockFileName is the lock file created in the cache directory.
	LockFileName = "install.lock"
)

var (
	// ErrLockExists is returned when another run holds a fresh install lock.
	ErrLockExists = errors.New("install lock exists: another install may be in progress")

	// ErrLockLost is returned when the lock file at our path is no longer
	// the one we created, i.e. another run took it over.
	ErrLockLost = errors.New("install lock was taken over by another run")
)

// Lock is a held install lock. The zero value is not usable.
type Lock struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// AcquireLock takes the exclusive install lock in dir, creating dir when
// missing. A lock untouched for longer than StaleLockThreshold is taken
// over once.
func AcquireLock(ctx context.Context, dir string) (*Lock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	path := filepath.Join(dir, LockFileName)
	file, err := openLock(path)
	switch {
	case err == nil:
	case !os.IsExist(err):
		return nil, fmt.Errorf("create lock file: %w", err)
	case !lockExpired(path, time.Now()):
		return nil, ErrLockExists
	default:
		_ = os.Remove(path)
		if file, err = openLock(path); err != nil {
			return nil, ErrLockExists
		}
	}

	l := &Lock{path: path, file: file}
	if err := l.stamp(); err != nil {
		l.Release()
		return nil, err
	}
	return l, nil
}

func openLock(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
}

// stamp records the owner so a stuck lock can be traced by hand.
func (l *Lock) stamp() error {
	owner := fmt.Sprintf("pid=%d\ntimestamp=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := l.file.WriteString(owner); err != nil {
		return fmt.Errorf("write lock data: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync lock file: %w", err)
	}
	return nil
}

// Path returns the lock file path, or "" once released.
func (l *Lock) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// Refresh bumps the lock file's mtime so other runs keep treating it as
// live. It returns ErrLockLost when the file is no longer ours.
func (l *Lock) Refresh() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.path == "" {
		return nil
	}
	if !l.ownsPath() {
		return ErrLockLost
	}
	now := time.Now()
	if err := os.Chtimes(l.path, now, now); err != nil {
		return fmt.Errorf("refresh lock file: %w", err)
	}
	return nil
}

// KeepAlive refreshes the lock every interval until the returned stop
// function is called. Refresh errors are passed to onErr when it is set.
func (l *Lock) KeepAlive(interval time.Duration, onErr func(error)) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := l.Refresh(); err != nil && onErr != nil {
					onErr(err)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-finished
		})
	}
}

// Release closes the lock and removes the lock file if it is still ours.
// After a takeover it leaves the new holder's file alone and returns
// ErrLockLost. Calling it again is a no-op.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.path == "" {
		l.closeFile()
		return nil
	}

	path := l.path
	owned := l.ownsPath()
	l.closeFile()
	l.path = ""

	if !owned {
		return ErrLockLost
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

// ownsPath reports whether the file at l.path is the one we hold open.
// Callers hold l.mu.
func (l *Lock) ownsPath() bool {
	if l.file == nil {
		return false
	}
	held, err := l.file.Stat()
	if err != nil {
		return false
	}
	current, err := os.Stat(l.path)
	if err != nil {
		return false
	}
	return os.SameFile(held, current)
}

func (l *Lock) closeFile() {
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}

// lockExpired reports whether the lock at path was last touched more than
// StaleLockThreshold before now. An unreadable lock is treated as held.
func lockExpired(path string, now time.Time) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return now.Sub(info.ModTime()) > StaleLockThreshold
}
