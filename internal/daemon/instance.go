package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Instance holds the single-instance lock and pid file of a running daemon.
type Instance struct {
	pidPath  string
	lockPath string
	lock     *flock.Flock
}

// Acquire takes the daemon lock next to pidPath and writes the current pid.
// A pid file naming a live process, or a lock held elsewhere, yields
// ErrDaemonRunning. A stale pid file is replaced.
func Acquire(pidPath string) (*Instance, error) {
	if pidPath == "" {
		return nil, ErrPIDFileRequired
	}
	if _, err := CheckPIDFile(pidPath); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(pidPath), 0o755); err != nil {
		return nil, fmt.Errorf("create pid directory: %w", err)
	}

	lockPath := pidPath + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s held)", ErrDaemonRunning, lockPath)
	}

	if err := writePIDFile(pidPath); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("write pid file: %w", err)
	}
	return &Instance{pidPath: pidPath, lockPath: lockPath, lock: lock}, nil
}

// PIDPath returns the pid file written by Acquire.
func (i *Instance) PIDPath() string {
	return i.pidPath
}

// Release removes the pid file and drops the lock.
func (i *Instance) Release() error {
	if i == nil || i.lock == nil {
		return nil
	}
	var errs []error
	if err := os.Remove(i.pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, fmt.Errorf("remove pid file: %w", err))
	}
	if err := i.lock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("release daemon lock: %w", err))
	}
	if err := os.Remove(i.lockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, fmt.Errorf("remove lock file: %w", err))
	}
	i.lock = nil
	return errors.Join(errs...)
}
