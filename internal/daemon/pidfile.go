package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"nabscan/internal/config"
)

var (
	// ErrPIDFileRequired is returned when daemon mode has no pid file path.
	ErrPIDFileRequired = errors.New("a pid file is required to run as a daemon; pass --pid-file or set scan.pid_file")
	// ErrDaemonRunning is returned when another daemon owns the pid file.
	ErrDaemonRunning = errors.New("daemon already running")
)

// ResolvePIDFile picks the flag value over the configured path. Both empty is
// ErrPIDFileRequired.
func ResolvePIDFile(flagValue, configured string) (string, error) {
	path := strings.TrimSpace(flagValue)
	if path == "" {
		path = strings.TrimSpace(configured)
	}
	if path == "" {
		return "", ErrPIDFileRequired
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("resolve pid file: %w", err)
	}
	return expanded, nil
}

// ReadPID returns the pid stored in path, or 0 when the file is absent or empty.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read pid file %q: %w", path, err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return 0, nil
	}
	pid, err := strconv.Atoi(value)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %q holds invalid pid %q", path, value)
	}
	return pid, nil
}

// ProcessAlive reports whether a process with the given pid exists. A process
// owned by another user counts as alive.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// CheckPIDFile returns ErrDaemonRunning when path names a live process other
// than the caller. Stale and unreadable pid files count as not running.
func CheckPIDFile(path string) (int, error) {
	pid, err := ReadPID(path)
	if err != nil {
		return 0, nil
	}
	if pid == 0 || pid == os.Getpid() || !ProcessAlive(pid) {
		return 0, nil
	}
	return pid, fmt.Errorf("%w (pid %d, pid file %s)", ErrDaemonRunning, pid, path)
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create pid directory: %w", err)
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
