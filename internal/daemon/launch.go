package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// ChildEnv marks the re-executed daemon process.
const ChildEnv = "NABSCAN_DAEMON_CHILD"

// IsChild reports whether the current process is the detached daemon.
func IsChild() bool {
	return os.Getenv(ChildEnv) == "1"
}

// Launch re-executes executablePath with args in a new session, detached from
// the controlling terminal, and returns the child's pid. Output is discarded;
// the child writes its own run log.
func Launch(executablePath string, args []string) (int, error) {
	if strings.TrimSpace(executablePath) == "" {
		return 0, fmt.Errorf("resolve executable: executable path is empty")
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	proc := exec.Command(executablePath, args...)
	proc.Env = append(os.Environ(), ChildEnv+"=1")
	proc.Stdin = devNull
	proc.Stdout = devNull
	proc.Stderr = devNull
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return 0, fmt.Errorf("launch daemon: %w", err)
	}
	pid := proc.Process.Pid
	return pid, proc.Process.Release()
}
