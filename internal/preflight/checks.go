package preflight

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"nabscan/internal/config"
)

// MinFreeBytes is the free-space floor below which a warning is reported.
const MinFreeBytes uint64 = 1 << 30

// statfs is swapped in tests.
var statfs = func(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace warns when the filesystem holding path has less than floor
// bytes available. VACUUM needs room for a full copy of the database.
func CheckFreeSpace(name, path string, floor uint64) Result {
	free, err := statfs(path)
	if err != nil {
		return Result{Name: name, Warning: true, Detail: fmt.Sprintf("%s (statfs: %v)", path, err)}
	}
	detail := fmt.Sprintf("%s free on %s", humanize.IBytes(free), path)
	if free < floor {
		return Result{Name: name, Warning: true, Detail: detail + fmt.Sprintf(" (below %s)", humanize.IBytes(floor))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckCommands verifies that configured collaborator commands resolve on
// PATH. An empty scan command is a warning since every scan job would fail;
// empty pipeline commands are disabled.
func CheckCommands(_ context.Context, c config.Collaborators) []Result {
	results := []Result{checkCommand("Scan command", c.ScanCommand, true)}
	if c.ScanMissingCommand != c.ScanCommand {
		results = append(results, checkCommand("Scan missing command", c.ScanMissingCommand, false))
	}
	results = append(results,
		checkCommand("Binaries command", c.BinariesCommand, false),
		checkCommand("Releases command", c.ReleasesCommand, false),
	)
	return results
}

func checkCommand(name, command string, required bool) Result {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		if required {
			return Result{Name: name, Warning: true, Detail: "not configured"}
		}
		return Result{Name: name, Passed: true, Detail: "disabled"}
	}
	path, err := exec.LookPath(fields[0])
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not found)", fields[0])}
	}
	return Result{Name: name, Passed: true, Detail: path}
}
