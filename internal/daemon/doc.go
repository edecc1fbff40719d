// Package daemon implements the detached scan daemon: pid file handling, the
// single-instance lock, and re-executing the binary in a new session.
//
// The parent process resolves the pid file path, refuses to start when the pid
// file names a live process, and re-executes itself with the daemon marker in
// its environment. The child acquires an flock next to the pid file, writes its
// pid and removes both files on exit.
package daemon
