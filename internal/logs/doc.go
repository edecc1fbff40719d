// Package logs reads nabscan run logs for the `nabscan logs` command.
//
// Last reads the final lines of a file with a bounded ring buffer; Follow
// polls from an offset and emits new lines until the context ends. A run log
// that is replaced by a newer run (the nabscan.log pointer moves) is detected
// and reading restarts at the top of the new file.
package logs
