//go:build !windows

package update

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"golang.org/x/sys/unix"
)

// NeedsElevation reports whether replacing the binary would fail for lack
// of write access. Both the file and its directory matter: the updater
// writes a sibling temp file and renames it over the original.
func NeedsElevation(binaryPath string) bool {
	if unix.Access(filepath.Dir(binaryPath), unix.W_OK) != nil {
		return true
	}

	if _, err := os.Stat(binaryPath); err == nil {
		return unix.Access(binaryPath, unix.W_OK) != nil
	}

	return false
}

// ReExecWithSudo replaces the current process with the same invocation
// under sudo. On success it does not return.
func ReExecWithSudo() error {
	sudoPath, err := exec.LookPath("sudo")
	if err != nil {
		return fmt.Errorf("sudo not found in PATH; rerun 'storypane update' with elevated permissions")
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("find executable: %w", err)
	}

	fmt.Fprintln(os.Stderr, "The storypane binary is not writable. Requesting sudo...")

	argv := append([]string{"sudo", execPath}, os.Args[1:]...)

	if err := syscall.Exec(sudoPath, argv, os.Environ()); err != nil { //nolint:gosec // G204: intentional sudo re-exec
		return fmt.Errorf("exec sudo process: %w", err)
	}

	return nil
}
