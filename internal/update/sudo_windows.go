//go:build windows

package update

import "fmt"

// NeedsElevation always reports false on Windows; the updater never
// attempts to elevate there.
func NeedsElevation(binaryPath string) bool {
	return false
}

// ReExecWithSudo is not available on Windows.
func ReExecWithSudo() error {
	return fmt.Errorf("automatic elevation is not supported on Windows; rerun 'storypane update' from an Administrator shell")
}
