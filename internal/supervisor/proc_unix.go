//go:build unix

package supervisor

import (
	goerrors "errors"
	"os/exec"
	"syscall"
)

// configureProcAttr puts the child in its own process group so signals
// reach the whole tree. Dev-server launchers like npx fork managers and
// workers; signaling only the leader leaves orphans holding the port.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminateTree(cmd *exec.Cmd) {
	signalTree(cmd, syscall.SIGTERM)
}

func killTree(cmd *exec.Cmd) {
	signalTree(cmd, syscall.SIGKILL)
}

func signalTree(cmd *exec.Cmd, sig syscall.Signal) {
	if cmd == nil || cmd.Process == nil || cmd.Process.Pid <= 0 {
		return
	}

	signalPID(cmd.Process.Pid, sig)
}

// signalPIDTree signals a process tree by leader pid alone, for stopping a
// server recorded by a previous invocation.
func signalPIDTree(pid int, hard bool) {
	sig := syscall.SIGTERM
	if hard {
		sig = syscall.SIGKILL
	}

	signalPID(pid, sig)
}

func signalPID(pid int, sig syscall.Signal) {
	if pgid, err := syscall.Getpgid(pid); err == nil && pgid > 0 {
		if err := syscall.Kill(-pgid, sig); err == nil || goerrors.Is(err, syscall.ESRCH) {
			return
		}
	}

	_ = syscall.Kill(pid, sig)
}

// processAlive uses signal 0, which performs the permission and existence
// checks without delivering anything.
func processAlive(pid int) bool {
	err := syscall.Kill(pid, 0)

	return err == nil || goerrors.Is(err, syscall.EPERM)
}
