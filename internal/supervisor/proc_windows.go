//go:build windows

package supervisor

import (
	"os/exec"
	"strconv"
	"strings"
)

func configureProcAttr(_ *exec.Cmd) {}

// On Windows there is no process-group signal; taskkill /T walks the
// child tree for us. The soft and hard paths are the same.
func terminateTree(cmd *exec.Cmd) {
	killTree(cmd)
}

func killTree(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil || cmd.Process.Pid <= 0 {
		return
	}

	signalPIDTree(cmd.Process.Pid, true)
}

func signalPIDTree(pid int, _ bool) {
	kill := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid))
	_ = kill.Run()
}

func processAlive(pid int) bool {
	out, err := exec.Command("tasklist", "/FI", "PID eq "+strconv.Itoa(pid), "/NH", "/FO", "CSV").Output()
	if err != nil {
		return false
	}

	return strings.Contains(string(out), strconv.Itoa(pid))
}
