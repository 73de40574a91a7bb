//go:build unix

package compile

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the command in its own process group so that
// helpers it spawns are killed with it.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process != nil {
		// Negative PID addresses the group.
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
