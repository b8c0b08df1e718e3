//go:build !windows

package engine

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the command as the leader of its own process group
// so a terminal SIGINT reaches songdl first and cancellation can take down
// the whole group.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if pid := cmd.Process.Pid; pid > 0 {
		_ = syscall.Kill(-pid, syscall.SIGKILL)
	}
	_ = cmd.Process.Kill()
}
