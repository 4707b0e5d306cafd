//go:build unix

package launcher

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setSysProcAttr puts the child in its own process group so termination
// signals reach the whole tree, not just the entry process.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminate(pid int) error {
	return unix.Kill(-pid, unix.SIGTERM)
}

func kill(pid int) error {
	return unix.Kill(-pid, unix.SIGKILL)
}
