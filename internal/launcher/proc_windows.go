//go:build windows

package launcher

import (
	"os"
	"os/exec"
)

func setSysProcAttr(cmd *exec.Cmd) {}

// Windows has no TERM/KILL distinction for console-less children; both paths
// use TerminateProcess via os.Process.Kill.
func terminate(pid int) error {
	return kill(pid)
}

func kill(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}
