// Package noderuntime locates the Node.js runtime the backend runs on.
package noderuntime

import (
	"os/exec"
	"strings"

	"github.com/maxapp/desktop/internal/config"
)

// execName is resolved through PATH. On Windows LookPath applies PATHEXT,
// so the bare name covers node.exe as well.
const execName = "node"

// NotFoundError means no usable Node.js executable is on PATH. The message
// is shown verbatim to the user, so it carries mode-specific remediation.
type NotFoundError struct {
	Mode config.Mode
}

func (e *NotFoundError) Error() string {
	if e.Mode == config.ModeDevelopment {
		return "Node.js not found in PATH. Please install Node.js for development."
	}
	return "Node.js runtime not found. The app may not be properly bundled."
}

// Locate finds the Node.js executable on PATH. There is no fallback search
// beyond PATH.
func Locate(mode config.Mode) (string, error) {
	path, err := exec.LookPath(execName)
	if err != nil {
		return "", &NotFoundError{Mode: mode}
	}
	return path, nil
}

// Version reports the runtime's version string, e.g. "v22.11.0".
// Used by the check command; not part of the launch sequence.
func Version(nodePath string) (string, error) {
	out, err := exec.Command(nodePath, "--version").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
