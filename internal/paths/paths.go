// Package paths resolves where the backend and its data directory live for a
// given build mode. Development resolves relative to the project checkout;
// production falls back across the packaged resource layout and the directory
// containing the running executable.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/maxapp/desktop/internal/config"
)

// shellDirName is the native-shell subproject directory. When the dev build
// runs from inside it, the project root is one level up.
const shellDirName = "shell"

// appDirName is the per-user data directory name under the platform config root.
const appDirName = "Max"

// Layout holds the resolved filesystem locations for one launch.
type Layout struct {
	BackendDir string
	AppDataDir string
}

// LogDir is where backend output is written in production.
func (l *Layout) LogDir() string {
	return filepath.Join(l.AppDataDir, "logs")
}

// LogFile is the append-mode backend log.
func (l *Layout) LogFile() string {
	return filepath.Join(l.LogDir(), "backend.log")
}

// ConfigFile is the optional per-user override file.
func (l *Layout) ConfigFile() string {
	return filepath.Join(l.AppDataDir, "config.yaml")
}

// ResolutionError reports that no candidate backend directory exists.
// It names every location that was tried so the message can be shown verbatim.
type ResolutionError struct {
	Tried []string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("backend directory not found (tried %s)", strings.Join(e.Tried, ", "))
}

// Resolve computes the backend and app-data directories for mode, then creates
// the app-data directory and its logs subdirectory. Creation is idempotent;
// a creation failure is fatal for the launch.
func Resolve(mode config.Mode) (*Layout, error) {
	var (
		layout *Layout
		err    error
	)

	if mode == config.ModeDevelopment {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			return nil, fmt.Errorf("getting working directory: %w", cwdErr)
		}
		layout = resolveDev(cwd)
	} else {
		exe, exeErr := os.Executable()
		if exeErr != nil {
			return nil, fmt.Errorf("locating executable: %w", exeErr)
		}
		confRoot, confErr := os.UserConfigDir()
		if confErr != nil {
			return nil, fmt.Errorf("locating user config directory: %w", confErr)
		}
		layout, err = resolveProd(filepath.Dir(exe), confRoot)
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(layout.AppDataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating app data directory %s: %w", layout.AppDataDir, err)
	}
	if err := os.MkdirAll(layout.LogDir(), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory %s: %w", layout.LogDir(), err)
	}

	return layout, nil
}

// resolveDev maps a working directory to the development layout. The dev
// server may be started from the project root or from the shell subproject
// directory; the latter gets a one-level-up correction.
func resolveDev(cwd string) *Layout {
	root := cwd
	if filepath.Base(cwd) == shellDirName {
		if parent := filepath.Dir(cwd); parent != cwd {
			root = parent
		}
	}
	return &Layout{
		BackendDir: filepath.Join(root, "backend"),
		AppDataDir: filepath.Join(root, "backend", "storage"),
	}
}

// resolveProd picks the first existing backend directory from the packaged
// resource layout, falling back to the executable's own directory. If neither
// exists the error names both candidates.
func resolveProd(exeDir, configRoot string) (*Layout, error) {
	candidates := []string{
		filepath.Join(resourceDir(exeDir), "backend"),
		filepath.Join(exeDir, "backend"),
	}

	layout := &Layout{
		AppDataDir: filepath.Join(configRoot, appDirName, "data"),
	}

	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			layout.BackendDir = dir
			return layout, nil
		}
	}

	return nil, &ResolutionError{Tried: candidates}
}

// resourceDir is where the installer places bundled assets relative to the
// executable: the app bundle's Resources directory on macOS, a resources
// sibling elsewhere.
func resourceDir(exeDir string) string {
	if runtime.GOOS == "darwin" {
		return filepath.Join(filepath.Dir(exeDir), "Resources")
	}
	return filepath.Join(exeDir, "resources")
}

// StripLongPathPrefix removes the Windows extended-length prefix that
// filepath canonicalization can introduce. The backend's runtime does not
// understand \\?\ paths, so every path handed to the child goes through here.
func StripLongPathPrefix(p string) string {
	if strings.HasPrefix(p, `\\?\UNC\`) {
		return `\\` + p[len(`\\?\UNC\`):]
	}
	return strings.TrimPrefix(p, `\\?\`)
}
