package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Mode selects the path-resolution and output strategy for a launch.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// DefaultPort is the backend port used when no override is present.
const DefaultPort = 4000

// PortEnvVar is read from the shell's own environment to override the port,
// and is also passed down to the backend process.
const PortEnvVar = "MAX_PORT"

// ParseMode accepts the mode names used on the command line.
// "dev" and "prod" are accepted as shorthand.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "development", "dev":
		return ModeDevelopment, nil
	case "production", "prod":
		return ModeProduction, nil
	default:
		return "", fmt.Errorf("invalid mode %q (expected development or production)", s)
	}
}

// File holds optional overrides loaded from <appDataDir>/config.yaml.
type File struct {
	Port int `yaml:"port"`
}

// LoadFile reads a YAML config file from path. A missing file is not an
// error — it returns an empty File, matching first-run behavior.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &File{}, nil
		}
		return nil, err
	}

	f := &File{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return f, nil
}

// ResolvePort picks the backend port. Precedence: explicit flag value,
// MAX_PORT from the environment, the config file, then DefaultPort.
// Values outside the valid port range fall through to the next source.
func ResolvePort(flagPort int, file *File) int {
	if validPort(flagPort) {
		return flagPort
	}
	if s := os.Getenv(PortEnvVar); s != "" {
		if p, err := strconv.Atoi(s); err == nil && validPort(p) {
			return p
		}
	}
	if file != nil && validPort(file.Port) {
		return file.Port
	}
	return DefaultPort
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}

// Backend is the immutable per-launch configuration handed to the launcher.
// Built once per launch attempt; never mutated after construction.
type Backend struct {
	Mode              Mode
	Port              int
	AppDataDir        string
	BackendDir        string
	RuntimeExecutable string
}

// EnvOverrides returns the environment variables injected into the backend
// process. Overrides win over inherited variables on key collision.
func (b Backend) EnvOverrides() map[string]string {
	return map[string]string{
		"MAX_ENV":          "desktop",
		PortEnvVar:         strconv.Itoa(b.Port),
		"MAX_APP_DATA_DIR": b.AppDataDir,
	}
}
