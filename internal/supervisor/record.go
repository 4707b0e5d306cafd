package supervisor

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Record is the persisted state of the current launch, written after a
// successful spawn and removed on stop. The check and logs commands use it
// to find the live backend without talking to the supervisor.
type Record struct {
	PID       int    `json:"pid"`
	Port      int    `json:"port"`
	LogPath   string `json:"log_path"`
	StartedAt int64  `json:"started_at"`
}

const recordFileName = "state.json"

func recordPath(appDataDir string) string {
	return filepath.Join(appDataDir, recordFileName)
}

func writeRecord(appDataDir string, r Record) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(recordPath(appDataDir), data, 0644)
}

// ReadRecord loads the launch record from appDataDir. A missing record
// returns nil with no error.
func ReadRecord(appDataDir string) (*Record, error) {
	data, err := os.ReadFile(recordPath(appDataDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func clearRecord(appDataDir string) error {
	err := os.Remove(recordPath(appDataDir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
