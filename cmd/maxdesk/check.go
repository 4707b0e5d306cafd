package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/maxapp/desktop/internal/config"
	"github.com/maxapp/desktop/internal/health"
	"github.com/maxapp/desktop/internal/launcher"
	"github.com/maxapp/desktop/internal/noderuntime"
	"github.com/maxapp/desktop/internal/paths"
	"github.com/maxapp/desktop/internal/supervisor"
)

type checkResult struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the environment the backend needs",
	Long:  "Resolve paths, locate the Node.js runtime, and verify the backend layout without launching anything.",
	RunE:  runCheck,
}

var (
	checkMode string
	checkJSON bool
)

func init() {
	checkCmd.Flags().StringVar(&checkMode, "mode", buildMode, "Launch mode: development or production")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Emit results as JSON")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	mode, err := config.ParseMode(checkMode)
	if err != nil {
		return err
	}

	var results []checkResult
	add := func(name string, err error, detail string) {
		r := checkResult{Name: name, OK: err == nil, Detail: detail}
		if err != nil {
			r.Error = err.Error()
		}
		results = append(results, r)
	}

	layout, err := paths.Resolve(mode)
	if err != nil {
		add("paths", err, "")
	} else {
		add("paths", nil, fmt.Sprintf("backend=%s data=%s", layout.BackendDir, layout.AppDataDir))

		entry := filepath.Join(layout.BackendDir, launcher.EntryFile)
		if _, statErr := os.Stat(entry); statErr != nil {
			add("entry", fmt.Errorf("%s not found at %s", launcher.EntryFile, entry), "")
		} else {
			add("entry", nil, entry)
		}

		if mode == config.ModeProduction {
			deps := filepath.Join(layout.BackendDir, "node_modules")
			if info, statErr := os.Stat(deps); statErr != nil || !info.IsDir() {
				add("dependencies", fmt.Errorf("node_modules missing at %s", deps), "")
			} else {
				add("dependencies", nil, deps)
			}
		}
	}

	node, err := noderuntime.Locate(mode)
	if err != nil {
		add("runtime", err, "")
	} else {
		detail := node
		if v, vErr := noderuntime.Version(node); vErr == nil {
			detail = fmt.Sprintf("%s (%s)", node, v)
		}
		add("runtime", nil, detail)
	}

	if layout != nil {
		fileCfg, cfgErr := config.LoadFile(layout.ConfigFile())
		if cfgErr != nil {
			add("config", cfgErr, "")
			fileCfg = &config.File{}
		} else {
			add("config", nil, layout.ConfigFile())
		}
		port := config.ResolvePort(0, fileCfg)

		if health.PortInUse(port) {
			detail := fmt.Sprintf("port %d already in use", port)
			if rec, recErr := supervisor.ReadRecord(layout.AppDataDir); recErr == nil && rec != nil {
				detail = fmt.Sprintf("port %d in use, likely by a running backend (pid %d)", port, rec.PID)
			}
			add("port", fmt.Errorf("%s", detail), "")
		} else {
			add("port", nil, fmt.Sprintf("port %d free", port))
		}
	}

	if checkJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.OK {
				fmt.Printf("OK    %-12s %s\n", r.Name, r.Detail)
			} else {
				fmt.Fprintf(os.Stderr, "FAIL  %-12s %s\n", r.Name, r.Error)
			}
		}
	}

	var failed int
	for _, r := range results {
		if !r.OK {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}
