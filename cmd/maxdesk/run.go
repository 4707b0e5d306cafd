package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maxapp/desktop/internal/bridge"
	"github.com/maxapp/desktop/internal/config"
	"github.com/maxapp/desktop/internal/supervisor"
)

// errorTailLines is how much captured backend output accompanies a startup
// failure report.
const errorTailLines = 20

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Launch and supervise the backend",
	Long:  "Start the Max backend process, wait for it to become ready, and supervise it until the shell exits.",
	RunE:  runRun,
}

var (
	runMode string
	runPort int
)

func init() {
	runCmd.Flags().StringVar(&runMode, "mode", buildMode, "Launch mode: development or production")
	runCmd.Flags().IntVar(&runPort, "port", 0, "Backend port (overrides MAX_PORT and config.yaml)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	mode, err := config.ParseMode(runMode)
	if err != nil {
		return err
	}

	slog.Info("maxdesk starting", "mode", mode)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	b := bridge.New()
	events := b.Subscribe()

	sup := supervisor.New(mode, runPort, b)
	// Backstop: every exit path waits out an in-flight launch and terminates
	// the backend. A plain Stop is not enough here — it drops on contention,
	// and a signal during the readiness wait would orphan the child.
	defer sup.Shutdown()

	sup.Run()

	for {
		select {
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			return nil

		case ev := <-events:
			switch ev.Name {
			case bridge.BackendReady:
				slog.Info("backend ready", "port", sup.Port())
				// Keep running until the shell is closed.
			case bridge.BackendError:
				// The launch has settled by the time the event arrives;
				// show what the backend said before it failed.
				for _, line := range sup.Logs(errorTailLines) {
					fmt.Fprintln(os.Stderr, line)
				}
				return errors.New(ev.Message)
			}
		}
	}
}
