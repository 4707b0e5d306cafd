package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maxapp/desktop/internal/config"
	"github.com/maxapp/desktop/internal/logtail"
	"github.com/maxapp/desktop/internal/paths"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the backend log",
	RunE:  runLogs,
}

var (
	logsMode   string
	logsLines  int
	logsFollow bool
)

func init() {
	logsCmd.Flags().StringVar(&logsMode, "mode", buildMode, "Launch mode: development or production")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 100, "Number of lines to show")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Keep streaming new output")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	mode, err := config.ParseMode(logsMode)
	if err != nil {
		return err
	}

	layout, err := paths.Resolve(mode)
	if err != nil {
		return err
	}
	logFile := layout.LogFile()

	lines, err := logtail.Tail(logFile, logsLines)
	if err != nil {
		return fmt.Errorf("no backend log at %s: %w", logFile, err)
	}
	for _, line := range lines {
		fmt.Println(line)
	}

	if !logsFollow {
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return logtail.Follow(ctx, logFile, os.Stdout)
}
