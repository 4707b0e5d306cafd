package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// buildMode is the default launch mode. Release packaging overrides it with
//
//	-ldflags "-X main.buildMode=production"
var buildMode = "development"

var rootCmd = &cobra.Command{
	Use:   "maxdesk",
	Short: "Desktop shell for the Max backend",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
