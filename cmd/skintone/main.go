package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "skintone",
	Short:   "Fallback skin tone estimator",
	Version: Version,
	Long: `skintone estimates a person's skin tone from a photograph.

It finds the first frontal face, averages the skin-colored pixels inside it
and prints the tone with a darker and a lighter variation as JSON.`,
	SilenceUsage: true,
}

func main() {
	// Diagnostics go to stderr; stdout carries the JSON result
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	rootCmd.SetVersionTemplate(fmt.Sprintf("skintone {{.Version}} (commit %s)\n", GitCommit))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
