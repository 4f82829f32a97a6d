package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "stem-splitter",
		Short: "Stem Splitter - isolate one instrument from a song",
		Long: `Stem Splitter runs demucs in two-stems mode on an audio file and leaves
<stem>.wav and no_<stem>.wav directly in the output folder.

Without a subcommand it opens the interactive form.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
