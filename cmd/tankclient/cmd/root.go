package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tanknet/pkg/logger"
)

// RootCmd is the tankclient entry point, exported so the subcommands in
// this package can register themselves via init().
var RootCmd = &cobra.Command{
	Use:   "tankclient",
	Short: "Headless client for a tanknet server",
}

var rootVerbose bool

func init() {
	RootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "verbose output")
}

// configureVerbosity applies the --verbose flag; call from every
// subcommand's Run before doing any work.
func configureVerbosity() {
	if rootVerbose {
		logger.SetLevel("debug")
	} else {
		logger.SetLevel("info")
	}
}

// Execute runs the CLI, printing and exiting nonzero on error.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
