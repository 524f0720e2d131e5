// Package cli wires the command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "stampede",
	Short:   "A load-generation harness driven by scheduled virtual users",
	Version: version,
	Long: `Stampede simulates populations of virtual users, each driven by a
hierarchical task scheduler: task-sets are grouped into categories, tasks
run in sequential, randomized, or fixed order, and business logic can jump
between tasks, task-sets, and categories mid-run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(validateCmd)
}
