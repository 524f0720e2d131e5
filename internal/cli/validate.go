package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/stampede/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate <config-file>",
	Short: "Validate a run configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: configuration valid (%d users)\n", cfg.Name, cfg.Users)
		return nil
	},
}
