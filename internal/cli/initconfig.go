package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/wizmerge/internal/config"
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write a sample configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "wizmerge.toml"
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteSample(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", path)
		return nil
	},
}
