package cmd

import (
	"fmt"

	"github.com/roffe/rigsync"
	"github.com/spf13/cobra"
)

var adaptersCmd = &cobra.Command{
	Use:   "adapters",
	Short: "List supported controller types",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, c := range rigsync.ListControllers() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s (%s)\n", c.Name, c.Description, c.Capabilities.String())
		}
	},
}

func init() {
	rootCmd.AddCommand(adaptersCmd)
}
