package cmd

import (
	"fmt"

	"github.com/roffe/rigsync"
	"github.com/spf13/cobra"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := rigsync.ListPorts()
		if err != nil {
			return err
		}
		for _, p := range ports {
			fmt.Fprintln(cmd.OutOrStdout(), p.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}
