package cmd

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "rigsync",
	Short:        "Keep an uplink rig and a downlink receiver frequency locked",
	Long:         `rigsync tracks two rigs over CAT and keeps downlink = uplink IF + offset, made for QO-100 narrowband operation.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		log.Error(err)
	}
	return err
}

const (
	flagConfig = "config"
	flagDebug  = "debug"
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP(flagConfig, "c", "", "YAML configuration file")
	pf.BoolP(flagDebug, "d", false, "debug mode, logs CAT traffic")
}
