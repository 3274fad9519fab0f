package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/roffe/rigsync"
	"github.com/spf13/cobra"
)

const discoverReadTimeout = 500 * time.Millisecond

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Probe serial ports for an FT-817/818",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := discoverFT818()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Found at %s:%d, %s\n", c.Port, c.Baudrate, c.Frequency)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}

// discoverFT818 scans every serial port and lets the user pick when more
// than one answers.
func discoverFT818() (rigsync.Candidate, error) {
	candidates, err := rigsync.DiscoverFT818Serial(discoverReadTimeout)
	if err != nil {
		return rigsync.Candidate{}, err
	}
	switch len(candidates) {
	case 0:
		return rigsync.Candidate{}, errors.New("no FT-817/818 found")
	case 1:
		return candidates[0], nil
	}
	items := make([]string, len(candidates))
	for i, c := range candidates {
		items[i] = fmt.Sprintf("%s @ %d baud (%s)", c.Port, c.Baudrate, c.Frequency)
	}
	prompt := promptui.Select{
		Label: "Several rigs answered, pick one",
		Items: items,
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return rigsync.Candidate{}, fmt.Errorf("prompt failed %v", err)
	}
	return candidates[idx], nil
}
