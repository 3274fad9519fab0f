package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/roffe/rigsync"
	"github.com/roffe/rigsync/cmd/rigsync/pkg/ui"
	"github.com/roffe/rigsync/pkg/api"
	"github.com/roffe/rigsync/pkg/config"
	"github.com/roffe/rigsync/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const (
	flagOffset        = "offset"
	flagPrimaryPort   = "primary-port"
	flagSecondaryPort = "secondary-port"
	flagNoUI          = "no-ui"
	flagAPI           = "api"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open both rigs and keep them in sync",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags())
		if err != nil {
			return err
		}
		debug, _ := cmd.Flags().GetBool(flagDebug)
		noUI, _ := cmd.Flags().GetBool(flagNoUI)

		logger, out, err := logging.New(cfg.Log, os.Stderr)
		if err != nil {
			return err
		}
		defer out.Close()
		if debug {
			logger.SetLevel(log.DebugLevel)
		}
		log.SetDefault(logger)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		if strings.EqualFold(cfg.Primary.Port, config.AutoPort) {
			logger.Info("Looking for Yaesu radio...")
			c, err := discoverFT818()
			if err != nil {
				return err
			}
			logger.Info("found", "port", c.Port, "baudrate", c.Baudrate)
			cfg.Primary.Port, cfg.Primary.Baudrate = c.Port, c.Baudrate
		}

		primary, err := openRig(ctx, cfg, cfg.Primary, logger, debug)
		if err != nil {
			return err
		}
		defer primary.Close()

		secondary, err := openRig(ctx, cfg, cfg.Secondary, logger, debug)
		if err != nil {
			return err
		}
		defer secondary.Close()

		syncCfg := cfg.SyncConfig()
		syncCfg.Logger = logger.WithPrefix("sync")
		s := rigsync.NewSync(primary, secondary, syncCfg)

		errg, gctx := errgroup.WithContext(ctx)
		errg.Go(func() error {
			return s.Run(gctx)
		})

		if cfg.API.Listen != "" {
			srv := api.New(s, logger)
			errg.Go(func() error {
				return srv.Run(gctx, cfg.API.Listen)
			})
		}

		if noUI {
			errg.Go(func() error {
				printStatus(gctx, s)
				return nil
			})
		} else {
			panel, err := ui.NewPanel(s, rigsync.Frequency(cfg.StepSmall), rigsync.Frequency(cfg.StepLarge))
			if err != nil {
				cancel()
				errg.Wait()
				return fmt.Errorf("failed to start ui: %w", err)
			}
			out.SetConsole(panel.LogWriter())
			panel.OnExit(func() { out.SetConsole(os.Stderr) })
			errg.Go(func() error {
				defer cancel()
				return panel.Run(gctx)
			})
		}

		return errg.Wait()
	},
}

func init() {
	f := runCmd.Flags()
	f.Int64P(flagOffset, "o", int64(rigsync.DefaultOffset), "downlink - uplink IF offset in Hz")
	f.String(flagPrimaryPort, "", "uplink rig port, \"auto\" searches for an FT-818")
	f.String(flagSecondaryPort, "", "downlink rig port, \"pty\" creates a pseudo terminal for emulators")
	f.Bool(flagNoUI, false, "print status lines instead of the terminal panel")
	f.String(flagAPI, "", "HTTP API listen address, e.g. :8080")
	rootCmd.AddCommand(runCmd)
}

// loadConfig reads the configuration file and applies command line
// overrides on top of it.
func loadConfig(f *pflag.FlagSet) (*config.Config, error) {
	path, _ := f.GetString(flagConfig)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if f.Changed(flagOffset) {
		cfg.Offset, _ = f.GetInt64(flagOffset)
	}
	if f.Changed(flagPrimaryPort) {
		cfg.Primary.Port, _ = f.GetString(flagPrimaryPort)
	}
	if f.Changed(flagSecondaryPort) {
		cfg.Secondary.Port, _ = f.GetString(flagSecondaryPort)
	}
	if f.Changed(flagAPI) {
		cfg.API.Listen, _ = f.GetString(flagAPI)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openRig(ctx context.Context, cfg *config.Config, rig config.Rig, logger *log.Logger, debug bool) (rigsync.Controller, error) {
	ccfg := cfg.ControllerConfig(rig)
	ccfg.Logger = logger
	ccfg.Debug = debug
	c, err := rigsync.OpenController(ctx, rig.Type, ccfg)
	if err != nil {
		return nil, err
	}
	if emu, ok := c.(*rigsync.TS480Emu); ok && emu.TTYName() != "" {
		logger.Info("point the client software at the emulator", "tty", emu.TTYName())
	}
	return c, nil
}

func printStatus(ctx context.Context, s *rigsync.Sync) {
	updates, cancel := s.Watch()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case st := <-updates:
			fmt.Println(ui.StatusLine(st))
		}
	}
}
