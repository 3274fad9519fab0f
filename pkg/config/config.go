package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/roffe/rigsync"
	"gopkg.in/yaml.v3"
)

// AutoPort makes the CLI search for an FT-818 instead of opening a fixed port.
const AutoPort = "auto"

type Config struct {
	Offset          int64 `yaml:"offset"`
	UplinkLO        int64 `yaml:"uplink_lo"`
	InitialDownlink int64 `yaml:"initial_downlink"`
	StepSmall       int64 `yaml:"step_small"`
	StepLarge       int64 `yaml:"step_large"`

	Primary        Rig           `yaml:"primary"`
	Secondary      Rig           `yaml:"secondary"`
	ConfirmTimeout time.Duration `yaml:"confirm_timeout"`

	API struct {
		Listen string `yaml:"listen"`
	} `yaml:"api"`

	Log Log `yaml:"log"`
}

type Rig struct {
	Type         string        `yaml:"type"`
	Port         string        `yaml:"port"`
	Baudrate     int           `yaml:"baudrate"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"` // megabytes
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns the configuration used for a QO-100 station with an
// FT-818 on the uplink IF and SDR Console on the downlink.
func Default() *Config {
	cfg := &Config{
		Offset:          int64(rigsync.DefaultOffset),
		UplinkLO:        int64(rigsync.DefaultUplinkLO),
		InitialDownlink: int64(rigsync.DefaultInitialDownlink),
		StepSmall:       100,
		StepLarge:       500,
		Primary: Rig{
			Type:         "ft818",
			Port:         AutoPort,
			PollInterval: 50 * time.Millisecond,
		},
		Secondary: Rig{
			Type:         "ts2000",
			Baudrate:     57600,
			PollInterval: 250 * time.Millisecond,
		},
		ConfirmTimeout: rigsync.DefaultConfirmTimeout,
		Log: Log{
			Level:      "info",
			MaxSize:    10,
			MaxBackups: 3,
		},
	}
	return cfg
}

// Load reads a YAML file on top of the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	for _, r := range []struct {
		name string
		rig  Rig
	}{{"primary", c.Primary}, {"secondary", c.Secondary}} {
		name, rig := r.name, r.rig
		if !rigsync.IsController(rig.Type) {
			errs = append(errs, fmt.Errorf("%s: unknown controller type %q", name, rig.Type))
		}
		if rig.Port == "" {
			errs = append(errs, fmt.Errorf("%s: port is required", name))
		}
		if rig.PollInterval <= 0 {
			errs = append(errs, fmt.Errorf("%s: poll_interval must be positive", name))
		}
		if rig.Baudrate < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid baudrate %d", name, rig.Baudrate))
		}
	}
	if c.ConfirmTimeout <= 0 {
		errs = append(errs, errors.New("confirm_timeout must be positive"))
	}
	if c.StepSmall <= 0 || c.StepLarge <= 0 {
		errs = append(errs, errors.New("step_small and step_large must be positive"))
	}
	return errors.Join(errs...)
}

// ControllerConfig converts rig into the controller configuration.
func (c *Config) ControllerConfig(rig Rig) *rigsync.ControllerConfig {
	return &rigsync.ControllerConfig{
		Port:           rig.Port,
		PortBaudrate:   rig.Baudrate,
		PollInterval:   rig.PollInterval,
		ConfirmTimeout: c.ConfirmTimeout,
	}
}

func (c *Config) SyncConfig() rigsync.SyncConfig {
	return rigsync.SyncConfig{
		Offset:          rigsync.Frequency(c.Offset),
		UplinkLO:        rigsync.Frequency(c.UplinkLO),
		InitialDownlink: rigsync.Frequency(c.InitialDownlink),
	}
}
