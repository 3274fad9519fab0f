package rigsync

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

type Controller interface {
	Name() string
	Open(context.Context) error
	Close() error
	// Frequency returns the last observed frequency without touching the rig.
	Frequency() Frequency
	// SetFrequency tunes the rig and blocks until the change is confirmed,
	// the confirmation timeout expires or ctx is done.
	SetFrequency(context.Context, Frequency) error
	Subscribe() *Subscriber
	Event() <-chan Event
}

type ControllerInfo struct {
	Name               string
	Description        string
	RequiresSerialPort bool
	Capabilities       ControllerCapabilities
	New                func(*ControllerConfig) (Controller, error)
}

func (c *ControllerInfo) String() string {
	return fmt.Sprintf("%s | %s, requires serial port: %v ", c.Name, c.Description, c.RequiresSerialPort)
}

type ControllerCapabilities struct {
	// Polling controllers read the rig in the background and emit
	// FrequencyChanged events.
	Polling bool
	// Emulator controllers answer queries from client software instead of
	// talking to a rig.
	Emulator bool
}

func (c *ControllerCapabilities) String() string {
	return fmt.Sprintf("Polling: %v, Emulator: %v", c.Polling, c.Emulator)
}

type ControllerConfig struct {
	Debug          bool
	Port           string
	PortBaudrate   int
	PollInterval   time.Duration
	ReadTimeout    time.Duration
	ConfirmTimeout time.Duration
	// Transport is used as is instead of opening Port when set.
	Transport Transport
	Logger    *log.Logger
}

const DefaultConfirmTimeout = 5 * time.Second

// withDefaults returns a copy of cfg with zero values replaced.
func (cfg *ControllerConfig) withDefaults(baudrate int, poll, readTimeout time.Duration) *ControllerConfig {
	out := *cfg
	if out.PortBaudrate == 0 {
		out.PortBaudrate = baudrate
	}
	if out.PollInterval <= 0 {
		out.PollInterval = poll
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = readTimeout
	}
	if out.ConfirmTimeout <= 0 {
		out.ConfirmTimeout = DefaultConfirmTimeout
	}
	if out.Logger == nil {
		out.Logger = log.Default()
	}
	return &out
}

var controllerMap = make(map[string]*ControllerInfo)

func NewController(name string, cfg *ControllerConfig) (Controller, error) {
	if cfg == nil {
		cfg = &ControllerConfig{}
	}
	if info, found := controllerMap[strings.ToLower(name)]; found {
		return info.New(cfg)
	}
	return nil, fmt.Errorf("unknown controller %q", name)
}

// OpenController creates the named controller and opens it.
func OpenController(ctx context.Context, name string, cfg *ControllerConfig) (Controller, error) {
	c, err := NewController(name, cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Open(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name(), err)
	}
	return c, nil
}

func RegisterController(info *ControllerInfo) error {
	key := strings.ToLower(info.Name)
	if _, found := controllerMap[key]; !found {
		controllerMap[key] = info
		return nil
	}
	return fmt.Errorf("controller %s already registered", info.Name)
}

func ListControllerNames() []string {
	var out []string
	for _, info := range controllerMap {
		out = append(out, info.Name)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}

func ListControllers() []ControllerInfo {
	var out []ControllerInfo
	for _, info := range controllerMap {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out
}

// IsController reports whether name is a registered controller type.
func IsController(name string) bool {
	_, found := controllerMap[strings.ToLower(name)]
	return found
}
