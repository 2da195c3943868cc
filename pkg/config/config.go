// Package config assembles the bus master from flags, environment
// variables and the zones file.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	fx "github.com/robotalks/lgap.go/pkg/framework"
	"github.com/robotalks/lgap.go/pkg/hw"
	"github.com/robotalks/lgap.go/pkg/lgap"
)

// Flow control modes.
const (
	FlowNone        = "none"
	FlowRTS         = "rts"
	FlowRTSInverted = "rts-inverted"
	FlowGPIO        = "gpio"
)

// Config defines the configuration of the bus master.
type Config struct {
	Port     string
	BaudRate int

	FlowControl   string
	GPIOChip      string
	GPIOLine      int
	GPIOActiveLow bool

	LoopWait       time.Duration
	ZoneCheckWait  time.Duration
	ReceiveTimeout time.Duration
	SendWait       time.Duration
	WritePriority  bool
	Debug          bool
	TickInterval   time.Duration

	ZonesFile string
	Zones     []ZoneConfig

	// MQTTBrokerURL specifies the MQTT broker to use, empty to disable.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	Name          string
	StatsInterval time.Duration
}

var defaultConfig = Config{
	Port:           "/dev/ttyUSB0",
	BaudRate:       hw.BaudRate,
	FlowControl:    FlowNone,
	GPIOChip:       "gpiochip0",
	GPIOLine:       -1,
	LoopWait:       lgap.DefaultTiming().LoopWait,
	ZoneCheckWait:  lgap.DefaultTiming().ZoneCheckWait,
	ReceiveTimeout: lgap.DefaultTiming().ReceiveTimeout,
	SendWait:       lgap.DefaultTiming().SendWait,
	WritePriority:  true,
	TickInterval:   5 * time.Millisecond,
	MQTTBrokerURL:  "mqtt://localhost:1883/",
	StatsInterval:  10 * time.Second,
}

func init() {
	if val := os.Getenv("LGAP_PORT"); val != "" {
		defaultConfig.Port = val
	}
	if val := os.Getenv("LGAP_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("LGAP_ZONES"); val != "" {
		defaultConfig.ZonesFile = val
	}
	if val := os.Getenv("LGAP_DEBUG"); val != "" {
		defaultConfig.Debug, _ = strconv.ParseBool(val)
	}
	defaultConfig.Name = DefaultName()
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial port of the bus.")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Baud rate, the bus runs at 4800.")
	flag.StringVar(&defaultConfig.FlowControl, "flow", defaultConfig.FlowControl, "Transmit-enable: none, rts, rts-inverted or gpio.")
	flag.StringVar(&defaultConfig.GPIOChip, "flow-gpio-chip", defaultConfig.GPIOChip, "GPIO chip of the transmit-enable line.")
	flag.IntVar(&defaultConfig.GPIOLine, "flow-gpio-line", defaultConfig.GPIOLine, "GPIO line offset of the transmit-enable line.")
	flag.BoolVar(&defaultConfig.GPIOActiveLow, "flow-gpio-active-low", defaultConfig.GPIOActiveLow, "Transmit-enable line is active low.")
	flag.DurationVar(&defaultConfig.LoopWait, "loop-wait", defaultConfig.LoopWait, "Minimum time between request passes.")
	flag.DurationVar(&defaultConfig.ZoneCheckWait, "zone-check-wait", defaultConfig.ZoneCheckWait, "Minimum time between zone status polls.")
	flag.DurationVar(&defaultConfig.ReceiveTimeout, "receive-timeout", defaultConfig.ReceiveTimeout, "Time allowed for a zone to respond.")
	flag.DurationVar(&defaultConfig.SendWait, "send-wait", defaultConfig.SendWait, "Minimum gap between transmissions, 0 to disable.")
	flag.BoolVar(&defaultConfig.WritePriority, "write-priority", defaultConfig.WritePriority, "Send pending writes ahead of status polls.")
	flag.BoolVar(&defaultConfig.Debug, "debug", defaultConfig.Debug, "Trace bus traffic, requires -v=2.")
	flag.DurationVar(&defaultConfig.TickInterval, "tick", defaultConfig.TickInterval, "Interval of the controlling loop.")
	flag.StringVar(&defaultConfig.ZonesFile, "zones", defaultConfig.ZonesFile, "Zones file, .yaml or .toml.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable.")
	flag.StringVar(&defaultConfig.Name, "name", defaultConfig.Name, "Name of the bridge, the root of MQTT topics.")
	flag.DurationVar(&defaultConfig.StatsInterval, "stats-interval", defaultConfig.StatsInterval, "Interval of publishing bus counters, 0 to disable.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	conf.Zones = append([]ZoneConfig(nil), defaultConfig.Zones...)
	return &conf
}

// Load reads the zones file if specified and validates the result.
func (c *Config) Load() error {
	if c.ZonesFile != "" {
		zones, err := LoadZones(c.ZonesFile)
		if err != nil {
			return err
		}
		c.Zones = append(c.Zones, zones...)
	}
	return c.Validate()
}

// Timing returns the engine timing.
func (c *Config) Timing() lgap.Timing {
	return lgap.Timing{
		LoopWait:       c.LoopWait,
		ZoneCheckWait:  c.ZoneCheckWait,
		ReceiveTimeout: c.ReceiveTimeout,
		SendWait:       c.SendWait,
	}
}

// Validate checks the configuration without changing it. All problems
// are reported together.
func (c *Config) Validate() error {
	var errs fx.AggregatedError
	if c.Port == "" {
		errs.Add(fmt.Errorf("serial port is required"))
	}
	if c.BaudRate <= 0 {
		errs.Add(fmt.Errorf("invalid baud rate %d", c.BaudRate))
	}
	switch c.FlowControl {
	case "", FlowNone, FlowRTS, FlowRTSInverted:
	case FlowGPIO:
		if c.GPIOChip == "" {
			errs.Add(fmt.Errorf("GPIO chip is required for GPIO flow control"))
		}
		if c.GPIOLine < 0 {
			errs.Add(fmt.Errorf("GPIO line is required for GPIO flow control"))
		}
	default:
		errs.Add(fmt.Errorf("unknown flow control %q", c.FlowControl))
	}
	if err := c.Timing().Validate(); err != nil {
		errs.Add(err)
	}
	if c.TickInterval <= 0 {
		errs.Add(fmt.Errorf("tick interval %v must be positive", c.TickInterval))
	}
	if c.StatsInterval < 0 {
		errs.Add(fmt.Errorf("stats interval %v is negative", c.StatsInterval))
	}
	if c.MQTTBrokerURL != "" && c.Name == "" {
		errs.Add(fmt.Errorf("name is required with MQTT"))
	}
	errs.Add(validateZones(c.Zones)...)
	return errs.Aggregate()
}
