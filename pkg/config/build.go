package config

import (
	"fmt"
	"io"

	"github.com/robotalks/lgap.go/pkg/bridge"
	"github.com/robotalks/lgap.go/pkg/hw"
	"github.com/robotalks/lgap.go/pkg/lgap"
	"github.com/robotalks/lgap.go/pkg/mqtt"
	"github.com/robotalks/lgap.go/pkg/zone"
)

// OpenPort opens the serial port.
func (c *Config) OpenPort() (*hw.Port, error) {
	return hw.Open(hw.PortConfig{Name: c.Port, BaudRate: c.BaudRate})
}

// OpenFlowControl opens the transmit-enable line. Both results are nil
// when flow control is disabled. The closer is nil if nothing needs to be
// released.
func (c *Config) OpenFlowControl(port *hw.Port) (lgap.FlowControl, io.Closer, error) {
	switch c.FlowControl {
	case "", FlowNone:
		return nil, nil, nil
	case FlowRTS, FlowRTSInverted:
		fc := &hw.RTSFlowControl{Port: port.Serial(), Inverted: c.FlowControl == FlowRTSInverted}
		// start deasserted
		if err := fc.SetTransmit(false); err != nil {
			return nil, nil, fmt.Errorf("set RTS on %s: %w", port.Name, err)
		}
		return fc, nil, nil
	case FlowGPIO:
		fc, err := hw.OpenGPIOFlowControl(c.GPIOChip, c.GPIOLine, c.GPIOActiveLow)
		if err != nil {
			return nil, nil, err
		}
		return fc, fc, nil
	}
	return nil, nil, fmt.Errorf("unknown flow control %q", c.FlowControl)
}

// NewEngine creates the engine polling zones over t.
func (c *Config) NewEngine(t lgap.Transport, fc lgap.FlowControl, zones zone.List) *lgap.Engine {
	e := lgap.NewEngine(t, zones)
	e.FlowControl = fc
	e.Timing = c.Timing()
	e.WritePriority = c.WritePriority
	e.Debug = c.Debug
	return e
}

// NewQueue creates the MQTT queue for the bridge, with the last will
// clearing the bridge meta. nil is returned if MQTT is disabled.
func (c *Config) NewQueue() (*mqtt.Queue, error) {
	if c.MQTTBrokerURL == "" {
		return nil, nil
	}
	opts, prefix, err := mqtt.ClientOptionsFromURL(c.MQTTBrokerURL)
	if err != nil {
		return nil, fmt.Errorf("MQTT broker URL: %w", err)
	}
	bridge.ConfigureClient(opts, prefix, c.Name)
	return mqtt.NewQueue(opts, prefix), nil
}
