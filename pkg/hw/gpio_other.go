//go:build !linux

package hw

import (
	"errors"
	"fmt"
)

// ErrGPIOUnsupported is returned on platforms without GPIO character devices.
var ErrGPIOUnsupported = errors.New("GPIO flow control is only supported on linux")

// GPIOFlowControl drives transmit-enable through a GPIO line.
type GPIOFlowControl struct {
	Chip      string
	Offset    int
	ActiveLow bool
}

// OpenGPIOFlowControl always fails on this platform.
func OpenGPIOFlowControl(chip string, offset int, activeLow bool) (*GPIOFlowControl, error) {
	return nil, ErrGPIOUnsupported
}

// SetTransmit implements lgap.FlowControl.
func (c *GPIOFlowControl) SetTransmit(on bool) error {
	return ErrGPIOUnsupported
}

// Close implements io.Closer.
func (c *GPIOFlowControl) Close() error {
	return nil
}

func (c *GPIOFlowControl) String() string {
	return fmt.Sprintf("GPIO %s:%d (unsupported)", c.Chip, c.Offset)
}
