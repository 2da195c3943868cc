//go:build linux

package hw

import (
	"fmt"

	"github.com/warthog618/gpiod"
)

// GPIOFlowControl drives transmit-enable through a GPIO line.
type GPIOFlowControl struct {
	Chip      string
	Offset    int
	ActiveLow bool

	chip *gpiod.Chip
	line *gpiod.Line
}

// OpenGPIOFlowControl requests the line as an output, deasserted.
func OpenGPIOFlowControl(chip string, offset int, activeLow bool) (*GPIOFlowControl, error) {
	c, err := gpiod.NewChip(chip, gpiod.WithConsumer("lgap"))
	if err != nil {
		return nil, fmt.Errorf("open GPIO chip %s: %w", chip, err)
	}
	line, err := c.RequestLine(offset, gpiod.AsOutput(level(false, activeLow)))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("request GPIO line %s:%d: %w", chip, offset, err)
	}
	return &GPIOFlowControl{
		Chip:      chip,
		Offset:    offset,
		ActiveLow: activeLow,
		chip:      c,
		line:      line,
	}, nil
}

// SetTransmit implements lgap.FlowControl.
func (c *GPIOFlowControl) SetTransmit(on bool) error {
	return c.line.SetValue(level(on, c.ActiveLow))
}

func level(on, activeLow bool) int {
	if on != activeLow {
		return 1
	}
	return 0
}

// Close releases the line and the chip.
func (c *GPIOFlowControl) Close() error {
	err := c.line.Close()
	if cerr := c.chip.Close(); err == nil {
		err = cerr
	}
	return err
}

func (c *GPIOFlowControl) String() string {
	return fmt.Sprintf("GPIO %s:%d active-low=%v", c.Chip, c.Offset, c.ActiveLow)
}
