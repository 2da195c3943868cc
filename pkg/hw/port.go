// Package hw connects the bus master to the serial port and the
// transmit-enable line of the RS-485 transceiver.
package hw

import (
	"fmt"
	"io"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

// BaudRate is the fixed speed of the LGAP bus.
const BaudRate = 4800

// SerialPort is the part of serial.Port used here.
type SerialPort interface {
	io.ReadWriteCloser
	Drain() error
	ResetInputBuffer() error
	SetRTS(bool) error
}

// PortConfig configures the serial port.
type PortConfig struct {
	Name     string
	BaudRate int
}

// Port is an lgap.Transport over a serial port. Reads never block: the
// port is polled on Available and whatever arrived is buffered.
type Port struct {
	Name string

	port    SerialPort
	buf     [64]byte
	pending []byte
	err     error
}

// Open opens the serial port in 8N1 mode with non-blocking reads.
func Open(conf PortConfig) (*Port, error) {
	baud := conf.BaudRate
	if baud == 0 {
		baud = BaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(conf.Name, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", conf.Name, err)
	}
	if err := port.SetReadTimeout(0); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", conf.Name, err)
	}
	if baud != BaudRate {
		glog.Warningf("serial port %s at %d baud, the bus runs at %d", conf.Name, baud, BaudRate)
	}
	return NewPort(conf.Name, port), nil
}

// NewPort wraps an opened port. Reads on port must not block.
func NewPort(name string, port SerialPort) *Port {
	return &Port{Name: name, port: port}
}

// Serial returns the underlying port.
func (p *Port) Serial() SerialPort {
	return p.port
}

// Available implements lgap.Transport.
func (p *Port) Available() bool {
	if len(p.pending) > 0 || p.err != nil {
		return true
	}
	n, err := p.port.Read(p.buf[:])
	if n > 0 {
		p.pending = p.buf[:n]
	}
	if err != nil {
		p.err = fmt.Errorf("read %s: %w", p.Name, err)
	}
	return n > 0 || err != nil
}

// ReadByte implements lgap.Transport.
func (p *Port) ReadByte() (byte, error) {
	if len(p.pending) == 0 {
		if err := p.err; err != nil {
			p.err = nil
			return 0, err
		}
		return 0, io.ErrNoProgress
	}
	c := p.pending[0]
	p.pending = p.pending[1:]
	return c, nil
}

// Write implements lgap.Transport.
func (p *Port) Write(data []byte) (int, error) {
	return p.port.Write(data)
}

// Flush implements lgap.Transport.
func (p *Port) Flush() error {
	return p.port.Drain()
}

// Discard implements lgap.Transport.
func (p *Port) Discard() error {
	p.pending, p.err = nil, nil
	return p.port.ResetInputBuffer()
}

// Close closes the port.
func (p *Port) Close() error {
	return p.port.Close()
}

func (p *Port) String() string {
	return p.Name
}
