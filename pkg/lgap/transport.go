package lgap

// Transport is the byte-oriented serial connection of the bus.
// None of the methods are expected to block except Flush, which waits
// until written bytes are physically transmitted.
type Transport interface {
	// Available reports whether at least one byte can be read.
	Available() bool
	// ReadByte reads one byte, only called when Available is true.
	ReadByte() (byte, error)
	// Write queues bytes for transmission.
	Write([]byte) (int, error)
	// Flush waits until all written bytes are transmitted.
	Flush() error
	// Discard drops all unread input.
	Discard() error
}

// FlowControl drives the transmit-enable signal of a half-duplex
// transceiver.
type FlowControl interface {
	SetTransmit(on bool) error
}
