package lgap

import (
	"encoding/hex"
)

// Frame layout.
const (
	FrameSize   = 16
	PayloadSize = 12

	StartByte byte = 0x10

	offsetRequestID = 2
	offsetZone      = 4
	offsetChecksum  = FrameSize - 1

	checksumXOR byte = 0x55
)

// payloadOffsets lists the bytes not interpreted by the bus master.
var payloadOffsets = [PayloadSize]int{1, 3, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14}

// Frame is a single request or response on the bus.
type Frame [FrameSize]byte

// Checksum computes the checksum of a frame. The last byte of b is the
// checksum slot and is excluded from the sum.
func Checksum(b []byte) byte {
	var sum byte
	for i := 0; i+1 < len(b); i++ {
		sum += b[i]
	}
	return sum ^ checksumXOR
}

// Validate checks length, start byte and checksum of raw frame bytes.
func Validate(b []byte) error {
	if len(b) != FrameSize {
		return ErrFrameLength
	}
	if b[0] != StartByte {
		return ErrFraming
	}
	if Checksum(b) != b[offsetChecksum] {
		return ErrChecksum
	}
	return nil
}

// ParseFrame validates b and copies it into a Frame.
func ParseFrame(b []byte) (f Frame, err error) {
	if err = Validate(b); err == nil {
		copy(f[:], b)
	}
	return
}

// NewFrame builds a sealed frame.
func NewFrame(requestID, zone byte, payload []byte) Frame {
	var f Frame
	f[0] = StartByte
	f[offsetRequestID] = requestID
	f[offsetZone] = zone
	f.SetPayload(payload)
	f.Seal()
	return f
}

// RequestID returns the request id echoed by the zone.
func (f Frame) RequestID() byte { return f[offsetRequestID] }

// Zone returns the zone id.
func (f Frame) Zone() byte { return f[offsetZone] }

// Checksum returns the checksum carried by the frame.
func (f Frame) Checksum() byte { return f[offsetChecksum] }

// Valid reports whether the frame passes Validate.
func (f Frame) Valid() bool { return Validate(f[:]) == nil }

// Payload extracts the opaque bytes in wire order.
func (f Frame) Payload() []byte {
	p := make([]byte, PayloadSize)
	for i, off := range payloadOffsets {
		p[i] = f[off]
	}
	return p
}

// SetPayload fills the opaque bytes from p, at most PayloadSize bytes are
// used and missing bytes are left unchanged. The checksum is not updated.
func (f *Frame) SetPayload(p []byte) {
	for i := 0; i < len(p) && i < PayloadSize; i++ {
		f[payloadOffsets[i]] = p[i]
	}
}

// Seal recomputes the checksum byte.
func (f *Frame) Seal() {
	f[offsetChecksum] = Checksum(f[:])
}

// Bytes returns the frame as a slice.
func (f Frame) Bytes() []byte {
	b := make([]byte, FrameSize)
	copy(b, f[:])
	return b
}

func (f Frame) String() string {
	return hex.EncodeToString(f[:])
}
