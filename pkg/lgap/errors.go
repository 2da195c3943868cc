package lgap

import (
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	// ErrFrameLength indicates the frame is not exactly FrameSize bytes.
	ErrFrameLength = errors.New("invalid frame length")
	// ErrFraming indicates a frame doesn't begin with StartByte.
	ErrFraming = errors.New("framing error")
	// ErrChecksum indicates checksum mismatch.
	ErrChecksum = errors.New("checksum error")
	// ErrNoResponse indicates the zone didn't respond in time.
	ErrNoResponse = errors.New("no response")
	// ErrStaleResponse indicates a valid frame not answering the
	// outstanding request.
	ErrStaleResponse = errors.New("stale response")
)

// BusError is a recovered failure on the bus.
type BusError struct {
	Err       error
	Zone      int
	RequestID byte
	Data      []byte
}

// Error implements error.
func (e *BusError) Error() string {
	msg := fmt.Sprintf("zone %d request %d: %v", e.Zone, e.RequestID, e.Err)
	if len(e.Data) > 0 {
		msg += " [" + hex.EncodeToString(e.Data) + "]"
	}
	return msg
}

// Unwrap supports errors.Is.
func (e *BusError) Unwrap() error {
	return e.Err
}
