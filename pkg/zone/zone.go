// Package zone provides the HVAC zone device polled by the bus master.
//
// A Zone keeps a request template whose opaque bytes are sent with every
// request. Writing a zone replaces those bytes and flags the zone so the
// engine sends it ahead of the regular status polls. A Zone is not safe
// for concurrent use and is expected to live in the controlling loop.
package zone

import (
	"time"

	"github.com/robotalks/lgap.go/pkg/lgap"
)

// Listener receives responses consumed by a zone.
type Listener interface {
	ZoneUpdated(z *Zone, f lgap.Frame)
}

// ListenerFunc is the func form of Listener.
type ListenerFunc func(*Zone, lgap.Frame)

// ZoneUpdated implements Listener.
func (f ListenerFunc) ZoneUpdated(z *Zone, frame lgap.Frame) {
	f(z, frame)
}

// Zone is a zone controller on the bus.
type Zone struct {
	ID       int
	Name     string
	Listener Listener
	Clock    func() time.Time

	template lgap.Frame
	pending  bool

	last    lgap.Frame
	lastAt  time.Time
	updates uint64
}

// New creates a Zone.
func New(id int, name string) *Zone {
	return &Zone{ID: id, Name: name, Clock: time.Now}
}

// WithPayload sets the initial payload, without flagging a write.
func (z *Zone) WithPayload(payload []byte) *Zone {
	z.template.SetPayload(payload)
	return z
}

// Write replaces the payload and requests it to be sent.
func (z *Zone) Write(payload []byte) {
	z.template.SetPayload(payload)
	z.pending = true
}

// Payload returns the payload sent with requests.
func (z *Zone) Payload() []byte {
	return z.template.Payload()
}

// ZoneID implements lgap.Device.
func (z *Zone) ZoneID() int { return z.ID }

// PendingWrite implements lgap.Device.
func (z *Zone) PendingWrite() bool { return z.pending }

// ClearPendingWrite implements lgap.Device.
func (z *Zone) ClearPendingWrite() { z.pending = false }

// BuildRequest implements lgap.Device.
func (z *Zone) BuildRequest(buf []byte, requestID byte) []byte {
	f := z.template
	f[0] = lgap.StartByte
	f[2] = requestID
	f[4] = byte(z.ID)
	f.Seal()
	return append(buf, f[:]...)
}

// OnResponse implements lgap.Device.
func (z *Zone) OnResponse(f lgap.Frame) {
	z.last, z.updates = f, z.updates+1
	if z.Clock != nil {
		z.lastAt = z.Clock()
	} else {
		z.lastAt = time.Now()
	}
	if z.Listener != nil {
		z.Listener.ZoneUpdated(z, f)
	}
}

// Last returns the last response and when it was received.
// ok is false if the zone never responded.
func (z *Zone) Last() (f lgap.Frame, at time.Time, ok bool) {
	return z.last, z.lastAt, z.updates > 0
}

// Updates returns the number of responses consumed.
func (z *Zone) Updates() uint64 { return z.updates }

// List is an ordered set of zones.
type List []*Zone

// Len implements lgap.Registry.
func (l List) Len() int { return len(l) }

// At implements lgap.Registry.
func (l List) At(i int) lgap.Device { return l[i] }

// Find returns the first zone with the given id.
func (l List) Find(id int) *Zone {
	for _, z := range l {
		if z.ID == id {
			return z
		}
	}
	return nil
}

// SetListener sets the listener of every zone.
func (l List) SetListener(lis Listener) {
	for _, z := range l {
		z.Listener = lis
	}
}
