package lgap

// InvalidZone is the zone id of a device not yet assigned to a zone.
const InvalidZone = -1

// Device is a zone controller on the bus as seen by the master.
// Devices are owned by the caller, the engine only iterates them.
type Device interface {
	// ZoneID returns the zone id, or a negative number if unassigned.
	ZoneID() int
	// PendingWrite reports whether the device has a write to send.
	PendingWrite() bool
	// ClearPendingWrite is called by the engine when the write is taken.
	ClearPendingWrite()
	// BuildRequest appends the request frame to buf and returns the
	// result. The engine overwrites the request id byte.
	BuildRequest(buf []byte, requestID byte) []byte
	// OnResponse consumes a validated response answering the request
	// last sent to this zone.
	OnResponse(Frame)
}

// Registry is an ordered view of the registered devices.
type Registry interface {
	Len() int
	At(int) Device
}

// Devices is a Registry backed by a slice.
type Devices []Device

// Len implements Registry.
func (d Devices) Len() int { return len(d) }

// At implements Registry.
func (d Devices) At(i int) Device { return d[i] }
