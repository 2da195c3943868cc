package lgap

import (
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/lgap.go/pkg/framework"
)

// State is the protocol state of the Engine.
type State int

// States
const (
	RequestNextDeviceStatus State = iota
	AwaitResponseStart
	AwaitResponseBody
)

func (s State) String() string {
	switch s {
	case RequestNextDeviceStatus:
		return "REQUEST_NEXT_DEVICE_STATUS"
	case AwaitResponseStart:
		return "AWAIT_RESPONSE_START"
	case AwaitResponseBody:
		return "AWAIT_RESPONSE_BODY"
	}
	return "UNKNOWN"
}

// Stats counts bus activity.
type Stats struct {
	Requests       uint64 `json:"requests"`
	Writes         uint64 `json:"writes"`
	Responses      uint64 `json:"responses"`
	Stale          uint64 `json:"stale"`
	Timeouts       uint64 `json:"timeouts"`
	FramingErrors  uint64 `json:"framing_errors"`
	ChecksumErrors uint64 `json:"checksum_errors"`
	WriteErrors    uint64 `json:"write_errors"`
}

// Engine is the bus master. All methods must be called from one
// execution context, usually the controlling loop.
type Engine struct {
	Transport   Transport
	FlowControl FlowControl
	Devices     Registry
	Timing      Timing
	// WritePriority sends pending writes ahead of status polls.
	WritePriority bool
	// Debug enables per-byte tracing at glog level 2.
	Debug bool
	// OnError is invoked for every recovered bus failure.
	OnError func(*BusError)

	state     State
	requestID byte
	// next is the round-robin index of the next status poll.
	next int
	// wrote is set when the last pass sent a write, a due status poll
	// goes first then.
	wrote bool

	outstandingID   byte
	outstandingZone int

	rx    [FrameSize]byte
	rxLen int
	tx    [FrameSize]byte

	lastPass time.Time
	lastPoll time.Time
	lastSend time.Time
	deadline time.Time

	stats Stats
}

// NewEngine creates an Engine with default timing.
func NewEngine(t Transport, devices Registry) *Engine {
	return &Engine{
		Transport:     t,
		Devices:       devices,
		Timing:        DefaultTiming(),
		WritePriority: true,
	}
}

// State returns the current protocol state.
func (e *Engine) State() State { return e.state }

// RequestID returns the id the next request will carry.
func (e *Engine) RequestID() byte { return e.requestID }

// Buffered returns the number of response bytes received so far.
func (e *Engine) Buffered() int { return e.rxLen }

// Stats returns a snapshot of the counters.
func (e *Engine) Stats() Stats { return e.stats }

// AddToLoop implements LoopAdder.
func (e *Engine) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvControl, e)
}

// Control implements Controller.
func (e *Engine) Control(cc fx.ControlContext) error {
	e.Tick(cc.Time())
	if e.state != RequestNextDeviceStatus && e.Transport.Available() {
		cc.TriggerNext()
	}
	return nil
}

// Tick advances the engine by at most one unit of work: one request
// transmission, or one received byte. It never waits.
func (e *Engine) Tick(now time.Time) {
	switch e.state {
	case RequestNextDeviceStatus:
		e.request(now)
	default:
		e.receive(now)
	}
}

func (e *Engine) request(now time.Time) {
	if e.Devices == nil || e.Devices.Len() == 0 {
		return
	}
	if !elapsed(now, e.lastPass, e.Timing.LoopWait) {
		return
	}
	if e.Timing.SendWait > 0 && !elapsed(now, e.lastSend, e.Timing.SendWait) {
		return
	}
	e.lastPass = now

	var dev Device
	write := false
	pollDue := elapsed(now, e.lastPoll, e.Timing.ZoneCheckWait)
	if e.WritePriority && !(e.wrote && pollDue) {
		dev = e.pendingWrite()
		write = dev != nil
	}
	if dev == nil {
		if !pollDue {
			return
		}
		e.lastPoll = now
		dev = e.nextDevice()
	}
	e.wrote = write

	if zone := dev.ZoneID(); zone < 0 {
		e.tracef("device %d has no zone, skipped", e.next-1)
	} else if e.send(now, dev, zone) {
		if write {
			// the flag stays set when the send failed, so the write is retried.
			dev.ClearPendingWrite()
			e.stats.Writes++
		}
		e.state = AwaitResponseStart
	}
	// the id moves on once a device is selected, whatever the outcome.
	e.requestID++
}

func (e *Engine) pendingWrite() Device {
	for i, n := 0, e.Devices.Len(); i < n; i++ {
		if dev := e.Devices.At(i); dev.ZoneID() >= 0 && dev.PendingWrite() {
			e.tracef("pending write for zone %d", dev.ZoneID())
			return dev
		}
	}
	return nil
}

// nextDevice selects the device following the last polled one.
func (e *Engine) nextDevice() Device {
	if e.next >= e.Devices.Len() {
		e.next = 0
	}
	dev := e.Devices.At(e.next)
	e.next++
	return dev
}

func (e *Engine) send(now time.Time, dev Device, zone int) bool {
	buf := dev.BuildRequest(e.tx[:0], e.requestID)
	if len(buf) <= offsetRequestID {
		glog.Warningf("lgap: zone %d built a %d-byte request, nothing sent", zone, len(buf))
		return false
	}
	buf[offsetRequestID] = e.requestID
	if len(buf) == FrameSize {
		buf[offsetChecksum] = Checksum(buf)
	}

	if err := e.Transport.Discard(); err != nil {
		glog.Warningf("lgap: discard input: %v", err)
	}
	if e.FlowControl != nil {
		if err := e.FlowControl.SetTransmit(true); err != nil {
			glog.Errorf("lgap: assert flow control: %v", err)
			e.stats.WriteErrors++
			return false
		}
	}
	_, err := e.Transport.Write(buf)
	if err == nil {
		err = e.Transport.Flush()
	}
	if e.FlowControl != nil {
		if ferr := e.FlowControl.SetTransmit(false); ferr != nil {
			glog.Errorf("lgap: deassert flow control: %v", ferr)
		}
	}
	if err != nil {
		glog.Errorf("lgap: send request to zone %d: %v", zone, err)
		e.stats.WriteErrors++
		return false
	}

	e.tracef("sent request %d to zone %d: % x", e.requestID, zone, buf)
	e.outstandingID, e.outstandingZone = e.requestID, zone
	e.lastSend = now
	e.deadline = now.Add(e.Timing.ReceiveTimeout)
	e.rxLen = 0
	e.stats.Requests++
	return true
}

func (e *Engine) receive(now time.Time) {
	if expired(now, e.deadline) {
		e.stats.Timeouts++
		e.fail(ErrNoResponse)
		return
	}
	if !e.Transport.Available() {
		return
	}
	c, err := e.Transport.ReadByte()
	if err != nil {
		glog.Errorf("lgap: read: %v", err)
		e.abort()
		return
	}
	e.tracef("received byte 0x%02x in %s", c, e.state)

	switch e.state {
	case AwaitResponseStart:
		if c != StartByte {
			e.rx[0], e.rxLen = c, 1
			e.stats.FramingErrors++
			e.fail(ErrFraming)
			return
		}
		e.rx[0], e.rxLen = c, 1
		e.state = AwaitResponseBody
	case AwaitResponseBody:
		e.rx[e.rxLen] = c
		e.rxLen++
		if e.rxLen == FrameSize {
			e.complete()
		}
	}
}

func (e *Engine) complete() {
	frame := Frame(e.rx)
	if err := Validate(frame[:]); err != nil {
		if err == ErrChecksum {
			e.stats.ChecksumErrors++
		} else {
			e.stats.FramingErrors++
		}
		e.fail(err)
		return
	}
	e.rxLen = 0
	e.state = RequestNextDeviceStatus

	if frame.RequestID() != e.outstandingID || int(frame.Zone()) != e.outstandingZone {
		e.stats.Stale++
		e.tracef("ignored response %d from zone %d, expecting %d from zone %d",
			frame.RequestID(), frame.Zone(), e.outstandingID, e.outstandingZone)
		return
	}
	e.stats.Responses++
	e.tracef("response %d from zone %d: %s", frame.RequestID(), frame.Zone(), frame)
	for i, n := 0, e.Devices.Len(); i < n; i++ {
		if dev := e.Devices.At(i); dev.ZoneID() == int(frame.Zone()) {
			dev.OnResponse(frame)
		}
	}
}

// fail reports err and returns to the polling state.
func (e *Engine) fail(err error) {
	berr := &BusError{
		Err:       err,
		Zone:      e.outstandingZone,
		RequestID: e.outstandingID,
	}
	if e.rxLen > 0 {
		berr.Data = append([]byte(nil), e.rx[:e.rxLen]...)
	}
	if err == ErrChecksum {
		glog.Errorf("lgap: %v", berr)
	} else {
		glog.Warningf("lgap: %v", berr)
	}
	if e.OnError != nil {
		e.OnError(berr)
	}
	e.abort()
}

// abort drops the partial response and everything left unread.
func (e *Engine) abort() {
	e.rxLen = 0
	e.state = RequestNextDeviceStatus
	if err := e.Transport.Discard(); err != nil {
		glog.Warningf("lgap: discard input: %v", err)
	}
}

func (e *Engine) tracef(format string, args ...interface{}) {
	if e.Debug && bool(glog.V(2)) {
		glog.Infof("lgap: "+format, args...)
	}
}

// LogConfig prints the configuration.
func (e *Engine) LogConfig() {
	glog.Info("LGAP:")
	if e.FlowControl != nil {
		glog.Infof("  Flow control: %v", e.FlowControl)
	} else {
		glog.Info("  Flow control: not set")
	}
	glog.Infof("  Loop wait: %v", e.Timing.LoopWait)
	glog.Infof("  Zone check wait: %v", e.Timing.ZoneCheckWait)
	glog.Infof("  Receive timeout: %v", e.Timing.ReceiveTimeout)
	glog.Infof("  Send wait: %v", e.Timing.SendWait)
	glog.Infof("  Write priority: %v", e.WritePriority)
	if e.Devices != nil {
		glog.Infof("  Devices: %d", e.Devices.Len())
	}
	if e.Debug {
		glog.Info("  Debug: true")
	}
}
