package msgs

import (
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/lgap.go/pkg/framework"
)

// ZoneStatus is the last response of a zone.
type ZoneStatus struct {
	Zone      uint32 `protobuf:"varint,1,opt,name=zone,proto3" json:"zone"`
	Name      string `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
	RequestId uint32 `protobuf:"varint,3,opt,name=request_id,json=requestId,proto3" json:"request_id"`
	Frame     []byte `protobuf:"bytes,4,opt,name=frame,proto3" json:"frame,omitempty"`
	Timestamp int64  `protobuf:"varint,5,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	Updates   uint64 `protobuf:"varint,6,opt,name=updates,proto3" json:"updates,omitempty"`
}

// NewMessage implements Message.
func (m *ZoneStatus) NewMessage() fx.Message { return &ZoneStatus{} }

// TypeID implements Message.
func (m *ZoneStatus) TypeID() uint32 { return ZoneStatusTypeID }

// ProtoMessage implements proto.Message.
func (m *ZoneStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ZoneStatus) Reset() { *m = ZoneStatus{} }

// String implements proto.Message.
func (m *ZoneStatus) String() string { return proto.CompactTextString(m) }

// ZoneWrite replaces the payload sent to a zone.
type ZoneWrite struct {
	Zone    uint32 `protobuf:"varint,1,opt,name=zone,proto3" json:"zone"`
	Payload []byte `protobuf:"bytes,2,opt,name=payload,proto3" json:"payload,omitempty"`
}

// NewMessage implements Message.
func (m *ZoneWrite) NewMessage() fx.Message { return &ZoneWrite{} }

// TypeID implements Message.
func (m *ZoneWrite) TypeID() uint32 { return ZoneWriteTypeID }

// ProtoMessage implements proto.Message.
func (m *ZoneWrite) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ZoneWrite) Reset() { *m = ZoneWrite{} }

// String implements proto.Message.
func (m *ZoneWrite) String() string { return proto.CompactTextString(m) }

// BusStats reports the bus counters.
type BusStats struct {
	Requests       uint64 `protobuf:"varint,1,opt,name=requests,proto3" json:"requests"`
	Writes         uint64 `protobuf:"varint,2,opt,name=writes,proto3" json:"writes"`
	Responses      uint64 `protobuf:"varint,3,opt,name=responses,proto3" json:"responses"`
	Stale          uint64 `protobuf:"varint,4,opt,name=stale,proto3" json:"stale"`
	Timeouts       uint64 `protobuf:"varint,5,opt,name=timeouts,proto3" json:"timeouts"`
	FramingErrors  uint64 `protobuf:"varint,6,opt,name=framing_errors,json=framingErrors,proto3" json:"framing_errors"`
	ChecksumErrors uint64 `protobuf:"varint,7,opt,name=checksum_errors,json=checksumErrors,proto3" json:"checksum_errors"`
	WriteErrors    uint64 `protobuf:"varint,8,opt,name=write_errors,json=writeErrors,proto3" json:"write_errors"`
}

// NewMessage implements Message.
func (m *BusStats) NewMessage() fx.Message { return &BusStats{} }

// TypeID implements Message.
func (m *BusStats) TypeID() uint32 { return BusStatsTypeID }

// ProtoMessage implements proto.Message.
func (m *BusStats) ProtoMessage() {}

// Reset implements proto.Message.
func (m *BusStats) Reset() { *m = BusStats{} }

// String implements proto.Message.
func (m *BusStats) String() string { return proto.CompactTextString(m) }
