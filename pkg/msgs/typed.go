// Package msgs defines the messages exchanged with the bus master over
// MQTT. Every payload is a Typed envelope wrapping one protobuf message.
package msgs

import (
	"errors"
	"fmt"

	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/lgap.go/pkg/framework"
)

// TypeID masks
const (
	TypeIDMaskKind  uint32 = 0x80000000
	TypeIDMaskGroup uint32 = 0x7fff0000
	TypeIDMaskID    uint32 = 0x0000ffff
)

// Message Kinds
const (
	TypeIDKindCommand uint32 = 0x00000000
	TypeIDKindEvent   uint32 = 0x80000000
)

// GroupLGAP is the group of all LGAP messages.
const GroupLGAP uint32 = 0x4c470000

// TypeIDs
const (
	ZoneStatusTypeID uint32 = GroupLGAP | TypeIDKindEvent | 0x0001
	BusStatsTypeID   uint32 = GroupLGAP | TypeIDKindEvent | 0x0002
	ZoneWriteTypeID  uint32 = GroupLGAP | TypeIDKindCommand | 0x0001
)

// Message is a message which can be sent over the wire.
type Message interface {
	fx.Message
	proto.Message
	TypeID() uint32
}

// MessageTypes maps type ids to messages.
var MessageTypes = map[uint32]Message{
	ZoneStatusTypeID: (*ZoneStatus)(nil),
	BusStatsTypeID:   (*BusStats)(nil),
	ZoneWriteTypeID:  (*ZoneWrite)(nil),
}

// ErrUnknownType indicates unknown type id.
type ErrUnknownType struct {
	TypeID uint32
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown type: %x", e.TypeID)
}

// ErrEmpty indicates an empty payload, e.g. a cleared retained message.
var ErrEmpty = errors.New("empty payload")

// Typed wraps a message with its type id.
type Typed struct {
	TypeId  uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Message []byte `protobuf:"bytes,2,opt,name=message,proto3" json:"message,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Typed) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Typed) Reset() { *m = Typed{} }

// String implements proto.Message.
func (m *Typed) String() string { return proto.CompactTextString(m) }

// IsEvent determines if the message is an event.
func (m *Typed) IsEvent() bool {
	return m.TypeId&TypeIDMaskKind == TypeIDKindEvent
}

// Encode wraps msg in a Typed envelope and serializes it.
func Encode(msg Message) ([]byte, error) {
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(&Typed{TypeId: msg.TypeID(), Message: data})
}

// Decode deserializes a Typed envelope and the message inside.
func Decode(data []byte) (Message, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	var typed Typed
	if err := proto.Unmarshal(data, &typed); err != nil {
		return nil, err
	}
	msgType, ok := MessageTypes[typed.TypeId]
	if !ok {
		return nil, &ErrUnknownType{TypeID: typed.TypeId}
	}
	msg := msgType.NewMessage().(Message)
	if err := proto.Unmarshal(typed.Message, msg); err != nil {
		return nil, fmt.Errorf("decode %x: %w", typed.TypeId, err)
	}
	return msg, nil
}
