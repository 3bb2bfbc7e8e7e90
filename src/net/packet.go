package net

import (
	"bytes"
	"fmt"

	"github.com/ugorji/go/codec"

	"github.com/mosaicnetworks/mpl/src/mpl"
)

const (
	// MPLOption is the option number identifying MPL traffic.
	MPLOption uint8 = 0x6D

	// AllMPLForwarders is the multicast scope reaching every MPL forwarder.
	AllMPLForwarders uint8 = 0x3
)

// PacketKind distinguishes data packets from control packets.
type PacketKind uint8

const (
	// DataKind packets carry a DataMessage.
	DataKind PacketKind = iota + 1
	// ControlKind packets carry a ControlMessage.
	ControlKind
)

func (k PacketKind) String() string {
	switch k {
	case DataKind:
		return "Data"
	case ControlKind:
		return "Control"
	default:
		return fmt.Sprintf("PacketKind(%d)", uint8(k))
	}
}

// Packet is the unit exchanged by transports.
type Packet struct {
	Source      string     `codec:"src"`
	Destination uint8      `codec:"dst"`
	Option      uint8      `codec:"opt"`
	Kind        PacketKind `codec:"kind"`

	Data    *mpl.DataMessage    `codec:"data,omitempty"`
	Control *mpl.ControlMessage `codec:"control,omitempty"`
}

// NewDataPacket ...
func NewDataPacket(source string, msg *mpl.DataMessage) *Packet {
	return &Packet{
		Source:      source,
		Destination: AllMPLForwarders,
		Option:      MPLOption,
		Kind:        DataKind,
		Data:        msg,
	}
}

// NewControlPacket ...
func NewControlPacket(source string, msg *mpl.ControlMessage) *Packet {
	return &Packet{
		Source:      source,
		Destination: AllMPLForwarders,
		Option:      MPLOption,
		Kind:        ControlKind,
		Control:     msg,
	}
}

func newMsgpackHandle() *codec.MsgpackHandle {
	mh := new(codec.MsgpackHandle)
	mh.Canonical = true
	mh.WriteExt = true
	return mh
}

// Marshal ...
func (p *Packet) Marshal() ([]byte, error) {
	b := new(bytes.Buffer)
	enc := codec.NewEncoder(b, newMsgpackHandle())

	if err := enc.Encode(p); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Unmarshal ...
func (p *Packet) Unmarshal(data []byte) error {
	b := bytes.NewBuffer(data)
	dec := codec.NewDecoder(b, newMsgpackHandle())

	if err := dec.Decode(p); err != nil {
		return err
	}

	return nil
}

// Encode serialises a packet.
func Encode(p *Packet) ([]byte, error) {
	data, err := p.Marshal()
	if err != nil {
		return nil, fmt.Errorf("encoding %s packet: %w", p.Kind, err)
	}
	return data, nil
}

// Decode parses a packet produced by Encode.
func Decode(data []byte) (*Packet, error) {
	p := new(Packet)
	if err := p.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("decoding packet: %w", err)
	}
	return p, nil
}

// Copy returns a deep copy of the packet obtained by a round trip through the
// codec.
func Copy(p *Packet) (*Packet, error) {
	data, err := Encode(p)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
