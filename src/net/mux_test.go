package net

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/mpl/src/common"
	"github.com/mosaicnetworks/mpl/src/mpl"
)

type fakeHandler struct {
	data    []*mpl.DataMessage
	control []*mpl.ControlMessage
}

func (f *fakeHandler) OnData(msg *mpl.DataMessage) bool {
	f.data = append(f.data, msg)
	return true
}

func (f *fakeHandler) OnControl(msg *mpl.ControlMessage) bool {
	f.control = append(f.control, msg)
	return false
}

type fakeSender struct {
	packets []*Packet
	err     error
}

func (f *fakeSender) Multicast(p *Packet) error {
	f.packets = append(f.packets, p)
	return f.err
}

func TestMuxDispatch(t *testing.T) {
	mux := NewMux(common.NewTestEntry(t, logrus.DebugLevel))
	h := &fakeHandler{}
	RegisterEngine(mux, h)

	if err := mux.Dispatch(NewDataPacket("a", &mpl.DataMessage{SeedID: 1, Sequence: 2})); err != nil {
		t.Fatalf("err: %v", err)
	}
	if err := mux.Dispatch(NewControlPacket("a", &mpl.ControlMessage{})); err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(h.data) != 1 || len(h.control) != 1 {
		t.Fatalf("handler got %d data and %d control", len(h.data), len(h.control))
	}

	err := mux.Dispatch(&Packet{Option: 0x3A, Kind: DataKind})
	if !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("expected ErrUnknownOption, got %v", err)
	}

	if err := mux.Dispatch(&Packet{Option: MPLOption, Kind: DataKind}); err == nil {
		t.Fatalf("a data packet without message should fail")
	}
	if err := mux.Dispatch(&Packet{Option: MPLOption, Kind: 9}); err == nil {
		t.Fatalf("an unknown kind should fail")
	}
}

func TestOutbox(t *testing.T) {
	sender := &fakeSender{}
	out := NewOutbox("n1", sender, common.NewTestEntry(t, logrus.DebugLevel))

	out.SendData(&mpl.DataMessage{SeedID: 1, Sequence: 1})
	out.SendControl(&mpl.ControlMessage{})

	if len(sender.packets) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(sender.packets))
	}
	for _, p := range sender.packets {
		if p.Source != "n1" || p.Option != MPLOption || p.Destination != AllMPLForwarders {
			t.Fatalf("bad addressing: %+v", p)
		}
	}
	if sender.packets[0].Kind != DataKind || sender.packets[1].Kind != ControlKind {
		t.Fatalf("bad kinds")
	}

	sender.err = errors.New("link down")
	out.SendData(&mpl.DataMessage{SeedID: 1, Sequence: 2})
	if len(sender.packets) != 3 {
		t.Fatalf("errors should only be logged")
	}
}
