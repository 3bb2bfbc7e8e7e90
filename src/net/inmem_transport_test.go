package net

import (
	"testing"
	"time"

	"github.com/mosaicnetworks/mpl/src/mpl"
)

func expectPacket(t *testing.T, trans *InmemTransport) *Packet {
	t.Helper()
	select {
	case p := <-trans.Consumer():
		return p
	case <-time.After(time.Second):
		t.Fatalf("no packet on %s", trans.LocalAddr())
	}
	return nil
}

func expectNoPacket(t *testing.T, trans *InmemTransport) {
	t.Helper()
	select {
	case p := <-trans.Consumer():
		t.Fatalf("unexpected packet on %s: %+v", trans.LocalAddr(), p)
	default:
	}
}

func TestInmemTransportMulticast(t *testing.T) {
	_, a := NewInmemTransport("a", 4)
	_, b := NewInmemTransport("b", 4)
	_, c := NewInmemTransport("c", 4)
	defer a.Close()
	defer b.Close()
	defer c.Close()

	// a - b - c
	a.Connect("b", b)
	b.Connect("a", a)
	b.Connect("c", c)
	c.Connect("b", b)

	msg := &mpl.DataMessage{SeedID: 1, Sequence: 1, Payload: []byte("x")}
	if err := a.Multicast(NewDataPacket("a", msg)); err != nil {
		t.Fatalf("err: %v", err)
	}

	p := expectPacket(t, b)
	if p.Source != "a" || p.Data.Sequence != 1 {
		t.Fatalf("unexpected packet %+v", p)
	}
	if p.Data == msg {
		t.Fatalf("receivers should get a copy")
	}
	expectNoPacket(t, a)
	expectNoPacket(t, c)
}

func TestInmemTransportDropsOnFullQueue(t *testing.T) {
	_, a := NewInmemTransport("a", 1)
	_, b := NewInmemTransport("b", 1)
	a.Connect("b", b)

	msg := &mpl.DataMessage{SeedID: 1, Sequence: 1}
	for i := 0; i < 3; i++ {
		if err := a.Multicast(NewDataPacket("a", msg)); err != nil {
			t.Fatalf("err: %v", err)
		}
	}

	if d := b.Dropped(); d != 2 {
		t.Fatalf("b should have dropped 2 packets, not %d", d)
	}
	expectPacket(t, b)
	expectNoPacket(t, b)
}

func TestInmemTransportClose(t *testing.T) {
	addr, a := NewInmemTransport("", 1)
	if addr == "" || a.LocalAddr() != addr {
		t.Fatalf("a random address should be generated")
	}

	_, b := NewInmemTransport("b", 1)
	ConnectAll(a, b)

	if err := a.Close(); err != nil {
		t.Fatalf("err: %v", err)
	}
	if err := a.Multicast(NewControlPacket(addr, &mpl.ControlMessage{})); err != ErrTransportShutdown {
		t.Fatalf("expected ErrTransportShutdown, got %v", err)
	}

	// b still routes to a but a discards
	if err := b.Multicast(NewControlPacket("b", &mpl.ControlMessage{})); err != nil {
		t.Fatalf("err: %v", err)
	}
	expectNoPacket(t, a)
}
