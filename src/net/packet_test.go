package net

import (
	"reflect"
	"testing"

	"github.com/mosaicnetworks/mpl/src/mpl"
)

func TestPacketDataRoundTrip(t *testing.T) {
	p := NewDataPacket("node0", &mpl.DataMessage{
		SeedID:   42,
		Sequence: 7,
		More:     true,
		Payload:  []byte("hello"),
	})

	data, err := Encode(p)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	out, err := Decode(data)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !reflect.DeepEqual(p, out) {
		t.Fatalf("packets differ: %+v vs %+v", p, out)
	}
	if out.Option != MPLOption || out.Destination != AllMPLForwarders {
		t.Fatalf("wrong addressing: %+v", out)
	}
}

func TestPacketControlRoundTrip(t *testing.T) {
	p := NewControlPacket("node1", &mpl.ControlMessage{
		Summaries: map[mpl.SeedID]mpl.SeedSummary{
			1: {MinSequence: 3, BitmapLength: 3, Bitmap: []bool{true, false, true}},
			9: {MinSequence: 1, BitmapLength: 1, Bitmap: []bool{true}},
		},
	})

	out, err := Copy(p)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !reflect.DeepEqual(p, out) {
		t.Fatalf("packets differ: %+v vs %+v", p, out)
	}
	if out.Control == p.Control {
		t.Fatalf("Copy should not share the message")
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte{0xc1}); err == nil {
		t.Fatalf("decoding garbage should fail")
	}
}
