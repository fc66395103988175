package orchestrator

import (
	"bytes"
	"testing"
)

func TestPlaybackPacketizesFixedSizes(t *testing.T) {
	var packets [][]byte
	p := NewPlaybackStreamer(8, func(packet []byte) error {
		packets = append(packets, packet)
		return nil
	})

	if err := p.Write(bytes.Repeat([]byte{1}, 5)); err != nil {
		t.Fatal(err)
	}
	if len(packets) != 0 {
		t.Fatalf("sent %d packets before boundary", len(packets))
	}
	if err := p.Write(bytes.Repeat([]byte{2}, 13)); err != nil {
		t.Fatal(err)
	}
	if len(packets) != 2 {
		t.Fatalf("sent %d packets, want 2", len(packets))
	}
	for i, pkt := range packets {
		if len(pkt) != 8 {
			t.Errorf("packet[%d] len = %d, want 8", i, len(pkt))
		}
	}
	if p.Buffered() != 2 {
		t.Errorf("buffered = %d, want 2", p.Buffered())
	}
}

func TestPlaybackFinishFlushesRemainder(t *testing.T) {
	var packets [][]byte
	p := NewPlaybackStreamer(8, func(packet []byte) error {
		packets = append(packets, packet)
		return nil
	})

	_ = p.Write([]byte{1, 2, 3})
	if err := p.Finish(); err != nil {
		t.Fatal(err)
	}
	if len(packets) != 1 || len(packets[0]) != 3 {
		t.Fatalf("finish packets = %v", packets)
	}
	// Finish on an empty buffer sends nothing.
	if err := p.Finish(); err != nil {
		t.Fatal(err)
	}
	if len(packets) != 1 {
		t.Errorf("empty finish sent a packet")
	}
}

func TestPlaybackCancelDropsBuffer(t *testing.T) {
	var packets [][]byte
	p := NewPlaybackStreamer(8, func(packet []byte) error {
		packets = append(packets, packet)
		return nil
	})

	_ = p.Write([]byte{1, 2, 3, 4, 5})
	p.Cancel()
	if err := p.Finish(); err != nil {
		t.Fatal(err)
	}
	if len(packets) != 0 {
		t.Errorf("cancelled buffer was still sent: %v", packets)
	}
}

func TestPlaybackPreservesByteOrder(t *testing.T) {
	var got []byte
	p := NewPlaybackStreamer(4, func(packet []byte) error {
		got = append(got, packet...)
		return nil
	})

	input := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	_ = p.Write(input[:3])
	_ = p.Write(input[3:7])
	_ = p.Write(input[7:])
	_ = p.Finish()

	if !bytes.Equal(got, input) {
		t.Errorf("output order = %v, want %v", got, input)
	}
}
