package orchestrator

// PlaybackStreamer paces synthesized audio into fixed-size packets. Audio
// arrives in whatever chunk sizes the synthesizer produces; outbound packets
// are always packetBytes long except the final flush.
//
// Not safe for concurrent use; it lives on a single reply pipeline goroutine.
type PlaybackStreamer struct {
	packetBytes int
	send        func(packet []byte) error
	buf         []byte
}

func NewPlaybackStreamer(packetBytes int, send func(packet []byte) error) *PlaybackStreamer {
	return &PlaybackStreamer{packetBytes: packetBytes, send: send}
}

// Write buffers one synthesized chunk and sends every complete packet.
func (p *PlaybackStreamer) Write(chunk []byte) error {
	p.buf = append(p.buf, chunk...)
	for len(p.buf) >= p.packetBytes {
		packet := make([]byte, p.packetBytes)
		copy(packet, p.buf[:p.packetBytes])
		p.buf = p.buf[p.packetBytes:]
		if err := p.send(packet); err != nil {
			return err
		}
	}
	return nil
}

// Finish sends any partial packet left in the buffer.
func (p *PlaybackStreamer) Finish() error {
	if len(p.buf) == 0 {
		return nil
	}
	packet := p.buf
	p.buf = nil
	return p.send(packet)
}

// Cancel drops buffered audio without sending it. The caller is responsible
// for clearing whatever the transport has already queued.
func (p *PlaybackStreamer) Cancel() {
	p.buf = nil
}

// Buffered returns how many bytes are waiting for the next packet boundary.
func (p *PlaybackStreamer) Buffered() int {
	return len(p.buf)
}
