package audio

import "testing"

func TestMuLawRoundTripAccuracy(t *testing.T) {
	// Mu-law is lossy; round-tripped samples must stay within the step size
	// of their amplitude segment.
	samples := []int16{0, 1, -1, 100, -100, 1000, -1000, 8000, -8000, 30000, -30000, 32767, -32768}
	for _, s := range samples {
		got := DecodeMuLawSample(EncodeMuLawSample(s))
		diff := int(got) - int(s)
		if diff < 0 {
			diff = -diff
		}
		// Worst-case quantization error in the top segment.
		if diff > 1024 {
			t.Errorf("round trip %d -> %d, error %d too large", s, got, diff)
		}
	}
}

func TestMuLawSilence(t *testing.T) {
	if got := DecodeMuLawSample(EncodeMuLawSample(0)); got != 0 {
		t.Errorf("silence round trip = %d, want 0", got)
	}
}

func TestEncodeDecodeBuffers(t *testing.T) {
	pcm := []byte{0x00, 0x00, 0xE8, 0x03, 0x18, 0xFC} // 0, 1000, -1000
	mu := EncodeMuLaw(pcm)
	if len(mu) != 3 {
		t.Fatalf("encoded len = %d, want 3", len(mu))
	}
	back := DecodeMuLaw(mu)
	if len(back) != 6 {
		t.Fatalf("decoded len = %d, want 6", len(back))
	}
}

func TestEncodeOddLengthIgnoresTrailingByte(t *testing.T) {
	if got := EncodeMuLaw([]byte{0x00, 0x00, 0xFF}); len(got) != 1 {
		t.Errorf("encoded len = %d, want 1", len(got))
	}
}

func TestRMS(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Errorf("RMS(nil) = %v, want 0", got)
	}
	silence := make([]byte, 320)
	if got := RMS(silence); got != 0 {
		t.Errorf("RMS(silence) = %v, want 0", got)
	}
	loud := make([]byte, 0, 320)
	for i := 0; i < 160; i++ {
		loud = append(loud, 0xFF, 0x7F) // 32767
	}
	if got := RMS(loud); got < 0.99 {
		t.Errorf("RMS(full scale) = %v, want ~1", got)
	}
}

func TestNewWavBuffer(t *testing.T) {
	pcm := make([]byte, 16)
	wav := NewWavBuffer(pcm, 8000)
	if len(wav) != 44+len(pcm) {
		t.Fatalf("wav len = %d, want %d", len(wav), 44+len(pcm))
	}
	if string(wav[:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Errorf("bad container header")
	}
}
